package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ashwinyue/tool-portal/internal/config"
	"github.com/ashwinyue/tool-portal/internal/database"
	"github.com/ashwinyue/tool-portal/internal/handler"
	"github.com/ashwinyue/tool-portal/internal/metrics"
	"github.com/ashwinyue/tool-portal/internal/model"
	"github.com/ashwinyue/tool-portal/internal/repository"
	"github.com/ashwinyue/tool-portal/internal/service"
	"github.com/ashwinyue/tool-portal/internal/service/auth"
	"github.com/ashwinyue/tool-portal/internal/service/tool"
	"github.com/ashwinyue/tool-portal/internal/testutil"
)

const (
	tenantID = "11111111-1111-1111-1111-111111111111"
	clientID = "22222222-2222-2222-2222-222222222222"
	origin   = "http://localhost:3000"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// countingStore 统计 ListAll 调用次数，可注入故障
type countingStore struct {
	repository.ToolStore
	listCalls atomic.Int32
	listErr   error
}

func (s *countingStore) ListAll(ctx context.Context) ([]*model.Tool, error) {
	s.listCalls.Add(1)
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.ToolStore.ListAll(ctx)
}

type testServer struct {
	engine *gin.Engine
	db     *database.DB
	store  *countingStore
	signer *testutil.TokenSigner
}

func newTestServer(t *testing.T, authEnabled bool) *testServer {
	t.Helper()

	db := testutil.NewTestDB(t)
	store := &countingStore{ToolStore: repository.NewToolRepository(db.DB)}
	signer := testutil.NewTokenSigner(t)

	cfg := &config.Config{
		Auth: config.AuthConfig{Enabled: authEnabled, TenantID: tenantID, ClientID: clientID, Scope: "access_as_user"},
		CORS: config.CORSConfig{Origin: origin},
	}

	var authorizer auth.Authorizer = auth.NoopAuthorizer{}
	if authEnabled {
		authorizer = auth.NewEntraVerifierWithKeyfunc(&cfg.Auth, signer.Keyfunc)
	}

	svc := &service.Services{
		Tool:    tool.NewService(store, nil),
		Auth:    authorizer,
		Metrics: metrics.New(),
		Storage: db,
		Config:  cfg,
		Logger:  zap.NewNop(),
	}

	return &testServer{
		engine: SetupRouter(handler.NewHandlers(svc), svc),
		db:     db,
		store:  store,
		signer: signer,
	}
}

func (s *testServer) do(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) validToken(t *testing.T) string {
	return s.signer.Sign(t, testutil.EntraClaims(tenantID, clientID, "access_as_user"))
}

func decodeTools(t *testing.T, rec *httptest.ResponseRecorder) []handler.ToolResponse {
	t.Helper()
	var tools []handler.ToolResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tools))
	return tools
}

func TestWelcome(t *testing.T) {
	srv := newTestServer(t, true)

	// 未携带令牌、库为空时依然可用
	rec := srv.do(t, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message": "Welcome to the Portal Backend"}`, rec.Body.String())
}

func TestListTools_AuthGate(t *testing.T) {
	srv := newTestServer(t, true)
	_, err := tool.NewService(srv.store, nil).Seed(context.Background())
	require.NoError(t, err)

	otherTenant := testutil.EntraClaims("other-tenant", clientID, "access_as_user")
	otherAudience := testutil.EntraClaims(tenantID, "other-client", "access_as_user")

	tests := []struct {
		name  string
		token string
	}{
		{name: "no token", token: ""},
		{name: "garbage token", token: "abc.def.ghi"},
		{name: "other tenant", token: srv.signer.Sign(t, otherTenant)},
		{name: "other audience", token: srv.signer.Sign(t, otherAudience)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := srv.store.listCalls.Load()
			rec := srv.do(t, "/api/tools", tt.token)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, before, srv.store.listCalls.Load(), "storage must not be queried")

			var body handler.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, http.StatusUnauthorized, body.Code)
		})
	}

	t.Run("valid token", func(t *testing.T) {
		rec := srv.do(t, "/api/tools", srv.validToken(t))
		require.Equal(t, http.StatusOK, rec.Code)

		tools := decodeTools(t, rec)
		require.Len(t, tools, len(tool.DefaultTools()))
		for i, want := range tool.DefaultTools() {
			assert.Equal(t, want.Slug, tools[i].Slug)
			assert.Equal(t, want.Name, tools[i].Name)
			assert.Equal(t, want.TargetPath, tools[i].TargetPath)
			assert.NotZero(t, tools[i].ID)
		}
	})
}

func TestListTools_RoundTrip(t *testing.T) {
	srv := newTestServer(t, true)
	require.NoError(t, repository.NewToolRepository(srv.db.DB).Create(context.Background(), &model.Tool{
		Slug: "x", Name: "X", Description: "d", TargetPath: "/x",
	}))

	rec := srv.do(t, "/api/tools", srv.validToken(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "x", raw[0]["slug"])
	assert.Equal(t, "X", raw[0]["name"])
	assert.Equal(t, "d", raw[0]["description"])
	assert.Equal(t, "/x", raw[0]["target_path"])
	assert.NotNil(t, raw[0]["id"])
	assert.Len(t, raw[0], 5, "only public fields are serialized")
}

func TestListTools_EmptyIsArray(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(t, "/api/tools", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListTools_AuthDisabledIgnoresToken(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(t, "/api/tools", "not-even-a-jwt")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListTools_StorageFailure(t *testing.T) {
	srv := newTestServer(t, true)
	srv.store.listErr = errors.New("connection reset")

	rec := srv.do(t, "/api/tools", srv.validToken(t))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, body.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.do(t, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.NoError(t, srv.db.Close())
	rec = srv.do(t, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// 存储不可用不影响存活探针
	rec = srv.do(t, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, true)
	srv.do(t, "/", "")

	rec := srv.do(t, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `portal_http_requests_total{method="GET",route="/",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodOptions, "/api/tools", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
	assert.Zero(t, srv.store.listCalls.Load())
}
