// Package testutil 提供测试辅助工具
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/tool-portal/internal/config"
	"github.com/ashwinyue/tool-portal/internal/database"
	"github.com/ashwinyue/tool-portal/internal/model"
)

var dbSeq atomic.Int64

// MemoryDatabaseURL 返回测试独享的 SQLite 内存库连接串
func MemoryDatabaseURL(t *testing.T) string {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	return fmt.Sprintf("sqlite:///file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
}

// NewTestDB 打开内存库并建好表结构，测试结束时自动关闭
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()
	return OpenTestDB(t, MemoryDatabaseURL(t))
}

// OpenTestDB 打开指定连接串并建好表结构
// 用同一个连接串再次打开可以模拟进程重启
func OpenTestDB(t *testing.T, url string) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{URL: url}, nil)
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// SampleTool 构造测试用工具记录
func SampleTool(slug string) *model.Tool {
	return &model.Tool{
		Slug:        slug,
		Name:        strings.ToUpper(slug),
		Description: slug + " description",
		TargetPath:  "/" + slug,
	}
}

// TokenSigner 用于签发 RS256 测试令牌
type TokenSigner struct {
	KeyID string
	key   *rsa.PrivateKey
}

// NewTokenSigner 生成新的 RSA 密钥对
func NewTokenSigner(t *testing.T) *TokenSigner {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &TokenSigner{KeyID: "test-key", key: key}
}

// Keyfunc 返回只认可本签名器公钥的 jwt.Keyfunc
func (s *TokenSigner) Keyfunc(token *jwt.Token) (interface{}, error) {
	if kid, _ := token.Header["kid"].(string); kid != s.KeyID {
		return nil, fmt.Errorf("unknown kid %q", kid)
	}
	return &s.key.PublicKey, nil
}

// Sign 使用 RS256 签名
func (s *TokenSigner) Sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.KeyID
	signed, err := token.SignedString(s.key)
	require.NoError(t, err)
	return signed
}

// EntraClaims 构造一份对指定租户和应用有效的访问令牌声明
func EntraClaims(tenantID, clientID, scope string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":                "https://login.microsoftonline.com/" + tenantID + "/v2.0",
		"aud":                "api://" + clientID,
		"tid":                tenantID,
		"sub":                "subject-123",
		"oid":                "object-456",
		"name":               "Test User",
		"preferred_username": "test.user@example.com",
		"scp":                scope,
		"iat":                now.Unix(),
		"nbf":                now.Unix(),
		"exp":                now.Add(time.Hour).Unix(),
	}
}
