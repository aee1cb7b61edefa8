package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/ashwinyue/tool-portal/internal/config"
)

// 认证错误
var (
	ErrMissingToken      = errors.New("missing bearer token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token expired")
	ErrInvalidIssuer     = errors.New("token issued by another tenant")
	ErrInvalidAudience   = errors.New("token issued for another audience")
	ErrInsufficientScope = errors.New("token lacks required scope")
)

// Identity 通过认证的调用方
type Identity struct {
	Subject           string
	ObjectID          string
	TenantID          string
	Name              string
	PreferredUsername string
	Scopes            []string
	Anonymous         bool
}

// Authorizer 请求鉴权
// 返回错误时请求必须在到达处理器之前被拒绝
type Authorizer interface {
	Authorize(r *http.Request) (*Identity, error)
}

// New 根据配置选择鉴权实现
func New(ctx context.Context, cfg *config.AuthConfig, log *zap.Logger) (Authorizer, error) {
	if !cfg.Enabled {
		return NoopAuthorizer{}, nil
	}
	return NewEntraVerifier(ctx, cfg, log)
}

// NoopAuthorizer 关闭认证时使用，所有请求均视为匿名通过
type NoopAuthorizer struct{}

// Authorize 实现 Authorizer
func (NoopAuthorizer) Authorize(*http.Request) (*Identity, error) {
	return &Identity{Anonymous: true}, nil
}

// BearerToken 从 Authorization 头中提取令牌
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// JWKSURL 返回租户签名公钥地址
func JWKSURL(tenantID string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/discovery/v2.0/keys"
}

// EntraVerifier 校验 Microsoft Entra ID 签发的访问令牌
type EntraVerifier struct {
	tenantID  string
	audiences []string
	issuers   []string
	scope     string
	keyfunc   jwt.Keyfunc
	parser    *jwt.Parser
}

// NewEntraVerifier 创建校验器，签名公钥由 keyfunc 从租户 JWKS 拉取并在后台刷新
func NewEntraVerifier(ctx context.Context, cfg *config.AuthConfig, log *zap.Logger) (*EntraVerifier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{JWKSURL(cfg.TenantID)})
	if err != nil {
		return nil, fmt.Errorf("failed to load signing keys: %w", err)
	}
	log.Info("identity provider signing keys loaded",
		zap.String("tenant_id", cfg.TenantID),
		zap.String("client_id", cfg.ClientID),
		zap.String("openapi_client_id", cfg.OpenAPIClientID),
	)
	return NewEntraVerifierWithKeyfunc(cfg, jwks.Keyfunc), nil
}

// NewEntraVerifierWithKeyfunc 使用指定的公钥来源创建校验器
func NewEntraVerifierWithKeyfunc(cfg *config.AuthConfig, kf jwt.Keyfunc) *EntraVerifier {
	scope := cfg.Scope
	if scope == "" {
		scope = "access_as_user"
	}
	return &EntraVerifier{
		tenantID:  cfg.TenantID,
		audiences: []string{cfg.ClientID, "api://" + cfg.ClientID},
		issuers: []string{
			"https://login.microsoftonline.com/" + cfg.TenantID + "/v2.0",
			"https://sts.windows.net/" + cfg.TenantID + "/",
		},
		scope:   scope,
		keyfunc: kf,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(time.Minute),
		),
	}
}

// entraClaims 访问令牌中关心的声明
type entraClaims struct {
	jwt.RegisteredClaims
	TenantID          string   `json:"tid"`
	Scope             string   `json:"scp"`
	Roles             []string `json:"roles"`
	ObjectID          string   `json:"oid"`
	Name              string   `json:"name"`
	PreferredUsername string   `json:"preferred_username"`
}

// Authorize 实现 Authorizer
func (v *EntraVerifier) Authorize(r *http.Request) (*Identity, error) {
	token, err := BearerToken(r)
	if err != nil {
		return nil, err
	}
	return v.Verify(token)
}

// Verify 校验签名、有效期、签发方、受众与授权范围
func (v *EntraVerifier) Verify(tokenString string) (*Identity, error) {
	var claims entraClaims
	token, err := v.parser.ParseWithClaims(tokenString, &claims, v.keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if !slices.Contains(v.issuers, claims.Issuer) || claims.TenantID != v.tenantID {
		return nil, ErrInvalidIssuer
	}

	if !slices.ContainsFunc(claims.Audience, func(aud string) bool {
		return slices.Contains(v.audiences, aud)
	}) {
		return nil, ErrInvalidAudience
	}

	// 仅接受带委托权限 scp 的用户令牌，应用令牌（只有 roles）不满足
	scopes := strings.Fields(claims.Scope)
	if !slices.Contains(scopes, v.scope) {
		return nil, ErrInsufficientScope
	}

	return &Identity{
		Subject:           claims.Subject,
		ObjectID:          claims.ObjectID,
		TenantID:          claims.TenantID,
		Name:              claims.Name,
		PreferredUsername: claims.PreferredUsername,
		Scopes:            scopes,
	}, nil
}

// identityKey context 中存放 Identity 的键
type identityKey struct{}

// WithIdentity 将调用方身份写入 context
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext 从 context 读取调用方身份，不存在时返回 nil
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
