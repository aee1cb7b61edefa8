package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ashwinyue/tool-portal/internal/metrics"
	"github.com/ashwinyue/tool-portal/internal/service/auth"
)

const identityKey = "identity"

// RequireAuth 要求通过鉴权的中间件
// 鉴权失败返回 401，后续处理器不会执行
func RequireAuth(authorizer auth.Authorizer, m *metrics.HTTPMetrics, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := authorizer.Authorize(c.Request)
		if err != nil {
			reason := rejectionReason(err)
			if m != nil {
				m.ObserveAuthRejection(reason)
			}
			log.Debug("request rejected by auth gate",
				zap.String("path", c.Request.URL.Path),
				zap.String("reason", reason),
				zap.Error(err),
			)

			c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": http.StatusUnauthorized,
				"msg":  rejectionMessage(err),
			})
			return
		}

		c.Set(identityKey, identity)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// GetIdentity 从上下文获取调用方身份
func GetIdentity(c *gin.Context) (*auth.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	id, ok := v.(*auth.Identity)
	return id, ok
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, auth.ErrExpiredToken):
		return "expired"
	case errors.Is(err, auth.ErrInvalidIssuer):
		return "issuer"
	case errors.Is(err, auth.ErrInvalidAudience):
		return "audience"
	case errors.Is(err, auth.ErrInsufficientScope):
		return "scope"
	default:
		return "invalid_token"
	}
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "Missing Authorization header"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrInsufficientScope):
		return "Token lacks the required scope"
	default:
		return "Invalid or expired token"
	}
}
