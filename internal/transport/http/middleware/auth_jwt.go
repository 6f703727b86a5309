package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-auth/internal/core/auth"
	"go-gin-gorm-auth/internal/domain"
	resp "go-gin-gorm-auth/internal/transport/http/response"
)

// gin.Context 里的 key
const (
	KeyUser   = "user"
	KeyUserID = "userId"
	KeyRole   = "role"
)

// UserFinder 网关只需要按 ID 回查当前用户
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// AuthJWT 只负责认证：确认调用者是谁，不做角色判断。
// 缺少令牌、令牌无效、用户已删除都返回 401；客户端看不到具体原因。
func AuthJWT(j *auth.JWTer, users UserFinder, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			rejectToken(c, l, "missing", nil)
			resp.Abort(c, resp.CodeUnauthorized, "missing token")
			return
		}
		claims, err := j.Verify(tok)
		if err != nil {
			rejectToken(c, l, auth.Reason(err), err)
			resp.Abort(c, resp.CodeUnauthorized, "invalid token")
			return
		}
		u, err := users.FindByID(c.Request.Context(), claims.UID)
		if errors.Is(err, domain.ErrNotFound) {
			rejectToken(c, l, "unknown_subject", err)
			resp.Abort(c, resp.CodeUnauthorized, "invalid token")
			return
		}
		if err != nil {
			l.Error("resolve identity failed", zap.String("rid", c.GetString(KeyRequestID)), zap.Error(err))
			resp.Abort(c, resp.CodeServerError, "internal error")
			return
		}
		if u.Role != claims.Role {
			l.Debug("role changed since token issuance",
				zap.String("user_id", u.ID), zap.String("token_role", string(claims.Role)), zap.String("role", string(u.Role)))
		}
		c.Set(KeyUser, u)
		c.Set(KeyUserID, u.ID)
		c.Set(KeyRole, string(u.Role))
		c.Next()
	}
}

// BearerToken 解析 "Bearer <token>"；scheme 不区分大小写
func BearerToken(header string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	if tok == "" || strings.ContainsAny(tok, " \t") {
		return "", false
	}
	return tok, true
}

// CurrentUser 未经过网关时返回 nil
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(KeyUser)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

func rejectToken(c *gin.Context, l *zap.Logger, reason string, err error) {
	tokenRejections.WithLabelValues(reason).Inc()
	fields := []zap.Field{
		zap.String("rid", c.GetString(KeyRequestID)),
		zap.String("reason", reason),
		zap.String("path", c.FullPath()),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.Info("token rejected", fields...)
}
