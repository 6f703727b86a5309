package middleware

import (
	"github.com/gin-gonic/gin"

	resp "go-gin-gorm-auth/internal/transport/http/response"
)

// RecoveryResponse 交给 ginzap.CustomRecoveryWithZap：日志由 ginzap 打，这里只写统一响应
func RecoveryResponse(c *gin.Context, _ any) {
	resp.Abort(c, resp.CodeServerError, "internal error")
}
