package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-gin-gorm-auth/internal/core/auth"
	"go-gin-gorm-auth/internal/core/server"
	mdw "go-gin-gorm-auth/internal/transport/http/middleware"
)

// Deps 两个引擎共用的依赖
type Deps struct {
	Log     *zap.Logger
	JWT     *auth.JWTer
	Users   mdw.UserFinder // 网关回查身份
	Timeout time.Duration  // 单请求超时，0 表示 10s
}

func newEngine(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	r := server.NewRouter(d.Log)
	r.Use(
		mdw.RequestID(),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(timeout),
	)

	// 健康检查 + 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
