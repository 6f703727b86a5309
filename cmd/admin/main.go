package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go-gin-gorm-auth/internal/app"
	"go-gin-gorm-auth/internal/core/config"
	"go-gin-gorm-auth/internal/core/logger"
	"go-gin-gorm-auth/internal/core/server"
	"go-gin-gorm-auth/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	log, cleanup := newLogger(cfg)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	c, closeDeps, err := app.Build(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("init failed", zap.Error(err))
	}
	defer closeDeps()

	// 初始管理员：只在存储为空时创建
	bctx, bcancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := c.Bootstrap(bctx); err != nil {
		bcancel()
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	bcancel()

	// 路由（后台端）
	r := router.NewAdminEngine(c.Deps(cfg.App.Admin), c.Registry)

	// HTTP Server
	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.Admin.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.Admin.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.Admin.IdleTimeoutSec)*time.Second,
	)

	// 启动前打印可点击地址
	host4human := cfg.App.Admin.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	// 异步启动；失败立即标红退出
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin api start FAILED", zap.Error(err))
		}
	}()
	log.Info("admin api started SUCCESS")

	// 关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("admin api stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, func()) {
	if cfg.Log.Rotate.Enable {
		rot := cfg.Log.Rotate
		return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
			Filename:   rot.Filename,
			MaxSizeMB:  rot.MaxSizeMB,
			MaxBackups: rot.MaxBackups,
			MaxAgeDays: rot.MaxAgeDays,
			Compress:   rot.Compress,
		})
	}
	return logger.New(cfg.Log.Level, cfg.Log.JSON)
}
