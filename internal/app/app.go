// Package app 组装两个入口（cmd/api、cmd/admin）共用的依赖。
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"go-gin-gorm-auth/internal/core/auth"
	"go-gin-gorm-auth/internal/core/cache"
	"go-gin-gorm-auth/internal/core/config"
	"go-gin-gorm-auth/internal/core/database"
	"go-gin-gorm-auth/internal/core/logger"
	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/internal/repo"
	"go-gin-gorm-auth/internal/service"
	"go-gin-gorm-auth/internal/transport/http/handler"
	mdw "go-gin-gorm-auth/internal/transport/http/middleware"
	"go-gin-gorm-auth/internal/transport/http/router"
)

type Container struct {
	Cfg      *config.Config
	Log      *zap.Logger
	JWT      *auth.JWTer
	Hasher   *auth.Hasher
	Users    domain.UserRepository
	Service  *service.UserService
	Registry *router.Registry
}

// Build 按配置创建存储、令牌、哈希与服务；返回的 cleanup 关闭 DB / Redis
func Build(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	jwter, err := auth.NewJWTer(cfg.JWT.Secret, cfg.JWT.Issuer,
		time.Duration(cfg.JWT.AccessTokenTTLMin)*time.Minute,
		time.Duration(cfg.JWT.LeewaySec)*time.Second)
	if err != nil {
		return nil, cleanup, err
	}
	hasher, err := auth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.HashWorkers)
	if err != nil {
		return nil, cleanup, err
	}

	users, closeStore, err := openStore(cfg, l)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, closeStore)

	// 身份缓存（可选）：网关每个请求都要回查用户
	if cfg.Redis.Addr != "" {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := c.Ping(ctx); err != nil {
			_ = c.Close()
			return nil, cleanup, fmt.Errorf("redis ping: %w", err)
		}
		closers = append(closers, func() { _ = c.Close() })
		users = repo.NewCachedUserRepo(users, c, time.Duration(cfg.Redis.IdentityCacheSec)*time.Second, l)
		l.Info("identity cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	svc := service.NewUserService(users, hasher, jwter, l)

	loginLimit := mdw.RateLimitPerIP(rate.Limit(cfg.Auth.LoginRPS), max(1, cfg.Auth.LoginBurst))
	reg := router.NewRegistry(
		handler.NewAuthHandler(svc, l, loginLimit),
		handler.NewUserHandler(svc, l),
		handler.NewAdminHandler(svc, l),
	)

	return &Container{
		Cfg: cfg, Log: l, JWT: jwter, Hasher: hasher,
		Users: users, Service: svc, Registry: reg,
	}, cleanup, nil
}

func openStore(cfg *config.Config, l *zap.Logger) (domain.UserRepository, func(), error) {
	if cfg.DB.Driver == "memory" {
		l.Warn("using in-memory user store; data is lost on restart")
		return repo.NewMemoryUserRepo(), func() {}, nil
	}
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		LogWriter:          logger.ToWriter(l.Named("gorm"), zapcore.WarnLevel),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("db open: %w", err)
	}
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))

	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	r := repo.NewUserRepo(db)
	if cfg.DB.AutoMigrate {
		if err := r.Migrate(); err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("automigrate: %w", err)
		}
		l.Info("automigrate done")
	}
	return r, closeDB, nil
}

func (c *Container) Deps(h config.HTTP) router.Deps {
	return router.Deps{
		Log:     c.Log,
		JWT:     c.JWT,
		Users:   c.Users,
		Timeout: time.Duration(h.RequestTimeoutSec) * time.Second,
	}
}

// Bootstrap 配置了初始管理员且存储为空时创建
func (c *Container) Bootstrap(ctx context.Context) error {
	b := c.Cfg.Bootstrap
	if !b.Enabled() {
		return nil
	}
	created, err := c.Service.Bootstrap(ctx, domain.Credentials{
		Name: b.AdminName, Handle: b.AdminUsername, Secret: b.AdminPassword,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if !created {
		c.Log.Info("bootstrap skipped: store not empty")
	}
	return nil
}
