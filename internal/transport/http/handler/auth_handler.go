package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/internal/service"
	httpez "go-gin-gorm-auth/internal/transport/http/ez"
)

// AuthHandler 公共接口：注册、登录
type AuthHandler struct {
	svc        *service.UserService
	log        *zap.Logger
	loginLimit gin.HandlerFunc
}

// loginLimit 为 nil 时登录不单独限速
func NewAuthHandler(svc *service.UserService, l *zap.Logger, loginLimit gin.HandlerFunc) *AuthHandler {
	return &AuthHandler{svc: svc, log: l, loginLimit: loginLimit}
}

func (h *AuthHandler) Priority() int { return 10 }

type loginIn struct {
	Handle string `json:"username"`
	Secret string `json:"password"`
}

func (h *AuthHandler) MountAPI(public, _ *gin.RouterGroup) {
	ez := httpez.New(public, h.log)

	// POST /api/v1/auth/register
	httpez.RegisterAction(ez, httpez.Action[domain.Credentials, *domain.User]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *domain.User, in *domain.Credentials) (*domain.User, error) {
			return h.svc.Register(c.Request.Context(), *in)
		},
	})

	var use []gin.HandlerFunc
	if h.loginLimit != nil {
		use = append(use, h.loginLimit)
	}
	// POST /api/v1/auth/login
	httpez.RegisterAction(ez, httpez.Action[loginIn, *service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Use:    use,
		Handler: func(c *gin.Context, _ *domain.User, in *loginIn) (*service.LoginResult, error) {
			return h.svc.Login(c.Request.Context(), in.Handle, in.Secret)
		},
	})
}
