package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/internal/service"
	httpez "go-gin-gorm-auth/internal/transport/http/ez"
)

// UserHandler 登录用户的自助接口
type UserHandler struct {
	svc *service.UserService
	log *zap.Logger
}

func NewUserHandler(svc *service.UserService, l *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: l}
}

func (h *UserHandler) MountAPI(_, authed *gin.RouterGroup) {
	ez := httpez.New(authed, h.log)

	// GET /api/v1/me
	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(_ *gin.Context, actor *domain.User, _ *struct{}) (*domain.User, error) {
			return actor, nil
		},
	})

	// PUT /api/v1/user/update  只接受 name / username / password
	httpez.RegisterAction(ez, httpez.Action[domain.UserPatch, *domain.User]{
		Method: http.MethodPut,
		Path:   "/user/update",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, actor *domain.User, in *domain.UserPatch) (*domain.User, error) {
			return h.svc.UpdateSelf(c.Request.Context(), actor, *in)
		},
	})

	// GET /api/v1/user/list?limit=&page=
	httpez.RegisterAction(ez, httpez.Action[domain.PageRequest, domain.Page]{
		Method: http.MethodGet,
		Path:   "/user/list",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, actor *domain.User, in *domain.PageRequest) (domain.Page, error) {
			return h.svc.List(c.Request.Context(), actor, in.WithDefaults())
		},
	})
}
