package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/internal/service"
	httpez "go-gin-gorm-auth/internal/transport/http/ez"
)

var adminOnly = []domain.Role{domain.RoleAdmin}

type AdminHandler struct {
	svc *service.UserService
	log *zap.Logger
}

func NewAdminHandler(svc *service.UserService, l *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: l}
}

type roleIn struct {
	Role string `json:"role"`
}

type idOut struct {
	ID string `json:"id"`
}

func (h *AdminHandler) MountAdmin(admin *gin.RouterGroup) {
	ez := httpez.New(admin, h.log)

	// POST /admin/v1/create-admin
	httpez.RegisterAction(ez, httpez.Action[domain.Credentials, *domain.User]{
		Method: http.MethodPost,
		Path:   "/create-admin",
		Binder: httpez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, actor *domain.User, in *domain.Credentials) (*domain.User, error) {
			return h.svc.CreateAdmin(c.Request.Context(), actor, *in)
		},
	})

	// DELETE /admin/v1/delete-user/:id
	httpez.RegisterAction(ez, httpez.Action[struct{}, idOut]{
		Method: http.MethodDelete,
		Path:   "/delete-user/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, actor *domain.User, _ *struct{}) (idOut, error) {
			id := c.Param("id")
			if err := h.svc.Delete(c.Request.Context(), actor, id); err != nil {
				return idOut{}, err
			}
			return idOut{ID: id}, nil
		},
	})

	// PUT /admin/v1/users/:id/role
	httpez.RegisterAction(ez, httpez.Action[roleIn, *domain.User]{
		Method: http.MethodPut,
		Path:   "/users/:id/role",
		Binder: httpez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, actor *domain.User, in *roleIn) (*domain.User, error) {
			return h.svc.SetRole(c.Request.Context(), actor, c.Param("id"), in.Role)
		},
	})

	// GET /admin/v1/users?limit=&page=
	httpez.RegisterAction(ez, httpez.Action[domain.PageRequest, domain.Page]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, actor *domain.User, in *domain.PageRequest) (domain.Page, error) {
			return h.svc.List(c.Request.Context(), actor, in.WithDefaults())
		},
	})
}
