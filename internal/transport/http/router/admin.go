package router

import (
	"github.com/gin-gonic/gin"

	mdw "go-gin-gorm-auth/internal/transport/http/middleware"
)

func NewAdminEngine(d Deps, reg *Registry) *gin.Engine {
	r := newEngine(d)

	// 管理端 v1：整组过网关，admin 角色由每个接口的 Roles 声明
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWT, d.Users, d.Log))

	reg.MountAllAdmin(admin)
	return r
}
