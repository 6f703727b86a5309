package router

import (
	"github.com/gin-gonic/gin"

	mdw "go-gin-gorm-auth/internal/transport/http/middleware"
)

func NewAPIEngine(d Deps, reg *Registry) *gin.Engine {
	r := newEngine(d)

	// 前缀
	api := r.Group("/api/v1")

	// 鉴权分组（/me 等必须挂这里，才能拿到当前用户）
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWT, d.Users, d.Log))

	reg.MountAllAPI(api, authed)
	return r
}
