package ez

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-auth/internal/core/auth"
	"go-gin-gorm-auth/internal/domain"
	mdw "go-gin-gorm-auth/internal/transport/http/middleware"
	resp "go-gin-gorm-auth/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定（未知字段报错）
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method string // "GET" | "POST" | "PUT" | "DELETE"
	Path   string // 例："/auth/login"、"/delete-user/:id"
	Binder Binder
	Auth   bool          // 是否要求已通过网关
	Roles  []domain.Role // 授权：满足其一即可；空表示只要求登录
	Status int           // 成功时的 HTTP 状态，默认 200
	Use    []gin.HandlerFunc
	// Handler 拿到的 actor 在 Auth=false 时为 nil
	Handler func(c *gin.Context, actor *domain.User, in *I) (O, error)
}

// RegisterAction 顺序固定：认证 → 授权 → 绑定 → 执行 → 错误映射
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色；网关必须已经解析出身份
		var actor *domain.User
		if a.Auth {
			actor = mdw.CurrentUser(c)
			if err := auth.AuthorizeAny(actor, a.Roles...); err != nil {
				e.fail(c, err)
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			e.fail(c, bindError(bindErr))
			return
		}

		// 3) 执行
		out, err := a.Handler(c, actor, &in)

		// 4) 统一错误映射
		if err != nil {
			e.fail(c, err)
			return
		}
		resp.Success(c, a.Status, out)
	}

	handlers := append(append([]gin.HandlerFunc{}, a.Use...), h)
	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, handlers...)
	case http.MethodPut:
		e.g.PUT(a.Path, handlers...)
	case http.MethodDelete:
		e.g.DELETE(a.Path, handlers...)
	default: // 默认 POST
		e.g.POST(a.Path, handlers...)
	}
}

// CodeOf 错误分类 → 响应码
func CodeOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return resp.CodeBadRequest
	case domain.KindAuthentication:
		return resp.CodeUnauthorized
	case domain.KindAuthorization:
		return resp.CodeForbidden
	case domain.KindNotFound:
		return resp.CodeNotFound
	case domain.KindConflict:
		return resp.CodeConflict
	default:
		return resp.CodeServerError
	}
}

func (e EZ) fail(c *gin.Context, err error) {
	code := CodeOf(err)
	if code == resp.CodeServerError {
		e.log.Error("request failed",
			zap.String("rid", c.GetString(mdw.KeyRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	_ = c.Error(err)
	resp.Abort(c, code, domain.PublicMessage(err))
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.Validation("request body too large")
	}
	if errors.Is(err, io.EOF) {
		return domain.Validation("request body required")
	}
	return domain.Validation("invalid request: %s", err.Error())
}
