package domain

import (
	"errors"
	"fmt"
)

// Kind 错误分类；传输层据此映射状态码
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindAuthorization
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error 业务错误：Msg 面向调用方，Err 只进日志
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return e.Msg + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	case e.Msg != "":
		return e.Msg
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is 同一个哨兵，或同 Kind 同 Msg 视为相等
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || (e.Kind == t.Kind && e.Msg == t.Msg)
}

var (
	ErrNotFound           = &Error{Kind: KindNotFound, Msg: "user not found"}
	ErrConflict           = &Error{Kind: KindConflict, Msg: "handle already taken"}
	ErrInvalidCredentials = &Error{Kind: KindAuthentication, Msg: "invalid credentials"}
	ErrUnauthenticated    = &Error{Kind: KindAuthentication, Msg: "unauthorized"}
	ErrForbidden          = &Error{Kind: KindAuthorization, Msg: "forbidden"}
)

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Internal 包装底层错误；对外只暴露 "internal error"
func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Msg: op, Err: err}
}

// KindOf 未分类的错误一律按 Internal 处理
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage 返回可以给客户端看的信息
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "internal error"
	}
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.String()
}
