package domain

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// ParseRole 空串按默认 user 处理
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleUser, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", Validation("invalid role %q: use user or admin", s)
	}
	return r, nil
}

const (
	MaxNameLen   = 64
	MaxHandleLen = 64
	// bcrypt 只处理前 72 字节，超出的直接拒绝
	MaxSecretBytes = 72
)

// User 身份实体；SecretDigest 永远不出现在 JSON 里
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Handle       string    `json:"username"`
	SecretDigest string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Credentials 注册 / 管理员创建的输入
type Credentials struct {
	Name   string `json:"name"`
	Handle string `json:"username"`
	Secret string `json:"password"`
}

func (c *Credentials) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Handle = strings.TrimSpace(c.Handle)
}

// Validate 缺失字段一次性全部报告
func (c Credentials) Validate() error {
	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.Handle == "" {
		missing = append(missing, "username")
	}
	if c.Secret == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	if err := validateName(c.Name); err != nil {
		return err
	}
	if err := validateHandle(c.Handle); err != nil {
		return err
	}
	return validateSecret(c.Secret)
}

// UserPatch 自助更新允许修改的字段白名单；nil 表示不修改，不含 role
type UserPatch struct {
	Name   *string `json:"name,omitempty"`
	Handle *string `json:"username,omitempty"`
	Secret *string `json:"password,omitempty"`
}

func (p UserPatch) Empty() bool { return p.Name == nil && p.Handle == nil && p.Secret == nil }

func (p *UserPatch) Normalize() {
	if p.Name != nil {
		s := strings.TrimSpace(*p.Name)
		p.Name = &s
	}
	if p.Handle != nil {
		s := strings.TrimSpace(*p.Handle)
		p.Handle = &s
	}
}

func (p UserPatch) Validate() error {
	if p.Empty() {
		return Validation("nothing to update: provide name, username or password")
	}
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Handle != nil {
		if err := validateHandle(*p.Handle); err != nil {
			return err
		}
	}
	if p.Secret != nil {
		if err := validateSecret(*p.Secret); err != nil {
			return err
		}
	}
	return nil
}

// Changes 是仓储层真正写入的内容：明文已被替换为摘要
type Changes struct {
	Name         *string
	Handle       *string
	SecretDigest *string
	Role         *Role
}

func (c Changes) Empty() bool {
	return c.Name == nil && c.Handle == nil && c.SecretDigest == nil && c.Role == nil
}

// Apply 内存实现和缓存失效共用
func (c Changes) Apply(u *User) {
	if c.Name != nil {
		u.Name = *c.Name
	}
	if c.Handle != nil {
		u.Handle = *c.Handle
	}
	if c.SecretDigest != nil {
		u.SecretDigest = *c.SecretDigest
	}
	if c.Role != nil {
		u.Role = *c.Role
	}
}

func validateName(s string) error {
	if s == "" {
		return Validation("name must not be empty")
	}
	if utf8.RuneCountInString(s) > MaxNameLen {
		return Validation("name must be at most %d characters", MaxNameLen)
	}
	return nil
}

func validateHandle(s string) error {
	if s == "" {
		return Validation("username must not be empty")
	}
	if utf8.RuneCountInString(s) > MaxHandleLen {
		return Validation("username must be at most %d characters", MaxHandleLen)
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return Validation("username must not contain whitespace")
	}
	return nil
}

func validateSecret(s string) error {
	if s == "" {
		return Validation("password must not be empty")
	}
	if len(s) > MaxSecretBytes {
		return Validation("password must be at most %d bytes", MaxSecretBytes)
	}
	return nil
}

// UserRepository 存储边界；handle 唯一性由存储保证
//
// 约定：找不到返回 ErrNotFound，handle 冲突返回 ErrConflict。
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByHandle(ctx context.Context, handle string) (*User, error)
	Update(ctx context.Context, id string, ch Changes) (*User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	// List 按创建顺序返回
	List(ctx context.Context, limit, offset int) ([]User, error)
}
