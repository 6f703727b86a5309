package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-gin-gorm-auth/internal/core/auth"
	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/pkg/utils"
)

// UserService 注册 / 登录 / 自助更新 / 管理操作的编排层。
// 管理操作自己再做一次授权检查，不依赖路由是否配置了角色。
type UserService struct {
	repo   domain.UserRepository
	hasher *auth.Hasher
	tokens *auth.JWTer
	log    *zap.Logger
	newID  func() string
}

func NewUserService(repo domain.UserRepository, hasher *auth.Hasher, tokens *auth.JWTer, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{repo: repo, hasher: hasher, tokens: tokens, log: l, newID: utils.NewID}
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// Register 自助注册，角色固定为 user
func (s *UserService) Register(ctx context.Context, in domain.Credentials) (*domain.User, error) {
	return s.create(ctx, in, domain.RoleUser)
}

// CreateAdmin 仅 admin 可调用，角色固定为 admin
func (s *UserService) CreateAdmin(ctx context.Context, actor *domain.User, in domain.Credentials) (*domain.User, error) {
	if err := auth.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	u, err := s.create(ctx, in, domain.RoleAdmin)
	if err == nil {
		s.log.Info("admin created", zap.String("by", actor.ID), zap.String("user_id", u.ID))
	}
	return u, err
}

func (s *UserService) create(ctx context.Context, in domain.Credentials, role domain.Role) (*domain.User, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	digest, err := s.hasher.Hash(ctx, in.Secret)
	if err != nil {
		return nil, domain.Internal("hash password", err)
	}
	u := &domain.User{
		ID:           s.newID(),
		Name:         in.Name,
		Handle:       in.Handle,
		SecretDigest: digest,
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, storeErr("create user", err)
	}
	return u, nil
}

// Login 用户不存在与密码错误返回同一个错误
func (s *UserService) Login(ctx context.Context, handle, secret string) (*LoginResult, error) {
	// 与注册时的 Normalize 保持一致
	handle = strings.TrimSpace(handle)
	if handle == "" || secret == "" {
		return nil, domain.Validation("missing required fields: username, password")
	}
	u, err := s.repo.FindByHandle(ctx, handle)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.hasher.VerifyDummy(ctx, secret)
		s.log.Info("login rejected", zap.String("reason", "unknown_handle"))
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		return nil, domain.Internal("find user", err)
	}
	if !s.hasher.Verify(ctx, secret, u.SecretDigest) {
		if ctx.Err() != nil {
			return nil, domain.Internal("verify password", ctx.Err())
		}
		s.log.Info("login rejected", zap.String("reason", "bad_secret"), zap.String("user_id", u.ID))
		return nil, domain.ErrInvalidCredentials
	}
	tok, exp, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, domain.Internal("issue token", err)
	}
	return &LoginResult{Token: tok, ExpiresAt: exp, User: u}, nil
}

// UpdateSelf 只能改 name / username / password；密码改动时重新哈希
func (s *UserService) UpdateSelf(ctx context.Context, actor *domain.User, p domain.UserPatch) (*domain.User, error) {
	if err := auth.Authorize(actor, domain.RoleUser); err != nil {
		return nil, err
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ch := domain.Changes{Name: p.Name, Handle: p.Handle}
	if p.Secret != nil {
		digest, err := s.hasher.Hash(ctx, *p.Secret)
		if err != nil {
			return nil, domain.Internal("hash password", err)
		}
		ch.SecretDigest = &digest
	}
	u, err := s.repo.Update(ctx, actor.ID, ch)
	if err != nil {
		return nil, storeErr("update user", err)
	}
	return u, nil
}

// SetRole 角色变更只走管理端
func (s *UserService) SetRole(ctx context.Context, actor *domain.User, id, role string) (*domain.User, error) {
	if err := auth.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if role == "" {
		return nil, domain.Validation("missing required fields: role")
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Update(ctx, id, domain.Changes{Role: &r})
	if err != nil {
		return nil, storeErr("set role", err)
	}
	s.log.Info("role changed", zap.String("by", actor.ID), zap.String("user_id", id), zap.String("role", string(r)))
	return u, nil
}

// Delete 物理删除；已签发的令牌会在网关回查时被拒
func (s *UserService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := auth.Authorize(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if id == "" {
		return domain.Validation("missing user id")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr("delete user", err)
	}
	s.log.Info("user deleted", zap.String("by", actor.ID), zap.String("user_id", id))
	return nil
}

// List 分页参数不合法时不访问存储
func (s *UserService) List(ctx context.Context, actor *domain.User, req domain.PageRequest) (domain.Page, error) {
	if err := auth.Authorize(actor, domain.RoleUser); err != nil {
		return domain.Page{}, err
	}
	if err := req.Validate(); err != nil {
		return domain.Page{}, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return domain.Page{}, domain.Internal("count users", err)
	}
	users, err := s.repo.List(ctx, req.Limit, req.Offset())
	if err != nil {
		return domain.Page{}, domain.Internal("list users", err)
	}
	return domain.NewPage(req, total, users), nil
}

// Bootstrap 存储为空时创建初始管理员；已有数据则什么都不做
func (s *UserService) Bootstrap(ctx context.Context, in domain.Credentials) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, domain.Internal("count users", err)
	}
	if n > 0 {
		return false, nil
	}
	u, err := s.create(ctx, in, domain.RoleAdmin)
	if err != nil {
		return false, err
	}
	s.log.Info("bootstrap admin created", zap.String("user_id", u.ID), zap.String("username", u.Handle))
	return true, nil
}

// storeErr 保留 NotFound / Conflict，其余归为 Internal
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
		return err
	}
	return domain.Internal(op, err)
}
