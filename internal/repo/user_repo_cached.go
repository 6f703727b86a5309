package repo

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"go-gin-gorm-auth/internal/core/cache"
	"go-gin-gorm-auth/internal/domain"
)

// CachedUserRepo 给网关的按 ID 查询加一层 redis 缓存。
// 缓存 key 带每个用户的版本号；写操作后 bump 版本，
// 写之前开始的回源即使晚于失效完成，也只会落到旧版本 key 上，删除的用户不会被缓存继续放行。
type CachedUserRepo struct {
	domain.UserRepository
	c   *cache.Cache
	ttl time.Duration
	log *zap.Logger
}

var _ domain.UserRepository = (*CachedUserRepo)(nil)

func NewCachedUserRepo(inner domain.UserRepository, c *cache.Cache, ttl time.Duration, l *zap.Logger) *CachedUserRepo {
	return &CachedUserRepo{UserRepository: inner, c: c, ttl: ttl, log: l}
}

// cachedUser 缓存里的形态；domain.User 的 JSON 不带摘要
type cachedUser struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Handle       string      `json:"handle"`
	SecretDigest string      `json:"digest"`
	Role         domain.Role `json:"role"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func userKey(id string, ver int64) string { return "user:id:" + id + ":v" + strconv.FormatInt(ver, 10) }

func versionKey(id string) string { return "user:ver:" + id }

func (r *CachedUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	ver, err := r.c.Version(ctx, versionKey(id))
	if err != nil {
		// 版本读不到就不敢用缓存
		r.log.Warn("user cache version read failed", zap.String("user_id", id), zap.Error(err))
		return r.UserRepository.FindByID(ctx, id)
	}
	cu, err := cache.GetOrLoadJSON(r.c, ctx, userKey(id, ver), r.ttl, func(ctx context.Context) (*cachedUser, error) {
		u, err := r.UserRepository.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &cachedUser{
			ID: u.ID, Name: u.Name, Handle: u.Handle, SecretDigest: u.SecretDigest,
			Role: u.Role, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if cu == nil {
		return nil, domain.ErrNotFound
	}
	return &domain.User{
		ID: cu.ID, Name: cu.Name, Handle: cu.Handle, SecretDigest: cu.SecretDigest,
		Role: cu.Role, CreatedAt: cu.CreatedAt, UpdatedAt: cu.UpdatedAt,
	}, nil
}

func (r *CachedUserRepo) Update(ctx context.Context, id string, ch domain.Changes) (*domain.User, error) {
	u, err := r.UserRepository.Update(ctx, id, ch)
	r.invalidate(ctx, id)
	return u, err
}

func (r *CachedUserRepo) Delete(ctx context.Context, id string) error {
	err := r.UserRepository.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

// 失效失败只记日志：最坏情况是 ttl 内的陈旧数据
func (r *CachedUserRepo) invalidate(ctx context.Context, id string) {
	if err := r.c.Bump(context.WithoutCancel(ctx), versionKey(id)); err != nil {
		r.log.Warn("user cache invalidate failed", zap.String("user_id", id), zap.Error(err))
	}
}
