package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/internal/feature/user"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserRepository = (*UserRepo)(nil)

// Migrate 建表 + 唯一索引
func (r *UserRepo) Migrate() error { return r.db.AutoMigrate(&user.UserModel{}) }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	m := user.FromDomain(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.CreatedAt, u.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) FindByHandle(ctx context.Context, handle string) (*domain.User, error) {
	return r.first(ctx, "username = ?", handle)
}

func (r *UserRepo) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return m.ToDomain(), nil
}

func (r *UserRepo) Update(ctx context.Context, id string, ch domain.Changes) (*domain.User, error) {
	if !ch.Empty() {
		err := r.db.WithContext(ctx).Model(&user.UserModel{}).Where("id = ?", id).Updates(user.Columns(ch)).Error
		if err != nil {
			if isDupKey(err) {
				return nil, domain.ErrConflict
			}
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	// 回读：记录不存在时返回 ErrNotFound
	return r.FindByID(ctx, id)
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&user.UserModel{})
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&user.UserModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	var ms []user.UserModel
	err := r.db.WithContext(ctx).
		Order("created_at ASC").Order("id ASC").
		Limit(limit).Offset(offset).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]domain.User, 0, len(ms))
	for _, m := range ms {
		out = append(out, *m.ToDomain())
	}
	return out, nil
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 未开启 TranslateError 的兜底
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
