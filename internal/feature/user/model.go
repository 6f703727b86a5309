package user

import (
	"time"

	"go-gin-gorm-auth/internal/domain"
)

// UserModel users 表；删除为物理删除，不带 DeletedAt
type UserModel struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Name         string `gorm:"size:64;not null"`
	Handle       string `gorm:"column:username;uniqueIndex:idx_users_username;size:64;not null"`
	PasswordHash string `gorm:"size:100;not null"`
	Role         string `gorm:"size:16;not null;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

func (m UserModel) ToDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Handle:       m.Handle,
		SecretDigest: m.PasswordHash,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func FromDomain(u *domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Handle:       u.Handle,
		PasswordHash: u.SecretDigest,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// Columns 把 Changes 转成 gorm Updates 用的列映射
func Columns(ch domain.Changes) map[string]any {
	cols := map[string]any{}
	if ch.Name != nil {
		cols["name"] = *ch.Name
	}
	if ch.Handle != nil {
		cols["username"] = *ch.Handle
	}
	if ch.SecretDigest != nil {
		cols["password_hash"] = *ch.SecretDigest
	}
	if ch.Role != nil {
		cols["role"] = string(*ch.Role)
	}
	return cols
}
