package auth

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"

	"go-gin-gorm-auth/pkg/utils"
)

// Hasher 包装 bcrypt；用加权信号量限制同时运行的哈希数量，
// 避免登录/注册突发时占满所有 CPU
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
	// 与真实摘要同 cost，供 VerifyDummy 比对
	dummy string
}

// NewHasher workers<=0 时取 GOMAXPROCS
func NewHasher(cost, workers int) (*Hasher, error) {
	if !utils.ValidPasswordCost(cost) {
		return nil, fmt.Errorf("invalid bcrypt cost %d", cost)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	dummy, err := utils.HashPassword("dummy-password-for-timing", cost)
	if err != nil {
		return nil, fmt.Errorf("build dummy digest: %w", err)
	}
	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(workers)), dummy: dummy}, nil
}

func (h *Hasher) Cost() int { return h.cost }

func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hash worker: %w", err)
	}
	defer h.sem.Release(1)
	return utils.HashPassword(plain, h.cost)
}

// Verify 上下文取消或摘要格式错误都返回 false
func (h *Hasher) Verify(ctx context.Context, plain, digest string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)
	return utils.CheckPassword(plain, digest)
}

// VerifyDummy 用户不存在时也付出一次比对的代价，防止按耗时枚举用户名
func (h *Hasher) VerifyDummy(ctx context.Context, plain string) {
	_ = h.Verify(ctx, plain, h.dummy)
}
