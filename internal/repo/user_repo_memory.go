package repo

import (
	"context"
	"sync"
	"time"

	"go-gin-gorm-auth/internal/domain"
)

// MemoryUserRepo 进程内实现：db.driver=memory 时使用，也用于测试
type MemoryUserRepo struct {
	mu       sync.RWMutex
	byID     map[string]*domain.User
	byHandle map[string]string
	order    []string
	now      func() time.Time
}

var _ domain.UserRepository = (*MemoryUserRepo)(nil)

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:     map[string]*domain.User{},
		byHandle: map[string]string{},
		now:      time.Now,
	}
}

func (r *MemoryUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byHandle[u.Handle]; ok {
		return domain.ErrConflict
	}
	if _, ok := r.byID[u.ID]; ok {
		return domain.ErrConflict
	}
	now := r.now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	r.byID[u.ID] = &cp
	r.byHandle[u.Handle] = u.ID
	r.order = append(r.order, u.ID)
	return nil
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepo) FindByHandle(ctx context.Context, handle string) (*domain.User, error) {
	r.mu.RLock()
	id, ok := r.byHandle[handle]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *MemoryUserRepo) Update(_ context.Context, id string, ch domain.Changes) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if ch.Handle != nil && *ch.Handle != u.Handle {
		if _, taken := r.byHandle[*ch.Handle]; taken {
			return nil, domain.ErrConflict
		}
		delete(r.byHandle, u.Handle)
		r.byHandle[*ch.Handle] = id
	}
	ch.Apply(u)
	if !ch.Empty() {
		u.UpdatedAt = r.now()
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byHandle, u.Handle)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryUserRepo) Count(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.order)), nil
}

func (r *MemoryUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.User{}
	if offset >= len(r.order) || limit <= 0 {
		return out, nil
	}
	end := offset + limit
	if end > len(r.order) {
		end = len(r.order)
	}
	for _, id := range r.order[offset:end] {
		out = append(out, *r.byID[id])
	}
	return out, nil
}
