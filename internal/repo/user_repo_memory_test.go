package repo

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gin-gorm-auth/internal/domain"
)

func newUser(id, handle string) *domain.User {
	return &domain.User{ID: id, Name: "Name " + handle, Handle: handle, SecretDigest: "digest", Role: domain.RoleUser}
}

// runRepoContract 所有 UserRepository 实现共用的行为约定
func runRepoContract(t *testing.T, newRepo func(t *testing.T) domain.UserRepository) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		r := newRepo(t)
		require.NoError(t, r.Create(ctx, newUser("1", "ana")))

		u, err := r.FindByHandle(ctx, "ana")
		require.NoError(t, err)
		assert.Equal(t, "1", u.ID)
		assert.False(t, u.CreatedAt.IsZero())

		u, err = r.FindByID(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "ana", u.Handle)

		_, err = r.FindByHandle(ctx, "ANA")
		assert.ErrorIs(t, err, domain.ErrNotFound, "handles are case-sensitive")
	})

	t.Run("duplicate handle conflicts and persists nothing", func(t *testing.T) {
		r := newRepo(t)
		require.NoError(t, r.Create(ctx, newUser("1", "ana")))
		err := r.Create(ctx, newUser("2", "ana"))
		assert.ErrorIs(t, err, domain.ErrConflict)

		_, err = r.FindByID(ctx, "2")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		n, err := r.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("update", func(t *testing.T) {
		r := newRepo(t)
		require.NoError(t, r.Create(ctx, newUser("1", "ana")))
		require.NoError(t, r.Create(ctx, newUser("2", "bob")))

		name := "Ana Maria"
		u, err := r.Update(ctx, "1", domain.Changes{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Ana Maria", u.Name)
		assert.Equal(t, "ana", u.Handle)

		taken := "bob"
		_, err = r.Update(ctx, "1", domain.Changes{Handle: &taken})
		assert.ErrorIs(t, err, domain.ErrConflict)

		fresh := "ana2"
		_, err = r.Update(ctx, "1", domain.Changes{Handle: &fresh})
		require.NoError(t, err)
		_, err = r.FindByHandle(ctx, "ana")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		u, err = r.FindByHandle(ctx, "ana2")
		require.NoError(t, err)
		assert.Equal(t, "1", u.ID)

		_, err = r.Update(ctx, "missing", domain.Changes{Name: &name})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete is final", func(t *testing.T) {
		r := newRepo(t)
		require.NoError(t, r.Create(ctx, newUser("1", "ana")))
		_, err := r.FindByID(ctx, "1")
		require.NoError(t, err)

		require.NoError(t, r.Delete(ctx, "1"))
		_, err = r.FindByID(ctx, "1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, r.Delete(ctx, "1"), domain.ErrNotFound)

		// handle 可以被重新注册
		require.NoError(t, r.Create(ctx, newUser("3", "ana")))
	})

	t.Run("list keeps creation order", func(t *testing.T) {
		r := newRepo(t)
		for i := 0; i < 12; i++ {
			require.NoError(t, r.Create(ctx, newUser(fmt.Sprintf("id-%02d", i), fmt.Sprintf("h%02d", i))))
		}
		first, err := r.List(ctx, 10, 0)
		require.NoError(t, err)
		second, err := r.List(ctx, 10, 10)
		require.NoError(t, err)
		assert.Len(t, first, 10)
		assert.Len(t, second, 2)
		assert.Equal(t, "h00", first[0].Handle)
		assert.Equal(t, "h10", second[0].Handle)

		empty, err := r.List(ctx, 10, 50)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestMemoryUserRepo(t *testing.T) {
	runRepoContract(t, func(*testing.T) domain.UserRepository { return NewMemoryUserRepo() })
}

func TestMemoryUserRepo_ReturnsCopies(t *testing.T) {
	r := NewMemoryUserRepo()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, newUser("1", "ana")))
	u, err := r.FindByID(ctx, "1")
	require.NoError(t, err)
	u.Role = domain.RoleAdmin

	again, err := r.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, again.Role)
}

func TestMemoryUserRepo_ConcurrentSameHandle(t *testing.T) {
	r := NewMemoryUserRepo()
	ctx := context.Background()
	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- r.Create(ctx, newUser(fmt.Sprint(i), "same"))
		}(i)
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, domain.ErrConflict)
		}
	}
	assert.Equal(t, 1, ok)
}
