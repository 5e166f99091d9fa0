package auth_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	auth "github.com/goliatone/go-auth-audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIdentityStore_Seeds(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryIdentityStore(auth.SeedIdentities()...)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "admin", all[0].Username())
	assert.Equal(t, auth.RoleAdmin, all[0].Role())
	assert.Equal(t, "1", all[0].ID())
	assert.Equal(t, "user", all[1].Username())
	assert.Equal(t, auth.RoleUser, all[1].Role())
	assert.Equal(t, "2", all[1].ID())
}

func TestMemoryIdentityStore_FindByUsername(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryIdentityStore(auth.SeedIdentities()...)

	t.Run("exact match", func(t *testing.T) {
		identity, err := store.FindByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, 1, identity.IdentityID)
	})

	t.Run("case sensitive", func(t *testing.T) {
		_, err := store.FindByUsername(ctx, "Admin")
		assert.True(t, auth.IsError(err, auth.ErrIdentityNotFound))
	})

	t.Run("returned identity is a copy", func(t *testing.T) {
		identity, err := store.FindByUsername(ctx, "user")
		require.NoError(t, err)
		identity.RoleName = auth.RoleAdmin

		again, err := store.FindByUsername(ctx, "user")
		require.NoError(t, err)
		assert.Equal(t, auth.RoleUser, again.RoleName)
	})

	t.Run("first seed wins on duplicate usernames", func(t *testing.T) {
		dup := auth.NewMemoryIdentityStore(
			auth.StoredIdentity{IdentityID: 1, Name: "x", RoleName: "A"},
			auth.StoredIdentity{IdentityID: 2, Name: "x", RoleName: "B"},
		)
		identity, err := dup.FindByUsername(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, "A", identity.RoleName)
	})
}

func TestMemoryIdentityStore_Insert(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryIdentityStore(auth.SeedIdentities()...)

	created, err := store.Insert(ctx, auth.StoredIdentity{Name: "testuser", Secret: "pw", RoleName: "user"})
	require.NoError(t, err)
	assert.Equal(t, 3, created.IdentityID)

	_, err = store.Insert(ctx, auth.StoredIdentity{Name: "testuser", Secret: "other", RoleName: "user"})
	assert.True(t, auth.IsError(err, auth.ErrUsernameTaken))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryIdentityStore_ConcurrentInsert(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryIdentityStore(auth.SeedIdentities()...)

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan int, n*2)
	for i := 0; i < n; i++ {
		wg.Add(2)
		name := fmt.Sprintf("user-%d", i)
		for j := 0; j < 2; j++ {
			go func() {
				defer wg.Done()
				created, err := store.Insert(ctx, auth.StoredIdentity{Name: name, RoleName: auth.RoleUser})
				if err == nil {
					ids <- created.IdentityID
				}
			}()
		}
	}
	wg.Wait()
	close(ids)

	seen := map[int]bool{}
	for id := range ids {
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n, "exactly one insert per username succeeds")

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, n+2)
}

func TestMemoryIdentityStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := auth.NewMemoryIdentityStore()
	_, err := store.FindByUsername(ctx, "admin")
	assert.ErrorIs(t, err, context.Canceled)
}
