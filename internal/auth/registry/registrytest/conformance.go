// Package registrytest holds the driver conformance suite. Every registry
// driver must pass it; the per-driver test files only provide a constructor.
package registrytest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sentinelhq/gatekeep/internal/auth/registry"
	"github.com/sentinelhq/gatekeep/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty registry for each subtest.
type Factory func(t *testing.T) registry.Registry

// Run exercises the full Registry contract against the given driver.
func Run(t *testing.T, newRegistry Factory) {
	t.Helper()
	ctx := context.Background()

	entry := func(identity string) registry.Entry {
		tid, err := cryptox.GenerateToken(cryptox.TokenSize256)
		require.NoError(t, err)
		return registry.Entry{
			TokenID:   tid,
			Identity:  identity,
			CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		}
	}

	t.Run("register then lookup", func(t *testing.T) {
		r := newRegistry(t)
		e := entry("alice")

		require.NoError(t, r.Register(ctx, e))

		got, err := r.Lookup(ctx, e.TokenID)
		require.NoError(t, err)
		require.Equal(t, e.TokenID, got.TokenID)
		require.Equal(t, "alice", got.Identity)
	})

	t.Run("lookup of unknown id fails", func(t *testing.T) {
		r := newRegistry(t)

		_, err := r.Lookup(ctx, "no-such-id")
		require.ErrorIs(t, err, registry.ErrNotFound)
	})

	t.Run("register rejects duplicate id", func(t *testing.T) {
		r := newRegistry(t)
		e := entry("alice")

		require.NoError(t, r.Register(ctx, e))
		require.ErrorIs(t, r.Register(ctx, e), registry.ErrDuplicateID)
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		r := newRegistry(t)
		e := entry("alice")
		require.NoError(t, r.Register(ctx, e))

		require.NoError(t, r.Revoke(ctx, e.TokenID))
		require.NoError(t, r.Revoke(ctx, e.TokenID)) // second time is a no-op

		_, err := r.Lookup(ctx, e.TokenID)
		require.ErrorIs(t, err, registry.ErrNotFound)
	})

	t.Run("rotate retires old id and registers new", func(t *testing.T) {
		r := newRegistry(t)
		old := entry("alice")
		require.NoError(t, r.Register(ctx, old))

		next := entry("alice")
		require.NoError(t, r.Rotate(ctx, old.TokenID, "alice", next))

		_, err := r.Lookup(ctx, old.TokenID)
		require.ErrorIs(t, err, registry.ErrNotFound)

		got, err := r.Lookup(ctx, next.TokenID)
		require.NoError(t, err)
		require.Equal(t, "alice", got.Identity)
	})

	t.Run("rotate of spent id fails", func(t *testing.T) {
		r := newRegistry(t)
		old := entry("alice")
		require.NoError(t, r.Register(ctx, old))
		require.NoError(t, r.Rotate(ctx, old.TokenID, "alice", entry("alice")))

		err := r.Rotate(ctx, old.TokenID, "alice", entry("alice"))
		require.ErrorIs(t, err, registry.ErrNotFound)
	})

	t.Run("rotate checks ownership", func(t *testing.T) {
		r := newRegistry(t)
		e := entry("alice")
		require.NoError(t, r.Register(ctx, e))

		err := r.Rotate(ctx, e.TokenID, "mallory", entry("mallory"))
		require.ErrorIs(t, err, registry.ErrNotFound)

		// Alice's entry is untouched.
		_, err = r.Lookup(ctx, e.TokenID)
		require.NoError(t, err)
	})

	t.Run("concurrent rotation has exactly one winner", func(t *testing.T) {
		r := newRegistry(t)
		old := entry("alice")
		require.NoError(t, r.Register(ctx, old))

		const attempts = 16
		results := make([]error, attempts)

		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = r.Rotate(ctx, old.TokenID, "alice", entry("alice"))
			}(i)
		}
		wg.Wait()

		var wins, losses int
		for _, err := range results {
			switch {
			case err == nil:
				wins++
			default:
				require.ErrorIs(t, err, registry.ErrNotFound)
				losses++
			}
		}
		require.Equal(t, 1, wins, "exactly one concurrent rotation may win")
		require.Equal(t, attempts-1, losses)
	})

	t.Run("revoke all removes only that identity", func(t *testing.T) {
		r := newRegistry(t)

		a1, a2, b := entry("alice"), entry("alice"), entry("bob")
		require.NoError(t, r.Register(ctx, a1))
		require.NoError(t, r.Register(ctx, a2))
		require.NoError(t, r.Register(ctx, b))

		n, err := r.RevokeAll(ctx, "alice")
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		_, err = r.Lookup(ctx, a1.TokenID)
		require.ErrorIs(t, err, registry.ErrNotFound)
		_, err = r.Lookup(ctx, a2.TokenID)
		require.ErrorIs(t, err, registry.ErrNotFound)
		_, err = r.Lookup(ctx, b.TokenID)
		require.NoError(t, err)
	})

	t.Run("delete created before sweeps stale entries", func(t *testing.T) {
		r := newRegistry(t)

		stale := entry("alice")
		stale.CreatedAt = time.Now().UTC().Add(-30 * 24 * time.Hour)
		fresh := entry("alice")

		require.NoError(t, r.Register(ctx, stale))
		require.NoError(t, r.Register(ctx, fresh))

		n, err := r.DeleteCreatedBefore(ctx, time.Now().UTC().Add(-7*24*time.Hour))
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		_, err = r.Lookup(ctx, stale.TokenID)
		require.ErrorIs(t, err, registry.ErrNotFound)
		_, err = r.Lookup(ctx, fresh.TokenID)
		require.NoError(t, err)
	})

	t.Run("ping", func(t *testing.T) {
		r := newRegistry(t)
		require.NoError(t, r.Ping(ctx))
	})
}
