package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sentinelhq/gatekeep/internal/auth/domain"
	"github.com/sentinelhq/gatekeep/internal/auth/store"
	"github.com/sentinelhq/gatekeep/internal/auth/store/drivers/sqlite"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "users.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	s, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, users store.Users, username string, role domain.Role) domain.User {
	t.Helper()

	now := time.Now().UTC()
	u := domain.User{
		ID:           "usr_" + username,
		Username:     username,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, users.CreateUser(context.Background(), u))
	return u
}

func TestStore_UsersCRUD(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	users := s.Users()
	ctx := context.Background()

	t.Run("empty before first user", func(t *testing.T) {
		empty, err := users.IsEmpty(ctx)
		require.NoError(t, err)
		require.True(t, empty)
	})

	seedUser(t, users, "alice", domain.RoleUser)

	t.Run("lookup by username", func(t *testing.T) {
		got, err := users.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, "alice", got.Username)
		require.Equal(t, domain.RoleUser, got.Role)
		require.NotEmpty(t, got.PasswordHash)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := users.GetUserByUsername(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		dup := domain.User{
			ID:           "usr_alice2",
			Username:     "alice",
			PasswordHash: "x",
			Role:         domain.RoleUser,
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		}
		require.ErrorIs(t, users.CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("not empty after seed", func(t *testing.T) {
		empty, err := users.IsEmpty(ctx)
		require.NoError(t, err)
		require.False(t, empty)
	})

	t.Run("promote to admin", func(t *testing.T) {
		require.NoError(t, users.UpdateUserRole(ctx, "alice", domain.RoleAdmin))

		got, err := users.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, got.Role)
	})

	t.Run("promote unknown user", func(t *testing.T) {
		err := users.UpdateUserRole(ctx, "nobody", domain.RoleAdmin)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete user", func(t *testing.T) {
		require.NoError(t, users.DeleteUser(ctx, "alice"))

		_, err := users.GetUserByUsername(ctx, "alice")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	t.Parallel()

	dsn := "file:" + filepath.Join(t.TempDir(), "users.db") + "?_busy_timeout=5000"
	s, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}
