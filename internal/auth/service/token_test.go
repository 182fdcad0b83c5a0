package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sentinelhq/gatekeep/internal/auth/domain"
	"github.com/sentinelhq/gatekeep/internal/auth/registry/drivers/memory"
	"github.com/sentinelhq/gatekeep/internal/auth/store/drivers/sqlite"
	"github.com/sentinelhq/gatekeep/pkg/cryptox"
	"github.com/sentinelhq/gatekeep/pkg/idx"
	"github.com/sentinelhq/gatekeep/pkg/jwtx"

	"github.com/stretchr/testify/require"
)

var (
	testAccessSecret  = []byte("test-access-secret-0123456789abc")
	testRefreshSecret = []byte("test-refresh-secret-0123456789ab")
)

const (
	testIssuer   = "gatekeep"
	testPassword = "correct horse battery staple"
)

var testAudience = []string{"gatekeep-api"}

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "users.db") + "?_busy_timeout=5000"
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	accessSigner, err := jwtx.NewSignerHS256(testAccessSecret)
	require.NoError(t, err)
	refreshSigner, err := jwtx.NewSignerHS256(testRefreshSecret)
	require.NoError(t, err)

	reg := memory.New()
	t.Cleanup(func() { _ = reg.Close() })

	return &TokenService{
		AccessSigner:    accessSigner,
		RefreshSigner:   refreshSigner,
		RefreshVerifier: jwtx.NewCommonHS256(testRefreshSecret, testIssuer, testAudience),
		Store:           st,
		Registry:        reg,
		Issuer:          testIssuer,
		Audience:        testAudience,
		AccessTTL:       jwtx.DefaultAccessTokenTTL,
		RefreshTTL:      jwtx.DefaultRefreshTokenTTL,
	}
}

func seedTestUser(t *testing.T, s *TokenService, username string, role domain.Role) {
	t.Helper()

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, s.Store.Users().CreateUser(context.Background(), domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}

func accessVerifier() jwtx.Verifier {
	return jwtx.NewCommonHS256(testAccessSecret, testIssuer, testAudience)
}

func TestTokenService_Login(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(t)
	seedTestUser(t, svc, "alice", domain.RoleUser)
	ctx := context.Background()

	t.Run("valid credentials issue a pair", func(t *testing.T) {
		pair, err := svc.Login(ctx, "alice", testPassword)
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
		require.Equal(t, "Bearer", pair.TokenType)
		require.Equal(t, svc.AccessTTL, pair.ExpiresIn)

		claims, err := accessVerifier().Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Subject)
		require.Equal(t, "user", claims.Role)
		require.Empty(t, claims.TID)

		refreshClaims, err := svc.RefreshVerifier.Verify(pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, "alice", refreshClaims.Subject)
		require.NotEmpty(t, refreshClaims.TID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "not the password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := svc.Login(ctx, "mallory", testPassword)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("access and refresh secrets are not interchangeable", func(t *testing.T) {
		pair, err := svc.Login(ctx, "alice", testPassword)
		require.NoError(t, err)

		// An access token presented on the refresh path must fail signature
		// verification, not just the registry check.
		_, err = svc.RefreshVerifier.Verify(pair.AccessToken)
		require.Error(t, err)
	})
}

func TestTokenService_Refresh(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rotation retires the presented token", func(t *testing.T) {
		svc := newTestTokenService(t)
		seedTestUser(t, svc, "alice", domain.RoleUser)

		pair, err := svc.Login(ctx, "alice", testPassword)
		require.NoError(t, err)

		next, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.NotEmpty(t, next.AccessToken)
		require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		// Second use of the original token must fail: one-time-use.
		_, err = svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)

		// The replacement still works.
		_, err = svc.Refresh(ctx, next.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("access token rejected on refresh path", func(t *testing.T) {
		svc := newTestTokenService(t)
		seedTestUser(t, svc, "alice", domain.RoleUser)

		pair, err := svc.Login(ctx, "alice", testPassword)
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, pair.AccessToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		svc := newTestTokenService(t)

		_, err := svc.Refresh(ctx, "not.a.jwt")
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("role change takes effect on rotation", func(t *testing.T) {
		svc := newTestTokenService(t)
		seedTestUser(t, svc, "alice", domain.RoleUser)

		pair, err := svc.Login(ctx, "alice", testPassword)
		require.NoError(t, err)

		require.NoError(t, svc.Store.Users().UpdateUserRole(ctx, "alice", domain.RoleAdmin))

		next, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)

		claims, err := accessVerifier().Verify(next.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "admin", claims.Role)
	})

	t.Run("deleted user cannot refresh", func(t *testing.T) {
		svc := newTestTokenService(t)
		seedTestUser(t, svc, "alice", domain.RoleUser)

		pair, err := svc.Login(ctx, "alice", testPassword)
		require.NoError(t, err)

		require.NoError(t, svc.Store.Users().DeleteUser(ctx, "alice"))

		_, err = svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("concurrent refreshes have exactly one winner", func(t *testing.T) {
		svc := newTestTokenService(t)
		seedTestUser(t, svc, "alice", domain.RoleUser)

		pair, err := svc.Login(ctx, "alice", testPassword)
		require.NoError(t, err)

		const workers = 8
		var wg sync.WaitGroup
		results := make(chan error, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Refresh(ctx, pair.RefreshToken)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		var wins, losses int
		for err := range results {
			switch {
			case err == nil:
				wins++
			default:
				require.ErrorIs(t, err, ErrInvalidRefresh)
				losses++
			}
		}
		require.Equal(t, 1, wins)
		require.Equal(t, workers-1, losses)
	})
}

func TestTokenService_Logout(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(t)
	seedTestUser(t, svc, "alice", domain.RoleUser)
	ctx := context.Background()

	t.Run("logout retires the refresh token", func(t *testing.T) {
		pair, err := svc.Login(ctx, "alice", testPassword)
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

		_, err = svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		pair, err := svc.Login(ctx, "alice", testPassword)
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
		require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	})

	t.Run("unverifiable token rejected", func(t *testing.T) {
		require.ErrorIs(t, svc.Logout(ctx, "garbage"), ErrInvalidRefresh)
	})
}

func TestTokenService_RevokeAll(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(t)
	seedTestUser(t, svc, "alice", domain.RoleUser)
	seedTestUser(t, svc, "bob", domain.RoleUser)
	ctx := context.Background()

	alice1, err := svc.Login(ctx, "alice", testPassword)
	require.NoError(t, err)
	alice2, err := svc.Login(ctx, "alice", testPassword)
	require.NoError(t, err)
	bob, err := svc.Login(ctx, "bob", testPassword)
	require.NoError(t, err)

	n, err := svc.RevokeAll(ctx, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, err = svc.Refresh(ctx, alice1.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
	_, err = svc.Refresh(ctx, alice2.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// Other users' sessions are untouched.
	_, err = svc.Refresh(ctx, bob.RefreshToken)
	require.NoError(t, err)
}

func TestTokenService_InjectedClock(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(t)
	seedTestUser(t, svc, "alice", domain.RoleUser)
	ctx := context.Background()

	// Issue a pair far enough in the past that the refresh token is expired.
	past := time.Now().Add(-svc.RefreshTTL - time.Hour)
	svc.Now = func() time.Time { return past }

	pair, err := svc.Login(ctx, "alice", testPassword)
	require.NoError(t, err)

	// Back on the real clock, the refresh token is expired even though its
	// registry entry is still live.
	svc.Now = nil
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}
