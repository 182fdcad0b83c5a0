package authsdk_test

import (
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sentinelhq/gatekeep/internal/auth/domain"
	authhttp "github.com/sentinelhq/gatekeep/internal/auth/http"
	"github.com/sentinelhq/gatekeep/internal/auth/registry/drivers/memory"
	"github.com/sentinelhq/gatekeep/internal/auth/service"
	"github.com/sentinelhq/gatekeep/internal/auth/store/drivers/sqlite"
	"github.com/sentinelhq/gatekeep/pkg/authsdk"
	"github.com/sentinelhq/gatekeep/pkg/jwtx"

	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("test-access-secret-0123456789abc")
	refreshSecret = []byte("test-refresh-secret-0123456789ab")
	audience      = []string{"gatekeep-api"}
)

const (
	issuer   = "gatekeep"
	password = "correct horse battery staple"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "users.db") + "?_busy_timeout=5000"
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	reg := memory.New()
	t.Cleanup(func() { _ = reg.Close() })

	accessSigner, err := jwtx.NewSignerHS256(accessSecret)
	require.NoError(t, err)
	refreshSigner, err := jwtx.NewSignerHS256(refreshSecret)
	require.NoError(t, err)

	router := authhttp.NewRouter(
		jwtx.NewCommonHS256(accessSecret, issuer, audience),
		"test",
		st,
		reg,
		false,
		slog.Default(),
	)
	router.TokenService = &service.TokenService{
		AccessSigner:    accessSigner,
		RefreshSigner:   refreshSigner,
		RefreshVerifier: jwtx.NewCommonHS256(refreshSecret, issuer, audience),
		Store:           st,
		Registry:        reg,
		Issuer:          issuer,
		Audience:        audience,
		AccessTTL:       jwtx.DefaultAccessTokenTTL,
		RefreshTTL:      jwtx.DefaultRefreshTokenTTL,
	}
	router.UserService = &service.UserService{Store: st}
	router.ApplyRoutes()

	users := &service.UserService{Store: st}
	_, err = users.CreateUser(t.Context(), "alice", password, domain.RoleUser)
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestSDKLoginWhoami(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	client := authsdk.NewSDKClient(server.URL)

	session, err := client.Login(t.Context(), "alice", password)
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken())
	require.NotEmpty(t, session.RefreshToken())

	who, err := session.Whoami(t.Context())
	require.NoError(t, err)
	require.Equal(t, "alice", who.Subject)
	require.Equal(t, "user", who.Role)
}

func TestSDKLoginRejected(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	client := authsdk.NewSDKClient(server.URL)

	_, err := client.Login(t.Context(), "alice", "wrong")
	require.Error(t, err)

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 401, apiErr.StatusCode)
	require.Equal(t, "invalid_credentials", apiErr.Code)
}

func TestSDKRefreshRotates(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	client := authsdk.NewSDKClient(server.URL)

	session, err := client.Login(t.Context(), "alice", password)
	require.NoError(t, err)

	oldAccess := session.AccessToken()
	oldRefresh := session.RefreshToken()

	require.NoError(t, session.Refresh(t.Context()))
	require.NotEqual(t, oldAccess, session.AccessToken())
	require.NotEqual(t, oldRefresh, session.RefreshToken())

	// The rotated-out token is spent.
	_, err = client.RefreshToken(t.Context(), oldRefresh)
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "invalid_grant", apiErr.Code)

	// The session keeps working after rotation.
	_, err = session.Whoami(t.Context())
	require.NoError(t, err)
}

func TestSDKLogout(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	client := authsdk.NewSDKClient(server.URL)

	session, err := client.Login(t.Context(), "alice", password)
	require.NoError(t, err)
	spent := session.RefreshToken()

	require.NoError(t, session.Logout(t.Context()))

	_, err = client.RefreshToken(t.Context(), spent)
	require.Error(t, err)

	// A session with no refresh token cannot rotate.
	require.Error(t, session.Refresh(t.Context()))
}

func TestSDKLogoutAll(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	client := authsdk.NewSDKClient(server.URL)

	first, err := client.Login(t.Context(), "alice", password)
	require.NoError(t, err)
	second, err := client.Login(t.Context(), "alice", password)
	require.NoError(t, err)

	revoked, err := first.LogoutAll(t.Context())
	require.NoError(t, err)
	require.EqualValues(t, 2, revoked)

	require.Error(t, second.Refresh(t.Context()))
}

func TestSDKSessionFromStoredTokens(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	client := authsdk.NewSDKClient(server.URL)

	session, err := client.Login(t.Context(), "alice", password)
	require.NoError(t, err)

	// Simulate a restart: rebuild the session from persisted tokens with no
	// remaining access lifetime, forcing a refresh on first use.
	restored := client.NewSessionFromTokens(session.AccessToken(), session.RefreshToken(), 0)

	who, err := restored.Whoami(t.Context())
	require.NoError(t, err)
	require.Equal(t, "alice", who.Subject)
}

func TestSDKLivez(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	client := authsdk.NewSDKClient(server.URL)
	require.NoError(t, client.Livez(t.Context()))
}
