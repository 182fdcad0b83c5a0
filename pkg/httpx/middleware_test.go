package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sentinelhq/gatekeep/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "gatekeep"

var (
	testAudience = []string{"gatekeep-api"}
	testSecret   = []byte("0123456789abcdef0123456789abcdef")
)

func accessToken(t *testing.T, role string) string {
	t.Helper()

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims("alice", role, "alice", 15*time.Minute, testIssuer, testAudience, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	return token
}

func echoPrincipal(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"subject": SubjectFromContext(r.Context()),
			"role":    roleFromCtx(r.Context()),
		})
	})
}

func TestAuthnMiddlewareAcceptsValidToken(t *testing.T) {
	t.Parallel()

	v := jwtx.NewCommonHS256(testSecret, testIssuer, testAudience)
	h := Chain(echoPrincipal(t), AuthnMiddleware(v))

	req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, "user"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"subject":"alice"`)
	require.Contains(t, rec.Body.String(), `"role":"user"`)
}

func TestAuthnMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	t.Parallel()

	v := jwtx.NewCommonHS256(testSecret, testIssuer, testAudience)
	h := Chain(echoPrincipal(t), AuthnMiddleware(v))

	t.Run("no header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("not a bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic YWxpY2U6cGFzcw==")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with wrong secret", func(t *testing.T) {
		other := jwtx.NewCommonHS256([]byte("fedcba9876543210fedcba9876543210"), testIssuer, testAudience)
		hOther := Chain(echoPrincipal(t), AuthnMiddleware(other))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, "user"))
		rec := httptest.NewRecorder()
		hOther.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	v := jwtx.NewCommonHS256(testSecret, testIssuer, testAudience)

	protected := Chain(echoPrincipal(t),
		AuthnMiddleware(v),
		RequireRole("admin"),
	)

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, "admin"))
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("plain user is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, "user"))
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("authn still runs first", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
