package http

import (
	"net/http"
	"time"
)

// RefreshCookieName is the cookie carrying the refresh token for browser
// clients. Non-browser clients use the refresh_token JSON field instead.
const RefreshCookieName = "gatekeep_refresh"

// refreshCookiePath scopes the cookie to the auth endpoints so the browser
// never attaches the refresh token to ordinary API calls.
const refreshCookiePath = "/v1/auth"

func (rt *Router) setRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   rt.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (rt *Router) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   rt.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshTokenFromRequest pulls the refresh token from the cookie when
// present, falling back to the request body's refresh_token field. The
// second return reports whether the cookie transport was used, which
// decides whether the rotated token goes back out as a cookie or in the
// response body.
func refreshTokenFromRequest(r *http.Request, bodyToken string) (token string, viaCookie bool) {
	if c, err := r.Cookie(RefreshCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return bodyToken, false
}
