package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sentinelhq/gatekeep/pkg/httpx"
	"github.com/sentinelhq/gatekeep/pkg/slogx"
)

// LogoutHandler serves POST /v1/auth/logout.
type LogoutHandler struct {
	Router *Router
}

// ServeHTTP godoc
//
//	@Summary		Logout
//	@Description	Retires the presented refresh token and clears the cookie. Always
//	@Description	returns 200: logging out with an already-spent or garbage token is
//	@Description	not an error the caller can act on.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		refreshRequest	false	"refresh_token (body transport only)"
//	@Success		200		{object}	map[string]string
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		req.RefreshToken = ""
	}

	token, _ := refreshTokenFromRequest(r, req.RefreshToken)
	if token != "" {
		// Best effort: a revocation failure still logs the caller out
		// locally, and the registry sweep catches stragglers.
		if err := h.Router.TokenService.Logout(ctx, token); err != nil {
			log.Warn("logout revocation failed", "err", err)
		}
	}

	h.Router.clearRefreshCookie(w)

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{})
}
