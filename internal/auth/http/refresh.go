package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sentinelhq/gatekeep/internal/auth/service"
	"github.com/sentinelhq/gatekeep/pkg/httpx"
	"github.com/sentinelhq/gatekeep/pkg/slogx"
)

// RefreshHandler serves POST /v1/auth/refresh.
type RefreshHandler struct {
	Router *Router
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ServeHTTP godoc
//
//	@Summary		Refresh
//	@Description	Rotates a refresh token: the presented token is retired and a new
//	@Description	access/refresh pair is issued. The token is read from the
//	@Description	gatekeep_refresh cookie when present, otherwise from the
//	@Description	refresh_token body field. Every failure on this path is the same
//	@Description	401 invalid_grant; the reason is never disclosed.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		refreshRequest	false	"refresh_token (body transport only)"
//	@Success		200		{object}	TokenResponse	"access_token, token_type, expires_in"
//	@Failure		401		{object}	APIError		"error, error_description"
//	@Failure		503		{object}	APIError		"error, error_description"
//	@Router			/v1/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// Body is optional: cookie-transport requests may send none at all.
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		ErrInvalidJSONBody.WriteError(w)
		return
	}

	token, viaCookie := refreshTokenFromRequest(r, req.RefreshToken)
	if token == "" {
		ErrInvalidGrant.WriteError(w)
		return
	}

	pair, err := h.Router.TokenService.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			if viaCookie {
				// The cookie is dead weight now; stop the browser resending it.
				h.Router.clearRefreshCookie(w)
			}
			ErrInvalidGrant.WriteError(w)
			return
		}
		log.Error("refresh failed on infrastructure", "err", err)
		ErrUnavailable.WriteError(w)
		return
	}

	resp := TokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresIn:   int(pair.ExpiresIn.Seconds()),
	}
	if viaCookie {
		h.Router.setRefreshCookie(w, pair.RefreshToken, h.Router.TokenService.RefreshTTL)
	} else {
		resp.RefreshToken = pair.RefreshToken
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}
