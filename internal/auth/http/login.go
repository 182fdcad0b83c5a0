package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sentinelhq/gatekeep/internal/auth/service"
	"github.com/sentinelhq/gatekeep/pkg/httpx"
	"github.com/sentinelhq/gatekeep/pkg/slogx"
)

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	Router *Router
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ServeHTTP godoc
//
//	@Summary		Login
//	@Description	Verifies a username/password pair and issues an access token plus a
//	@Description	refresh token. The refresh token is set as an HttpOnly cookie for
//	@Description	browser clients and echoed in the body for clients that manage the
//	@Description	token themselves.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		loginRequest	true	"username and password"
//	@Success		200			{object}	TokenResponse	"access_token, token_type, expires_in"
//	@Failure		400			{object}	APIError		"error, error_description"
//	@Failure		401			{object}	APIError		"error, error_description"
//	@Failure		503			{object}	APIError		"error, error_description"
//	@Header			200			{string}	Set-Cookie		"gatekeep_refresh"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrInvalidJSONBody.WriteError(w)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		ErrMissingCredentials.WriteError(w)
		return
	}

	pair, err := h.Router.TokenService.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			ErrInvalidCredentials.WriteError(w)
			return
		}
		log.Error("login failed on infrastructure", "err", err)
		ErrUnavailable.WriteError(w)
		return
	}

	h.Router.setRefreshCookie(w, pair.RefreshToken, h.Router.TokenService.RefreshTTL)

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	})
}
