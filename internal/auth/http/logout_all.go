package http

import (
	"net/http"

	"github.com/sentinelhq/gatekeep/pkg/httpx"
	"github.com/sentinelhq/gatekeep/pkg/slogx"
)

// LogoutAllHandler serves POST /v1/auth/logout-all.
type LogoutAllHandler struct {
	Router *Router
}

// ServeHTTP godoc
//
//	@Summary		Logout everywhere
//	@Description	Revokes every live refresh token belonging to the authenticated
//	@Description	subject. Access tokens already in the wild stay valid until expiry.
//	@Tags			Auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	RevokeAllResponse	"revoked"
//	@Failure		401	{string}	string				"missing or invalid bearer token"
//	@Failure		503	{object}	APIError			"error, error_description"
//	@Router			/v1/auth/logout-all [post].
func (h *LogoutAllHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	subject := httpx.SubjectFromContext(ctx)
	if subject == "" {
		// Unreachable behind AuthnMiddleware, kept for direct handler use.
		ErrServerError.WriteError(w)
		return
	}

	n, err := h.Router.TokenService.RevokeAll(ctx, subject)
	if err != nil {
		log.Error("logout-all failed", "err", err)
		ErrUnavailable.WriteError(w)
		return
	}

	h.Router.clearRefreshCookie(w)

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, RevokeAllResponse{Revoked: n})
}
