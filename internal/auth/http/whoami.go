package http

import (
	"net/http"

	"github.com/sentinelhq/gatekeep/pkg/httpx"
)

// WhoamiHandler serves GET /v1/whoami. It only ever reads claims that
// AuthnMiddleware verified; there is no unverified decode path.
type WhoamiHandler struct{}

// ServeHTTP godoc
//
//	@Summary		Who am I
//	@Description	Returns the verified claims of the presented access token.
//	@Tags			Identity
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	WhoamiResponse	"subject, username, role, issuer, expires_at"
//	@Failure		401	{string}	string			"missing or invalid bearer token"
//	@Router			/v1/whoami [get].
func (h *WhoamiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		// Unreachable behind AuthnMiddleware, kept for direct handler use.
		ErrServerError.WriteError(w)
		return
	}

	resp := WhoamiResponse{
		Subject:  claims.Subject,
		Username: claims.Username,
		Role:     claims.Role,
		Issuer:   claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		resp.Expires = claims.ExpiresAt.Unix()
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}
