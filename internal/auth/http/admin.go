package http

import (
	"net/http"

	"github.com/sentinelhq/gatekeep/pkg/httpx"
)

// AdminHandler serves GET /v1/admin, a role-gated endpoint. The interesting
// part is the middleware chain in front of it, not the payload.
type AdminHandler struct{}

// ServeHTTP godoc
//
//	@Summary		Admin check
//	@Description	Reachable only with a valid access token carrying the admin role.
//	@Tags			Identity
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	map[string]string
//	@Failure		401	{string}	string	"missing or invalid bearer token"
//	@Failure		403	{string}	string	"authenticated but not an admin"
//	@Router			/v1/admin [get].
func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "welcome, administrator",
		"subject": httpx.SubjectFromContext(r.Context()),
	})
}
