package http

import (
	"net/http"

	"github.com/sentinelhq/gatekeep/internal/auth/registry"
	"github.com/sentinelhq/gatekeep/internal/auth/store"
	"github.com/sentinelhq/gatekeep/pkg/httpx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Pings the user store and the refresh registry. Returns 503 with
//	@Description	per-dependency detail when either is unreachable.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status, checks"
//	@Failure		503	{object}	HealthResponse	"status, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(st store.Store, reg registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Database: "ok",
			Registry: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := reg.Ping(r.Context()); err != nil {
			checks.Registry = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, HealthResponse{
			Status: overallStatus,
			Checks: checks,
		})
	}
}
