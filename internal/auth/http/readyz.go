package http

import (
	"net/http"
	"time"

	"github.com/machauth/machauth/internal/auth/store"
	"github.com/machauth/machauth/pkg/httpx"
	"github.com/machauth/machauth/pkg/jwtx"
	"github.com/machauth/machauth/pkg/oauthsdk"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Probe
//	@Description	Returns the service readiness, checking the client store and the token signer.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	oauthsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	oauthsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys *jwtx.KeySet,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &oauthsdk.HealthChecks{
			Store:  "ok",
			Signer: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Store = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := oauthsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
