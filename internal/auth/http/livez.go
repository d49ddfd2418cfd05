package http

import (
	"net/http"
	"time"

	"github.com/machauth/machauth/pkg/httpx"
	"github.com/machauth/machauth/pkg/oauthsdk"
)

// LivezHandler godoc
//
//	@Summary		Liveness Probe
//	@Description	Returns 200 OK whenever the process is running, along with uptime and version.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	oauthsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := oauthsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}
