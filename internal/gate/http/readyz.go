package http

import (
	"net/http"
	"time"

	"github.com/tabcorp-labs/sheetgate/internal/gate/auth"
	"github.com/tabcorp-labs/sheetgate/pkg/httpx"
	"github.com/tabcorp-labs/sheetgate/pkg/satoken"
)

// ReadyzHandler reports whether the service can actually do its job: the
// service principal must be configured and the roles-token signer usable.
func ReadyzHandler(
	startTime time.Time,
	version string,
	broker *satoken.Broker,
	roleIssuer *auth.RoleIssuer,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Principal: "ok",
			Signer:    "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if broker == nil || !broker.Principal.Configured() {
			checks.Principal = "error: service principal not configured"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if roleIssuer == nil || roleIssuer.Signer.Validate() != nil {
			checks.Signer = "error: session secret not configured"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
