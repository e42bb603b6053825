package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tabcorp-labs/sheetgate/internal/gate/auth"
	"github.com/tabcorp-labs/sheetgate/internal/gate/metrics"
	"github.com/tabcorp-labs/sheetgate/pkg/httpx"
	"github.com/tabcorp-labs/sheetgate/pkg/satoken"
	"github.com/tabcorp-labs/sheetgate/pkg/sheets"
	"github.com/tabcorp-labs/sheetgate/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Authenticator *auth.Authenticator
	RoleIssuer    *auth.RoleIssuer
	Sheets        *sheets.Client
	Broker        *satoken.Broker
	Metrics       *metrics.Metrics
}

func NewRouter(buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerSheets()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSession() {
	sessionHandler := &SessionHandler{
		Authenticator: r.Authenticator,
		RoleIssuer:    r.RoleIssuer,
		Metrics:       r.Metrics,
	}

	// Session minting hits the external provider, so keep it tight.
	r.Mux.Handle("POST /v1/session",
		httpx.Chain(sessionHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSheets() {
	sheetsHandler := &SheetsHandler{
		Sheets:  r.Sheets,
		Metrics: r.Metrics,
	}

	// Authentication must run before the per-user rate limiter so the
	// limiter can key on the resolved user instead of the shared IP.
	r.Mux.Handle("GET /v1/sheets/{id}/values/{range}",
		httpx.Chain(http.HandlerFunc(sheetsHandler.HandleRead),
			auth.AuthnMiddleware(r.Authenticator, r.Metrics.ObserveAuth),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /v1/sheets/{id}/values/{range}/append",
		httpx.Chain(http.HandlerFunc(sheetsHandler.HandleAppend),
			auth.AuthnMiddleware(r.Authenticator, r.Metrics.ObserveAuth),
			auth.RequireModRole(r.Authenticator, r.Metrics.ObserveAuth),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("PUT /v1/sheets/{id}/values/{range}",
		httpx.Chain(http.HandlerFunc(sheetsHandler.HandleUpdate),
			auth.AuthnMiddleware(r.Authenticator, r.Metrics.ObserveAuth),
			auth.RequireAdminRole(r.Authenticator, r.Metrics.ObserveAuth),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.Broker, r.RoleIssuer))
	r.Mux.Handle("GET /metrics", r.Metrics.Handler())
}
