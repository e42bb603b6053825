package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tabcorp-labs/sheetgate/internal/gate/auth"
	httpapi "github.com/tabcorp-labs/sheetgate/internal/gate/http"
	"github.com/tabcorp-labs/sheetgate/internal/gate/metrics"
	"github.com/tabcorp-labs/sheetgate/pkg/satoken"
	"github.com/tabcorp-labs/sheetgate/pkg/sheets"
	"github.com/tabcorp-labs/sheetgate/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "dev"

// Application encapsulates the gateway service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	broker        *satoken.Broker
	sheetsClient  *sheets.Client
	authenticator *auth.Authenticator
	roleIssuer    *auth.RoleIssuer
	metrics       *metrics.Metrics

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "sheetgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.SessionSecret == "" {
		return nil, errors.New("app: SHEETGATE_SESSION_SECRET is required")
	}

	app.metrics = metrics.New()

	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

func (app *Application) initServices() error {
	principal := satoken.ServicePrincipal{
		Email:         app.cfg.ServiceAccountEmail,
		PrivateKeyPEM: app.cfg.PrivateKeyPEM(),
		Scopes:        app.cfg.ScopeList(),
	}
	if !principal.Configured() {
		// The broker fails every exchange with a credentials error, but the
		// authentication surface still works. Readiness reports degraded.
		app.logger.Warn("service principal not configured, sheet access unavailable")
	}

	app.broker = satoken.NewBroker(principal)
	app.broker.TokenURL = app.cfg.TokenURL
	app.broker.OnRefresh = func() { app.metrics.TokenRefreshesTotal.Inc() }

	app.sheetsClient = sheets.NewClient(app.broker)
	app.sheetsClient.BaseURL = app.cfg.SheetsBaseURL

	admins := auth.NormalizeList(app.cfg.Admins)
	mods := auth.NormalizeList(app.cfg.Mods)

	roleIssuer, err := auth.NewRoleIssuer(
		[]byte(app.cfg.SessionSecret),
		app.cfg.Issuer,
		app.cfg.RolesTokenTTL,
		admins, mods,
	)
	if err != nil {
		return fmt.Errorf("app: init role issuer: %w", err)
	}
	app.roleIssuer = roleIssuer

	app.authenticator = auth.NewAuthenticator(
		auth.NewExternalValidator(app.cfg.ProviderValidateURL),
		auth.NewInternalValidator([]byte(app.cfg.SessionSecret), app.cfg.Issuer),
		admins, mods,
	)

	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.logger)
	router.Authenticator = app.authenticator
	router.RoleIssuer = app.roleIssuer
	router.Sheets = app.sheetsClient
	router.Broker = app.broker
	router.Metrics = app.metrics
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("sheetgate starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down sheetgate...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
			return err
		}
	}

	app.logger.Info("sheetgate stopped")
	return nil
}
