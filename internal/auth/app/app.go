package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/machauth/machauth/internal/auth/http"
	"github.com/machauth/machauth/internal/auth/service"
	"github.com/machauth/machauth/internal/auth/store"
	"github.com/machauth/machauth/internal/auth/store/drivers/memory"
	"github.com/machauth/machauth/internal/auth/store/drivers/sqlite"
	"github.com/machauth/machauth/pkg/cryptox"
	"github.com/machauth/machauth/pkg/jwtx"
	"github.com/machauth/machauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the token service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         store.Store
	keyManager *jwtx.KeyManager

	clientService   *service.ClientService
	tokenService    *service.TokenService
	exchangeService *service.ExchangeService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "machauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for secret hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initStore(); err != nil {
		return nil, err
	}

	keyManager, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.keyManager = keyManager

	app.initServices()

	if err := SeedClients(context.Background(), app.clientService, app.cfg, app.logger); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("machauth starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down machauth...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("machauth stopped")
	return nil
}

// initStore builds the configured store driver and applies migrations
func (app *Application) initStore() error {
	switch app.cfg.StoreDriver {
	case "memory":
		app.db = memory.New()
	case "sqlite":
		host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(host)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	default:
		return fmt.Errorf("unknown store driver %q", app.cfg.StoreDriver)
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("store ready", "driver", app.cfg.StoreDriver)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.clientService = &service.ClientService{Store: app.db}
	app.tokenService = &service.TokenService{
		KeyManager: app.keyManager,
		Issuer:     app.cfg.Issuer,
	}
	app.exchangeService = &service.ExchangeService{
		Clients: app.clientService,
		Tokens:  app.tokenService,
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		app.cfg.Issuer,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.ExchangeService = app.exchangeService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
