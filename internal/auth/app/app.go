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

	httpapi "github.com/sentinelhq/gatekeep/internal/auth/http"
	"github.com/sentinelhq/gatekeep/internal/auth/registry"
	regmemory "github.com/sentinelhq/gatekeep/internal/auth/registry/drivers/memory"
	regredis "github.com/sentinelhq/gatekeep/internal/auth/registry/drivers/redis"
	regsqlite "github.com/sentinelhq/gatekeep/internal/auth/registry/drivers/sqlite"
	"github.com/sentinelhq/gatekeep/internal/auth/service"
	"github.com/sentinelhq/gatekeep/internal/auth/store"
	"github.com/sentinelhq/gatekeep/internal/auth/store/drivers/sqlite"
	"github.com/sentinelhq/gatekeep/pkg/jwtx"
	"github.com/sentinelhq/gatekeep/pkg/slogx"

	goredis "github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	registry registry.Registry

	// Services
	tokenService        *service.TokenService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatekeep",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initRegistry(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.registry.Close()
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gatekeep starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"registry", app.cfg.RegistryBackend,
	)

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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gatekeep...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.registry.Close(); err != nil {
		app.logger.Error("error closing refresh registry", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gatekeep stopped")
	return nil
}

// initDatabase initializes the user database and applies migrations
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initRegistry wires the configured refresh registry backend.
func (app *Application) initRegistry() error {
	switch app.cfg.RegistryBackend {
	case RegistryMemory:
		app.registry = regmemory.New()

	case RegistrySQLite:
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.RegistryFile)
		reg, err := regsqlite.New(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize sqlite registry: %w", err)
		}
		app.registry = reg

	case RegistryRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("failed to reach redis at %s: %w", app.cfg.RedisAddr, err)
		}
		app.registry = regredis.New(client, app.cfg.RefreshTTL)

	default:
		return fmt.Errorf("unknown registry backend %q", app.cfg.RegistryBackend)
	}

	app.logger.Info("refresh registry initialized", "backend", app.cfg.RegistryBackend)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	accessSigner, err := jwtx.NewSignerHS256(app.cfg.AccessSecret)
	if err != nil {
		return fmt.Errorf("access signer: %w", err)
	}
	refreshSigner, err := jwtx.NewSignerHS256(app.cfg.RefreshSecret)
	if err != nil {
		return fmt.Errorf("refresh signer: %w", err)
	}

	app.tokenService = &service.TokenService{
		AccessSigner:    accessSigner,
		RefreshSigner:   refreshSigner,
		RefreshVerifier: jwtx.NewCommonHS256(app.cfg.RefreshSecret, app.cfg.Issuer, app.cfg.Audience),
		Store:           app.db,
		Registry:        app.registry,
		Issuer:          app.cfg.Issuer,
		Audience:        app.cfg.Audience,
		AccessTTL:       app.cfg.AccessTTL,
		RefreshTTL:      app.cfg.RefreshTTL,
	}

	app.userService = &service.UserService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.registry,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.RefreshTTL,
	)

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		jwtx.NewCommonHS256(app.cfg.AccessSecret, app.cfg.Issuer, app.cfg.Audience),
		BuildVersion,
		app.db,
		app.registry,
		app.cfg.SecureCookies,
		app.logger,
	)

	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
