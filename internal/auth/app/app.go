package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/sprintdeck/sprintdeck/internal/auth/http"
	"github.com/sprintdeck/sprintdeck/internal/auth/mail"
	"github.com/sprintdeck/sprintdeck/internal/auth/service"
	"github.com/sprintdeck/sprintdeck/internal/auth/store"
	"github.com/sprintdeck/sprintdeck/internal/auth/store/drivers/sqlite"
	"github.com/sprintdeck/sprintdeck/pkg/jwtx"
	"github.com/sprintdeck/sprintdeck/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	sessionService      *service.SessionService
	inviteService       *service.InviteService
	authzService        *service.AuthzService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "sprintdeck-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	app.initSecrets()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initSecrets fills in ephemeral signing secrets when none are
// configured. Tokens then die with the process, which is fine for dev
// and wrong for anything else.
func (app *Application) initSecrets() {
	if app.cfg.AccessSecret == "" {
		app.cfg.AccessSecret = randomSecret()
		app.logger.Warn("AUTH_ACCESS_SECRET not set, generated an ephemeral secret")
	}
	if app.cfg.RefreshSecret == "" {
		app.cfg.RefreshSecret = randomSecret()
		app.logger.Warn("AUTH_REFRESH_SECRET not set, generated an ephemeral secret")
	}
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

// initServices initializes all business logic services
func (app *Application) initServices() {
	mailer := mail.LogMailer{}

	app.sessionService = &service.SessionService{
		Store:           app.db,
		Mailer:          mailer,
		AccessSigner:    jwtx.NewSignerHS256([]byte(app.cfg.AccessSecret)),
		RefreshSigner:   jwtx.NewSignerHS256([]byte(app.cfg.RefreshSecret)),
		RefreshVerifier: jwtx.NewVerifierHS256([]byte(app.cfg.RefreshSecret), app.cfg.Issuer),
		Issuer:          app.cfg.Issuer,
		AccessTTL:       app.cfg.AccessTTL,
		RefreshTTL:      app.cfg.RefreshTTL,
		HashCost:        app.cfg.HashCost,
		PublicBaseURL:   app.cfg.PublicBaseURL,
	}

	app.inviteService = &service.InviteService{
		Store:         app.db,
		Mailer:        mailer,
		PublicBaseURL: app.cfg.PublicBaseURL,
	}

	app.authzService = &service.AuthzService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		jwtx.NewVerifierHS256([]byte(app.cfg.AccessSecret), app.cfg.Issuer),
		BuildVersion,
		app.db,
		app.logger,
	)

	router.Sessions = app.sessionService
	router.Invites = app.inviteService
	router.Authz = app.authzService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func randomSecret() string {
	var b [32]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
