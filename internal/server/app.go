// Package server initializes and runs the auth service: configuration,
// database and migrations, session key derivation, and the HTTP endpoint,
// with graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/avolkova/discograph/internal/logging"
	"github.com/avolkova/discograph/internal/server/config"
	"github.com/avolkova/discograph/internal/server/httpapi"
	"github.com/avolkova/discograph/internal/server/lockout"
	"github.com/avolkova/discograph/internal/server/repositories/repomanager"
	"github.com/avolkova/discograph/internal/server/services"
	"github.com/avolkova/discograph/internal/server/sessioncookie"
	"github.com/avolkova/discograph/internal/server/sessionkeys"
	"github.com/avolkova/discograph/internal/server/sessiontoken"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	rm      repomanager.RepositoryManager
	handler http.Handler
}

func NewApp(cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	// The session key is derived once at startup; derivation is
	// deterministic, so a restart keeps issued tokens decryptable.
	key, err := sessionkeys.Derive([]byte(cfg.SessionSecret), sessioncookie.Name)
	if err != nil {
		return nil, fmt.Errorf("key derivation error: %w", err)
	}
	codec, err := sessiontoken.NewCodec(key, cfg.SessionLifetime)
	if err != nil {
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	repo := rm.Accounts(db)
	tracker := lockout.NewTracker(repo)
	svc := services.NewAuthService(repo, tracker, codec, services.NewPasswordVerifier(repo), cfg, logger)
	handler := httpapi.Routes(httpapi.NewHandlers(svc, cfg.APITokenValidityDuration, logger))

	return &App{config: cfg, logger: logger, db: db, rm: rm, handler: handler}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	srv := &http.Server{Addr: app.config.EndpointAddrHTTP, Handler: app.handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddrHTTP)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app...")

	if err := app.rm.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migrations error", "error", err.Error())
		return
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
