// Package server wires the ChatBook server together: storage, services,
// the connection registry and delivery router, the HTTP API with the chat
// websocket, and the gRPC health endpoint. It also handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/chatbook/internal/common"
	"github.com/dmitrijs2005/chatbook/internal/logging"
	"github.com/dmitrijs2005/chatbook/internal/server/auth"
	"github.com/dmitrijs2005/chatbook/internal/server/config"
	"github.com/dmitrijs2005/chatbook/internal/server/httpapi"
	"github.com/dmitrijs2005/chatbook/internal/server/registry"
	"github.com/dmitrijs2005/chatbook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chatbook/internal/server/router"
	"github.com/dmitrijs2005/chatbook/internal/server/services"
	"github.com/dmitrijs2005/chatbook/internal/server/session"

	gs "github.com/dmitrijs2005/chatbook/internal/server/grpc"
)

const (
	shutdownTimeout        = 10 * time.Second
	revokedCleanupInterval = time.Hour
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	userService *services.UserService
	registry    *registry.Local
	httpServer  *http.Server
	grpcServer  *gs.Server
}

// NewApp builds the application from cfg. An empty DatabaseDSN selects
// in-memory stores; otherwise PostgreSQL is opened and migrated.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	var repos repomanager.RepositoryManager
	if cfg.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, using in-memory stores")
		repos = repomanager.NewMemoryRepositoryManager()
	} else {
		pg, err := repomanager.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repos = pg
	}
	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	tokens := auth.NewTokenService(cfg.SecretKey, cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration)
	us := services.NewUserService(repos, tokens, cfg.RevokeRotatedRefreshTokens)
	ms := services.NewMessageService(repos)

	regLog := logger.With("module", "registry")
	reg := registry.NewLocal(func(identity string, err error) {
		regLog.Warn(context.Background(), "push to live session failed",
			"user", identity, "error", fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err))
	})

	rt := router.New(reg, ms, logger, router.Options{
		MaxContentLength: cfg.MaxContentLength,
		CloseSuperseded:  cfg.CloseSupersededSessions,
		SupersededCode:   session.CloseSuperseded,
	})

	api := httpapi.NewServer(us, ms, rt, reg, logger, httpapi.Options{
		WriteTimeout:   cfg.WriteTimeout,
		MaxFrameBytes:  cfg.MaxFrameBytes,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	return &App{
		config:      cfg,
		logger:      logger,
		repos:       repos,
		userService: us,
		registry:    reg,
		httpServer: &http.Server{
			Addr:              cfg.EndpointAddrHTTP,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		grpcServer: gs.NewServer(cfg.EndpointAddrGRPC, logger),
	}, nil
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	app.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// hijacked websocket connections are not tracked by Shutdown
		app.registry.CloseAll(session.CloseGoingAway, "server shutting down")
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startRevokedTokenCleanup(ctx context.Context) {
	if !app.config.RevokeRotatedRefreshTokens {
		return
	}
	ticker := time.NewTicker(revokedCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.userService.CleanupRevokedTokens(ctx)
			if err != nil {
				app.logger.Error(ctx, "revoked token cleanup failed", "error", err)
				continue
			}
			app.logger.Debug(ctx, "revoked token cleanup", "removed", n)
		}
	}
}

// Run serves until ctx is cancelled or a signal arrives, then shuts
// everything down and closes the stores.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startRevokedTokenCleanup(ctx)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return app.repos.Close()
}
