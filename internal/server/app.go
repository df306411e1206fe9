// Package server initializes and runs the social network server.
// It wires the stores, the optional Postgres and S3 backends and the
// services, then runs the line protocol acceptor and the diagnostics
// endpoint until a signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"github.com/dmitrijs2005/socialnet/internal/server/catalog"
	"github.com/dmitrijs2005/socialnet/internal/server/config"
	"github.com/dmitrijs2005/socialnet/internal/server/graph"
	"github.com/dmitrijs2005/socialnet/internal/server/notifications"
	"github.com/dmitrijs2005/socialnet/internal/server/permissions"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/socialnet/internal/server/services"
	"github.com/dmitrijs2005/socialnet/internal/server/session"
	"github.com/dmitrijs2005/socialnet/internal/server/storage"
	"github.com/dmitrijs2005/socialnet/internal/server/tcp"
	"github.com/dmitrijs2005/socialnet/internal/transfer"

	gs "github.com/dmitrijs2005/socialnet/internal/server/grpc"
)

var (
	logOutput io.Writer = os.Stdout

	openPostgres = repomanager.OpenPostgres
	newS3Backend = func(ctx context.Context, opts storage.S3Options) (storage.Backend, error) {
		return storage.NewS3Backend(ctx, opts)
	}
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	catalog  *catalog.Catalog
	acceptor *tcp.Acceptor
	diag     *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (_ *App, err error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewJSONLogger(logOutput, c.LogLevel)

	var (
		db *sql.DB
		rm = repomanager.NewInMemoryRepositoryManager()
	)
	if c.DatabaseDSN != "" {
		db, err = openPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		defer func() {
			if err != nil {
				db.Close()
			}
		}()
		rm = repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("db migration error: %w", err)
		}
	}

	backend, err := newBackend(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	deps := services.Deps{
		DB:            db,
		Repos:         rm,
		Graph:         graph.NewStore(),
		Notifications: notifications.NewStore(),
		Permissions:   permissions.NewStore(),
		Storage:       storage.New(backend),
		Log:           logger,
	}

	accounts := services.NewAccountService(deps)
	restored, err := accounts.Restore(ctx)
	if err != nil {
		return nil, fmt.Errorf("restoring accounts: %w", err)
	}
	logger.Info(ctx, "accounts restored", "count", restored)

	issuer, err := auth.NewHandshakeIssuer([]byte(c.SecretKey), c.HandshakeTokenTTL)
	if err != nil {
		return nil, err
	}
	operatorKey, err := auth.OperatorKey([]byte(c.SecretKey))
	if err != nil {
		return nil, err
	}

	sender := transfer.NewSender(transfer.SenderConfig{
		ChunkCount:  c.ChunkCount,
		AckTimeout:  c.ChunkAckTimeout,
		MaxAttempts: c.ChunkMaxAttempts,
	}, logger)

	cat := catalog.New()
	handler := session.NewHandler(session.Services{
		Accounts: accounts,
		Social:   services.NewSocialService(deps),
		Content:  services.NewContentService(deps, c.MaxUploadSize),
		Sync:     services.NewSyncService(deps),
	}, cat, issuer, sender, logger)

	app := &App{
		config:   c,
		logger:   logger,
		db:       db,
		catalog:  cat,
		acceptor: tcp.NewAcceptor(c.EndpointAddr, c.MaxConnections, handler, logger),
	}
	if c.EndpointAddrGRPC != "" {
		app.diag = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, cat, operatorKey)
	}
	return app, nil
}

func newBackend(ctx context.Context, c *config.Config) (storage.Backend, error) {
	if c.StorageBackend == config.StorageS3 {
		return newS3Backend(ctx, storage.S3Options{
			User:         c.S3RootUser,
			Password:     c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	}
	return storage.NewFSBackend(c.StorageDir)
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Addr returns the line protocol address once the acceptor is listening.
func (app *App) Addr(ctx context.Context) (string, error) {
	addr, err := app.acceptor.Addr(ctx)
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}

// Run serves until ctx is cancelled or a signal arrives, then waits for
// every session to finish. It returns the first server error, if any.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		app.logger.Error(ctx, err.Error())
		errOnce.Do(func() { firstErr = err })
		cancelFunc()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.acceptor.Run(ctx); err != nil {
			fail(err)
		}
	}()

	if app.diag != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.diag.Run(ctx); err != nil {
				fail(fmt.Errorf("grpc: %w", err))
			}
		}()
	}

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "closing database", "error", err)
		}
	}
	app.logger.Info(context.Background(), "App stopped")
	return firstErr
}
