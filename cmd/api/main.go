package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/tribalscale/moneytransfer/internal/bootstrap"
	"github.com/tribalscale/moneytransfer/internal/controller"
	infraRedis "github.com/tribalscale/moneytransfer/internal/infrastructure/redis"
	"github.com/tribalscale/moneytransfer/internal/repository/postgres"
	"github.com/tribalscale/moneytransfer/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "moneytransfer-api", "moneytransfer")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	accountRepo := postgres.NewAccountRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Services ---
	var locker service.AccountLocker
	if app.Config.Transfer.DistributedLock {
		locker = infraRedis.NewAccountLocker(
			app.Redis,
			app.Config.Transfer.LockTTL,
			app.Config.Transfer.LockRetries,
			app.Config.Transfer.LockRetryDelay,
		)
		app.Logger.Info().Msg("Distributed account locking enabled")
	}

	transferService := service.NewTransferService(
		accountRepo,
		txManager,
		locker,
		app.Metrics,
		service.Config{
			MaxRetries:       app.Config.Transfer.MaxRetries,
			RetryDelay:       app.Config.Transfer.RetryDelay,
			BreakerThreshold: app.Config.Transfer.CircuitBreakerThreshold,
			BreakerTimeout:   app.Config.Transfer.CircuitBreakerTimeout,
		},
		app.Logger,
	)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:              app.Pool,
		RedisClient:       app.Redis,
		TransferService:   transferService,
		Metrics:           app.Metrics,
		CORSConfig:        app.Config.Server.CORS,
		RequestsPerMinute: app.Config.Server.RequestsPerMinute,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		app.Logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		app.Logger.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
	app.Logger.Info().Msg("Server exited")
}
