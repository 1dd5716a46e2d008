package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Prxnesh/Task-Manager-App/internal/config"
	"github.com/Prxnesh/Task-Manager-App/internal/logger"
	"github.com/Prxnesh/Task-Manager-App/internal/manager"
	"github.com/Prxnesh/Task-Manager-App/internal/server"
	"github.com/Prxnesh/Task-Manager-App/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logger.Setup(cfg.Env, cfg.LogPath); err != nil {
		logger.Error(ctx, err, "logger setup failed")
		os.Exit(1)
	}
	defer logger.Close()
	logger.Info(ctx, "starting task api", "env", cfg.Env, "driver", cfg.Storage.Driver, "auth", cfg.Auth.Enabled)

	store, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Error(ctx, err, "storage open failed")
		os.Exit(1)
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		logger.Error(ctx, err, "schema init failed")
		os.Exit(1)
	}

	tasks := manager.NewTaskManager(store, cfg.Auth.Enabled)
	users := manager.NewUserManager(store, cfg.Auth.BcryptCost, cfg.Auth.SessionTTL)

	srv := &http.Server{
		Addr: cfg.HTTP.Address,
		Handler: server.NewRouter(tasks, users, server.CookieOptions{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", "address", cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error(ctx, err, "http server failed")
			store.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, err, "graceful shutdown failed")
	}
	logger.Info(context.Background(), "stopped")
}
