package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/pokersignup/internal/api"
	"github.com/mcoot/pokersignup/internal/factory"
)

const housekeepingInterval = 5 * time.Minute

func main() {
	// A missing .env file is fine; anything else is worth knowing about
	envErr := godotenv.Load(envOrDefault("ENV_FILE", ".env"))

	cfg, err := loadConfig(os.Getenv)

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("could not load env file", slog.String("error", envErr.Error()))
	}
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg.Factory.Logger = logger

	app, err := factory.New(cfg.Factory)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	server := api.NewServer(app.APIRouter(), cfg.Server, logger)
	// Event streams never finish on their own, so end them before the drain deadline
	server.OnShutdown(app.HubManager.CloseAll)
	if err := server.Listen(); err != nil {
		logger.Error("failed to bind", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go housekeeping(ctx, app, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", app.StorageType))

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			return
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
		}
	}

	logger.Info("server stopped")
}

// housekeeping periodically drops expired sessions and idle event hubs
func housekeeping(ctx context.Context, app *factory.App, logger *slog.Logger) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions := app.AuthService.CleanExpiredSessions()
			hubs := app.HubManager.CleanupEmptyHubs()
			if sessions > 0 || hubs > 0 {
				logger.Debug("housekeeping",
					slog.Int("expired_sessions", sessions),
					slog.Int("idle_hubs", hubs))
			}
		}
	}
}
