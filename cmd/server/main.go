// Package main implements the entry point for the compute gateway: the HTTP
// layer that deduplicates computation submissions, resolves their status and
// issues time-limited artifact links.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/atmoscale/compute-gateway/internal/config"
	"github.com/atmoscale/compute-gateway/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run database migrations (up|down|status) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("failed to set up logger: %v", err)
	}

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd); err != nil {
			appLogger.Error("migrations failed",
				slog.String("command", *migrateCmd),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), cfg, appLogger); err != nil {
		appLogger.Error("gateway exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run wires the application together and serves until shutdown.
func run(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) error {
	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	app, err := newApplication(cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	appLogger.Info("gateway configured",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("cache_disabled", cfg.Cache.Disabled),
		slog.String("protocol_version", cfg.Computation.ProtocolVersion))

	return app.Run(ctx)
}
