package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/atmoscale/compute-gateway/internal/blob"
	"github.com/atmoscale/compute-gateway/internal/broker"
	"github.com/atmoscale/compute-gateway/internal/cache"
	"github.com/atmoscale/compute-gateway/internal/config"
	"github.com/atmoscale/compute-gateway/internal/platform/gcs"
	"github.com/atmoscale/compute-gateway/internal/platform/postgres"
	"github.com/atmoscale/compute-gateway/internal/service"
	"github.com/atmoscale/compute-gateway/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

// application holds the shared application dependencies to simplify wiring
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Collaborators
	computations store.ComputationStore
	correlations store.CorrelationStore
	plugins      store.PluginStore
	queue        broker.TaskQueue
	blobs        blob.Store

	// Services
	directory  *service.PluginDirectory
	dispatcher *service.DispatchCoordinator
	status     *service.StatusResolver
	links      *service.ArtifactLinkIssuer

	// Shared read-through cache
	cache *cache.Cache

	metricsRegistry *prometheus.Registry

	blobCloser interface{ Close() error }
}

// newApplication creates an application instance with all dependencies
// initialized. It accepts the configuration, logger and database connection
// that must be established before application wiring.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		cache:  cache.New(),
	}

	// Stores
	app.computations = postgres.NewPostgresComputationStore(db, logger)
	app.correlations = postgres.NewPostgresCorrelationStore(db, logger)
	app.plugins = postgres.NewPostgresPluginStore(db, logger)
	app.queue = postgres.NewPostgresTaskQueue(db, cfg.Broker.HeartbeatTTL, logger)

	// Blob store
	blobStore, err := gcs.New(context.Background(), cfg.Store.Bucket, cfg.Store.CredentialsFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}
	app.blobs = blobStore
	app.blobCloser = blobStore

	// Services
	resolver := service.NewCorrelationResolver(app.correlations, logger)

	app.directory = service.NewPluginDirectory(
		app.plugins,
		app.queue,
		app.cache,
		cfg.Cache,
		cfg.Computation.ProtocolVersion,
		logger,
	)

	app.dispatcher = service.NewDispatchCoordinator(
		&store.DBTransactor{DB: db},
		app.directory,
		app.computations,
		resolver,
		app.queue,
		app.cache,
		cfg.Cache,
		cfg.Broker,
		cfg.Computation,
		logger,
	)

	app.status = service.NewStatusResolver(
		resolver,
		app.computations,
		app.queue,
		app.cache,
		cfg.Cache,
		cfg.Broker.QueueTimeout,
		logger,
	)

	app.links = service.NewArtifactLinkIssuer(
		resolver,
		app.computations,
		app.blobs,
		cfg.Store,
		logger,
	)

	app.metricsRegistry = prometheus.NewRegistry()

	logger.Info("application initialized")
	return app, nil
}

// Run starts the gateway server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.blobCloser != nil {
		if err := app.blobCloser.Close(); err != nil {
			app.logger.Error("error closing blob store client", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
