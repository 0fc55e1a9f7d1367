package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/atmoscale/compute-gateway/internal/broker"
	"github.com/atmoscale/compute-gateway/internal/cache"
	"github.com/atmoscale/compute-gateway/internal/config"
	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/platform/logger"
	"github.com/atmoscale/compute-gateway/internal/store"
	"github.com/google/uuid"
)

// DispatchCoordinator accepts compute submissions and guarantees at most one
// live computation per dedup key. The check-and-insert runs inside a database
// transaction guarded by a uniqueness constraint, never an application lock,
// so the guarantee holds across multiple gateway instances.
type DispatchCoordinator struct {
	tx           store.Transactor
	directory    *PluginDirectory
	computations store.ComputationStore
	resolver     *CorrelationResolver
	queue        broker.TaskQueue
	cache        *cache.Cache

	cacheCfg   config.CacheConfig
	brokerCfg  config.BrokerConfig
	computeCfg config.ComputationConfig

	logger *slog.Logger
}

// NewDispatchCoordinator creates a DispatchCoordinator.
// If logger is nil, a default logger is used.
func NewDispatchCoordinator(
	tx store.Transactor,
	directory *PluginDirectory,
	computations store.ComputationStore,
	resolver *CorrelationResolver,
	queue broker.TaskQueue,
	c *cache.Cache,
	cacheCfg config.CacheConfig,
	brokerCfg config.BrokerConfig,
	computeCfg config.ComputationConfig,
	logger *slog.Logger,
) *DispatchCoordinator {
	if tx == nil {
		panic("tx cannot be nil")
	}
	if directory == nil {
		panic("directory cannot be nil")
	}
	if computations == nil {
		panic("computations cannot be nil")
	}
	if resolver == nil {
		panic("resolver cannot be nil")
	}
	if queue == nil {
		panic("queue cannot be nil")
	}
	if c == nil {
		panic("cache cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &DispatchCoordinator{
		tx:           tx,
		directory:    directory,
		computations: computations,
		resolver:     resolver,
		queue:        queue,
		cache:        c,
		cacheCfg:     cacheCfg,
		brokerCfg:    brokerCfg,
		computeCfg:   computeCfg,
		logger:       logger.With(slog.String("component", "dispatch_coordinator")),
	}
}

// Submit schedules a computation for the given plugin and returns a fresh
// correlation ID. Identical submissions within a live computation's shelf
// life reuse that computation; rapid duplicate retries within the debounce
// window do not even reach the persistence layer.
//
// Parameter validation against the plugin's declared schema is deliberately
// deferred to the worker and surfaced later through the status resolver;
// submission only checks structural well-formedness of the AOI.
func (dc *DispatchCoordinator) Submit(
	ctx context.Context,
	pluginKey string,
	aoi *domain.AOIFeature,
	params map[string]any,
	isDemo bool,
) (uuid.UUID, error) {
	info, err := dc.directory.Info(ctx, pluginKey)
	if err != nil {
		return uuid.Nil, err
	}

	if err := aoi.Validate(); err != nil {
		return uuid.Nil, err
	}

	dedupKey, err := ComputeDedupKey(info.Key, info.Version, aoi, params)
	if err != nil {
		return uuid.Nil, err
	}

	// Debounce window: rapid duplicate client retries collapse onto the same
	// correlation before persistence dedup even engages.
	return cache.Through(ctx, dc.cache, "dispatch:"+dedupKey, dc.cacheCfg.TTL(dc.cacheCfg.DispatchTTL),
		func(ctx context.Context) (uuid.UUID, error) {
			return dc.submit(ctx, info, dedupKey, aoi, params, isDemo)
		})
}

func (dc *DispatchCoordinator) submit(
	ctx context.Context,
	info *domain.PluginInfo,
	dedupKey string,
	aoi *domain.AOIFeature,
	params map[string]any,
	isDemo bool,
) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, dc.logger)

	candidate, err := domain.NewComputation(info.Key, dedupKey, params, dc.computeCfg.ShelfLife)
	if err != nil {
		return uuid.Nil, err
	}

	var (
		authoritative *domain.Computation
		created       bool
		correlation   *domain.Correlation
	)
	err = dc.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var txErr error
		authoritative, created, txErr = dc.computations.WithTx(tx).CreateOrReuse(ctx, candidate)
		if txErr != nil {
			return txErr
		}

		correlation, txErr = dc.resolver.registerInTx(ctx, tx, authoritative.ID, info.Key, params, aoi, isDemo)
		return txErr
	})
	if err != nil {
		return uuid.Nil, err
	}

	if created {
		task := broker.Task{
			ComputationID: authoritative.ID,
			PluginKey:     info.Key,
			AOI:           aoi,
			Params:        params,
			TimeLimit:     dc.brokerCfg.ComputationTimeLimit,
			QueueTimeout:  dc.brokerCfg.QueueTimeout,
			CacheForever:  isDemo,
		}
		if err := dc.queue.Enqueue(ctx, task); err != nil {
			// The computation row stays PENDING; the stale-PENDING
			// self-healing path revokes it once the queue timeout passes.
			log.Error("failed to enqueue computation",
				slog.String("error", err.Error()),
				slog.String("computation_id", authoritative.ID.String()))
			return uuid.Nil, err
		}
	}

	log.Info("computation submitted",
		slog.String("correlation_id", correlation.ID.String()),
		slog.String("computation_id", authoritative.ID.String()),
		slog.Bool("created", created),
		slog.Bool("is_demo", isDemo))
	return correlation.ID, nil
}

// SubmitDemo schedules (or reuses) the plugin's precomputed demo
// computation. The result is cached effectively forever, keyed by plugin key
// and version so a plugin release naturally invalidates it.
// Returns ErrNoDemo when the plugin provides no demo configuration.
func (dc *DispatchCoordinator) SubmitDemo(ctx context.Context, pluginKey string) (uuid.UUID, error) {
	info, err := dc.directory.Info(ctx, pluginKey)
	if err != nil {
		return uuid.Nil, err
	}

	if info.DemoConfig == nil {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrNoDemo, pluginKey)
	}

	key := demoCacheKey(info.Key, info.Version)
	return cache.Through(ctx, dc.cache, key, dc.cacheCfg.TTL(dc.cacheCfg.DemoTTL),
		func(ctx context.Context) (uuid.UUID, error) {
			aoi := &domain.AOIFeature{
				Type:       "Feature",
				Properties: domain.AOIProperties{Name: "Demo", ID: info.Key + "-demo"},
				Geometry:   info.DemoConfig.AOI,
			}
			return dc.Submit(ctx, info.Key, aoi, info.DemoConfig.Params, true)
		})
}

// InvalidateDemo drops any cached demo dispatch results for the plugin, all
// versions. This is the explicit invalidation hook for operators rolling a
// plugin release without restarting the gateway.
func (dc *DispatchCoordinator) InvalidateDemo(pluginKey string) {
	dc.cache.InvalidatePrefix("demo:" + pluginKey + ":")
}

func demoCacheKey(pluginKey, version string) string {
	return "demo:" + pluginKey + ":" + version
}
