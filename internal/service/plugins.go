package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atmoscale/compute-gateway/internal/broker"
	"github.com/atmoscale/compute-gateway/internal/cache"
	"github.com/atmoscale/compute-gateway/internal/config"
	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/platform/logger"
	"github.com/atmoscale/compute-gateway/internal/store"
)

// PluginDirectory answers questions about the registered plugins: their
// published info, protocol compatibility, and worker liveness. All reads are
// cheap but frequent, so each operation goes through its own cache TTL class.
type PluginDirectory struct {
	plugins  store.PluginStore
	queue    broker.TaskQueue
	cache    *cache.Cache
	cacheCfg config.CacheConfig

	// protocolVersion is the plugin protocol this gateway speaks.
	protocolVersion string

	logger *slog.Logger
}

// NewPluginDirectory creates a PluginDirectory.
// If logger is nil, a default logger is used.
func NewPluginDirectory(
	plugins store.PluginStore,
	queue broker.TaskQueue,
	c *cache.Cache,
	cacheCfg config.CacheConfig,
	protocolVersion string,
	logger *slog.Logger,
) *PluginDirectory {
	if plugins == nil {
		panic("plugins cannot be nil")
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

	return &PluginDirectory{
		plugins:         plugins,
		queue:           queue,
		cache:           c,
		cacheCfg:        cacheCfg,
		protocolVersion: protocolVersion,
		logger:          logger.With(slog.String("component", "plugin_directory")),
	}
}

// List returns the info of every registered, protocol-compatible plugin in
// sorted key order. Version-mismatched plugins are skipped with a warning
// rather than failing the whole listing.
func (d *PluginDirectory) List(ctx context.Context) ([]*domain.PluginInfo, error) {
	return cache.Through(ctx, d.cache, "plugin:list", d.cacheCfg.TTL(d.cacheCfg.PluginListTTL),
		func(ctx context.Context) ([]*domain.PluginInfo, error) {
			return d.list(ctx)
		})
}

func (d *PluginDirectory) list(ctx context.Context) ([]*domain.PluginInfo, error) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	keys, err := d.plugins.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plugins: %w", err)
	}

	infos := make([]*domain.PluginInfo, 0, len(keys))
	for _, key := range keys {
		info, err := d.info(ctx, key)
		if err != nil {
			if errors.Is(err, ErrVersionMismatch) {
				log.Warn("skipping plugin with protocol version mismatch",
					slog.String("plugin_key", key))
				continue
			}
			if errors.Is(err, ErrPluginNotFound) {
				// Deregistered between ListKeys and Get.
				continue
			}
			return nil, err
		}
		infos = append(infos, info)
	}

	return infos, nil
}

// Info returns one plugin's published info.
// Returns ErrPluginNotFound for unregistered plugins and ErrVersionMismatch
// for plugins publishing an incompatible protocol version.
func (d *PluginDirectory) Info(ctx context.Context, pluginKey string) (*domain.PluginInfo, error) {
	return cache.Through(ctx, d.cache, "plugin:info:"+pluginKey, d.cacheCfg.TTL(d.cacheCfg.PluginInfoTTL),
		func(ctx context.Context) (*domain.PluginInfo, error) {
			return d.info(ctx, pluginKey)
		})
}

func (d *PluginDirectory) info(ctx context.Context, pluginKey string) (*domain.PluginInfo, error) {
	info, err := d.plugins.Get(ctx, pluginKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, pluginKey)
		}
		return nil, err
	}

	if info.ProtocolVersion != d.protocolVersion {
		return nil, fmt.Errorf("%w: %s speaks protocol %s, gateway speaks %s",
			ErrVersionMismatch, pluginKey, info.ProtocolVersion, d.protocolVersion)
	}

	return info, nil
}

// Online reports whether the plugin's worker is reachable. It never fails:
// an unreachable broker or absent heartbeat both count as offline.
func (d *PluginDirectory) Online(ctx context.Context, pluginKey string) bool {
	online, err := cache.Through(ctx, d.cache, "plugin:ping:"+pluginKey, d.cacheCfg.TTL(d.cacheCfg.PluginPingTTL),
		func(ctx context.Context) (bool, error) {
			return d.online(ctx, pluginKey), nil
		})
	if err != nil {
		return false
	}
	return online
}

func (d *PluginDirectory) online(ctx context.Context, pluginKey string) bool {
	log := logger.FromContextOrDefault(ctx, d.logger)

	liveness, err := d.queue.Ping(ctx, []string{pluginKey})
	if err != nil {
		log.Warn("worker ping failed, reporting offline",
			slog.String("error", err.Error()),
			slog.String("plugin_key", pluginKey))
		return false
	}

	return liveness[pluginKey]
}
