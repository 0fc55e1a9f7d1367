package store

import (
	"context"

	"github.com/atmoscale/compute-gateway/internal/domain"
)

// PluginStore defines the interface for the plugin directory. Plugins
// register and refresh their self-description rows out of band (worker-side);
// the gateway only reads.
type PluginStore interface {
	// ListKeys returns the keys of all registered plugins in sorted order.
	ListKeys(ctx context.Context) ([]string, error)

	// Get retrieves the published info for one plugin.
	// Returns ErrPluginNotFound if the plugin is not registered.
	Get(ctx context.Context, key string) (*domain.PluginInfo, error)
}
