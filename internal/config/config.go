package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"      validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"    validate:"required"`
	Broker      BrokerConfig      `mapstructure:"broker"      validate:"required"`
	Store       StoreConfig       `mapstructure:"store"       validate:"required"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Computation ComputationConfig `mapstructure:"computation" validate:"required"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// BrokerConfig contains task-queue collaborator settings.
type BrokerConfig struct {
	// QueueTimeout is how long a computation may stay PENDING before the
	// gateway treats it as silently dropped and revokes it.
	QueueTimeout time.Duration `mapstructure:"queue_timeout" validate:"min=0"`

	// ComputationTimeLimit bounds worker-side execution; zero means no limit.
	ComputationTimeLimit time.Duration `mapstructure:"computation_time_limit" validate:"min=0"`

	// HeartbeatTTL is how stale a worker heartbeat may be before the worker
	// counts as offline.
	HeartbeatTTL time.Duration `mapstructure:"heartbeat_ttl" validate:"gt=0"`
}

// StoreConfig contains blob-store collaborator settings.
type StoreConfig struct {
	Bucket          string `mapstructure:"bucket" validate:"required"`
	CredentialsFile string `mapstructure:"credentials_file"`

	// RedirectTTL is the nominal lifetime of artifact redirect URLs.
	RedirectTTL time.Duration `mapstructure:"redirect_ttl" validate:"gt=0"`

	// ClockSkewBuffer is added on top of RedirectTTL when signing, so a URL
	// fetched at the very end of the redirect window still works.
	ClockSkewBuffer time.Duration `mapstructure:"clock_skew_buffer" validate:"gt=0"`
}

// CacheConfig holds the per-call-site TTL classes of the read-through cache.
// Disabled switches every cached call-site to a TTL of zero, which bypasses
// the cache entirely.
type CacheConfig struct {
	Disabled bool `mapstructure:"disabled"`

	PluginListTTL time.Duration `mapstructure:"plugin_list_ttl" validate:"min=0"`
	PluginInfoTTL time.Duration `mapstructure:"plugin_info_ttl" validate:"min=0"`
	PluginPingTTL time.Duration `mapstructure:"plugin_ping_ttl" validate:"min=0"`
	DispatchTTL   time.Duration `mapstructure:"dispatch_ttl"    validate:"min=0"`
	StatusTTL     time.Duration `mapstructure:"status_ttl"      validate:"min=0"`
	DemoTTL       time.Duration `mapstructure:"demo_ttl"        validate:"min=0"`
}

// TTL returns d, or zero when caching is globally disabled.
func (c CacheConfig) TTL(d time.Duration) time.Duration {
	if c.Disabled {
		return 0
	}
	return d
}

// ComputationConfig contains computation lifecycle settings.
type ComputationConfig struct {
	// ShelfLife is how long a computation record may be reused for identical
	// resubmissions before it expires.
	ShelfLife time.Duration `mapstructure:"shelf_life" validate:"gt=0"`

	// ProtocolVersion is the plugin protocol version this gateway speaks.
	// Plugins publishing a different protocol version are version-mismatched.
	ProtocolVersion string `mapstructure:"protocol_version" validate:"required"`
}
