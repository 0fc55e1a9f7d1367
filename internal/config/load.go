package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional config
// file. Environment variables (prefix GATEWAY_, nested keys joined with _)
// take precedence over values from the config file, which takes precedence
// over defaults. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/compute-gateway")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine: env vars and defaults cover everything.
	}

	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the default value for every setting so AutomaticEnv
// picks the keys up even without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("broker.queue_timeout", "30m")
	v.SetDefault("broker.computation_time_limit", "0s")
	v.SetDefault("broker.heartbeat_ttl", "90s")

	v.SetDefault("store.bucket", "")
	v.SetDefault("store.credentials_file", "")
	v.SetDefault("store.redirect_ttl", "1h")
	v.SetDefault("store.clock_skew_buffer", "60s")

	v.SetDefault("cache.disabled", false)
	v.SetDefault("cache.plugin_list_ttl", "60s")
	v.SetDefault("cache.plugin_info_ttl", "1h")
	v.SetDefault("cache.plugin_ping_ttl", "60s")
	v.SetDefault("cache.dispatch_ttl", "3s")
	v.SetDefault("cache.status_ttl", "2s")
	// Demo dispatch results are static per plugin release; they only fall
	// out of the cache on restart, explicit invalidation, or override here.
	v.SetDefault("cache.demo_ttl", "2562047h")

	v.SetDefault("computation.shelf_life", "24h")
	v.SetDefault("computation.protocol_version", "1")
}
