package domain

import (
	"errors"
	"time"
)

// Common validation errors for PluginInfo
var (
	ErrEmptyPluginKey     = errors.New("plugin key cannot be empty")
	ErrEmptyPluginVersion = errors.New("plugin version cannot be empty")
)

// DemoConfig is a plugin-provided precomputed showcase: a fixed AOI geometry
// and parameter set that the gateway can dispatch on behalf of a client.
type DemoConfig struct {
	AOI    MultiPolygon   `json:"aoi"`
	Params map[string]any `json:"params"`
}

// PluginInfo is the self-description a plugin publishes to the directory.
type PluginInfo struct {
	Key             string         `json:"key"`
	Name            string         `json:"name"`
	Version         string         `json:"version"`
	ProtocolVersion string         `json:"protocol_version"`
	Teaser          string         `json:"teaser,omitempty"`
	Description     string         `json:"description,omitempty"`
	Concerns        []string       `json:"concerns,omitempty"`
	ParamsSchema    map[string]any `json:"params_schema,omitempty"`
	DemoConfig      *DemoConfig    `json:"demo_config,omitempty"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Validate checks if the PluginInfo has valid data.
func (p *PluginInfo) Validate() error {
	if p.Key == "" {
		return ErrEmptyPluginKey
	}

	if p.Version == "" {
		return ErrEmptyPluginVersion
	}

	return nil
}
