package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Correlation
var (
	ErrEmptyCorrelationID            = errors.New("correlation ID cannot be empty")
	ErrEmptyCorrelationComputationID = errors.New("correlation computation ID cannot be empty")
	ErrEmptyCorrelationPluginKey     = errors.New("correlation plugin key cannot be empty")
)

// Correlation is the client-visible handle for a submission. Every submission
// gets its own correlation, even when the underlying computation is reused,
// so clients always hold a private handle. Correlations are written once and
// kept forever as an audit trail.
type Correlation struct {
	ID              uuid.UUID      `json:"correlation_uuid"`
	ComputationID   uuid.UUID      `json:"computation_uuid"`
	PluginKey       string         `json:"plugin_key"`
	RequestedParams map[string]any `json:"requested_params"`
	AOI             *AOIFeature    `json:"aoi"`
	RegisteredAt    time.Time      `json:"registered_at"`
	IsDemo          bool           `json:"is_demo"`
}

// NewCorrelation creates a Correlation with a fresh client-visible ID.
func NewCorrelation(computationID uuid.UUID, pluginKey string, params map[string]any, aoi *AOIFeature, isDemo bool) (*Correlation, error) {
	c := &Correlation{
		ID:              uuid.New(),
		ComputationID:   computationID,
		PluginKey:       pluginKey,
		RequestedParams: params,
		AOI:             aoi,
		RegisteredAt:    time.Now().UTC(),
		IsDemo:          isDemo,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate checks if the Correlation has valid data.
func (c *Correlation) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCorrelationID
	}

	if c.ComputationID == uuid.Nil {
		return ErrEmptyCorrelationComputationID
	}

	if c.PluginKey == "" {
		return ErrEmptyCorrelationPluginKey
	}

	return nil
}
