package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ComputationState mirrors the broker's task states. PENDING, STARTED and
// RETRY are transient; SUCCESS, FAILURE and REVOKED are terminal.
type ComputationState string

// Possible computation state values
const (
	ComputationStatePending ComputationState = "PENDING"
	ComputationStateStarted ComputationState = "STARTED"
	ComputationStateSuccess ComputationState = "SUCCESS"
	ComputationStateFailure ComputationState = "FAILURE"
	ComputationStateRetry   ComputationState = "RETRY"
	ComputationStateRevoked ComputationState = "REVOKED"
)

// Common validation errors for Computation
var (
	ErrEmptyComputationID       = errors.New("computation ID cannot be empty")
	ErrEmptyDedupKey            = errors.New("computation dedup key cannot be empty")
	ErrInvalidComputationState  = errors.New("invalid computation state")
	ErrInvalidComputationExpiry = errors.New("computation expiry must be after registration")
)

// IsTerminal reports whether the state can no longer change.
func (s ComputationState) IsTerminal() bool {
	switch s {
	case ComputationStateSuccess, ComputationStateFailure, ComputationStateRevoked:
		return true
	}
	return false
}

// IsValid reports whether s is one of the known states.
func (s ComputationState) IsValid() bool {
	switch s {
	case ComputationStatePending, ComputationStateStarted, ComputationStateSuccess,
		ComputationStateFailure, ComputationStateRetry, ComputationStateRevoked:
		return true
	}
	return false
}

// ArtifactDescriptor describes one output object of a computation.
// Descriptors belong to exactly one computation and are immutable once written.
type ArtifactDescriptor struct {
	Name     string `json:"name"`
	Modality string `json:"modality"`
	StoreID  string `json:"store_id"`
	Rank     int    `json:"rank"`
	Summary  string `json:"summary"`
}

// Computation represents one unit of plugin work. Many correlations may
// reference the same computation: the dedup key is the canonical fingerprint
// of (plugin, version, AOI, parameters) and is unique among live records.
type Computation struct {
	ID            uuid.UUID            `json:"id"`
	DedupKey      string               `json:"dedup_key"`
	PluginKey     string               `json:"plugin_key"`
	Params        map[string]any       `json:"params"`
	Status        ComputationState     `json:"status"`
	StatusMessage string               `json:"status_message,omitempty"`
	RegisteredAt  time.Time            `json:"registered_at"`
	ValidUntil    time.Time            `json:"valid_until"`
	CacheEpoch    int                  `json:"cache_epoch"`
	Artifacts     []ArtifactDescriptor `json:"artifacts,omitempty"`
}

// NewComputation creates a pending Computation with a fresh ID. The shelf
// life bounds how long identical resubmissions may reuse the record.
func NewComputation(pluginKey, dedupKey string, params map[string]any, shelfLife time.Duration) (*Computation, error) {
	now := time.Now().UTC()
	c := &Computation{
		ID:           uuid.New(),
		DedupKey:     dedupKey,
		PluginKey:    pluginKey,
		Params:       params,
		Status:       ComputationStatePending,
		RegisteredAt: now,
		ValidUntil:   now.Add(shelfLife),
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate checks if the Computation has valid data.
func (c *Computation) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyComputationID
	}

	if c.DedupKey == "" {
		return ErrEmptyDedupKey
	}

	if !c.Status.IsValid() {
		return ErrInvalidComputationState
	}

	if !c.ValidUntil.After(c.RegisteredAt) {
		return ErrInvalidComputationExpiry
	}

	return nil
}

// Expired reports whether the record's shelf life has passed at the given
// instant. Expired records no longer participate in deduplication.
func (c *Computation) Expired(now time.Time) bool {
	return !now.Before(c.ValidUntil)
}
