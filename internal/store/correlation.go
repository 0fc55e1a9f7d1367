package store

import (
	"context"
	"database/sql"

	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/google/uuid"
)

// CorrelationStore defines the interface for correlation persistence.
// Correlations are append-only: created once per client submission, never
// mutated, never deleted.
type CorrelationStore interface {
	// Create persists a new correlation. Registration is always allowed,
	// even when the correlation points at a reused computation.
	Create(ctx context.Context, correlation *domain.Correlation) error

	// GetByID retrieves a correlation by its client-visible ID.
	// Returns ErrCorrelationNotFound if no such record exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Correlation, error)

	// ResolveComputationID maps a client-visible correlation ID to the
	// internal computation ID. Returns ErrCorrelationNotFound if no record
	// exists.
	ResolveComputationID(ctx context.Context, correlationID uuid.UUID) (uuid.UUID, error)

	// WithTx returns a new CorrelationStore instance that uses the provided
	// transaction. Use together with store.RunInTransaction.
	WithTx(tx *sql.Tx) CorrelationStore
}
