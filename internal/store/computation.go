package store

import (
	"context"
	"database/sql"

	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/google/uuid"
)

// ComputationStore defines the interface for computation persistence.
// Deduplication correctness rests on CreateOrReuse being atomic against the
// database (unique constraint, not an application lock), so it holds across
// multiple gateway instances.
type ComputationStore interface {
	// CreateOrReuse inserts the given computation unless a live (non-expired)
	// record with the same dedup key already exists. It returns the
	// authoritative record and whether it was newly created. Expired records
	// with the same dedup key are superseded, never reused.
	//
	// Two concurrent calls with the same dedup key yield exactly one created
	// record; the loser receives the winner's record with created == false.
	CreateOrReuse(ctx context.Context, computation *domain.Computation) (*domain.Computation, bool, error)

	// GetByID retrieves a computation by its internal ID.
	// Returns ErrComputationNotFound if no such record exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Computation, error)

	// TransitionStatus updates the computation's status and message only if
	// its current status equals expected. It reports whether the row was
	// updated. A false return with no error means another caller already
	// applied the transition (or the record moved on), which makes the
	// stale-PENDING revocation path idempotent under concurrent observers.
	TransitionStatus(
		ctx context.Context,
		id uuid.UUID,
		expected, target domain.ComputationState,
		message string,
	) (bool, error)

	// WithTx returns a new ComputationStore instance that uses the provided
	// transaction. Use together with store.RunInTransaction.
	WithTx(tx *sql.Tx) ComputationStore
}
