package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/platform/logger"
	"github.com/atmoscale/compute-gateway/internal/store"
	"github.com/google/uuid"
)

// PostgresComputationStore implements the store.ComputationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresComputationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresComputationStore creates a new PostgreSQL implementation of the
// ComputationStore interface. If logger is nil, a default logger is used.
func NewPostgresComputationStore(db store.DBTX, logger *slog.Logger) *PostgresComputationStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresComputationStore{
		db:     db,
		logger: logger.With(slog.String("component", "computation_store")),
	}
}

// Ensure PostgresComputationStore implements store.ComputationStore
var _ store.ComputationStore = (*PostgresComputationStore)(nil)

// WithTx returns a new ComputationStore bound to the given transaction.
func (s *PostgresComputationStore) WithTx(tx *sql.Tx) store.ComputationStore {
	return &PostgresComputationStore{
		db:     tx,
		logger: s.logger,
	}
}

// CreateOrReuse implements store.ComputationStore.CreateOrReuse.
//
// Live records are protected by a partial unique index on (dedup_key) WHERE
// NOT superseded. The flow is: mark any expired live record superseded, try
// a conflict-tolerant insert, and when no row was inserted read back the
// winner. The insert uses ON CONFLICT DO NOTHING against the partial index
// so losing to an existing live record does not abort the surrounding
// transaction. Expired records are kept as rows for auditability; they
// simply stop participating in the index.
func (s *PostgresComputationStore) CreateOrReuse(
	ctx context.Context,
	computation *domain.Computation,
) (*domain.Computation, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := computation.Validate(); err != nil {
		log.Warn("computation validation failed during create",
			slog.String("error", err.Error()),
			slog.String("computation_id", computation.ID.String()))
		return nil, false, err
	}

	supersedeQuery := `
		UPDATE computations
		SET superseded = TRUE
		WHERE dedup_key = $1 AND NOT superseded AND valid_until <= $2
	`
	if _, err := s.db.ExecContext(ctx, supersedeQuery, computation.DedupKey, time.Now().UTC()); err != nil {
		log.Error("failed to supersede expired computation",
			slog.String("error", err.Error()),
			slog.String("dedup_key", computation.DedupKey))
		return nil, false, MapError(err)
	}

	params, err := json.Marshal(computation.Params)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal params: %w", err)
	}
	artifacts, err := json.Marshal(computation.Artifacts)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal artifacts: %w", err)
	}

	insertQuery := `
		INSERT INTO computations
			(id, dedup_key, plugin_key, params, status, status_message,
			 registered_at, valid_until, cache_epoch, artifacts, superseded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE)
		ON CONFLICT (dedup_key) WHERE NOT superseded DO NOTHING
	`
	result, err := s.db.ExecContext(
		ctx,
		insertQuery,
		computation.ID,
		computation.DedupKey,
		computation.PluginKey,
		params,
		computation.Status,
		computation.StatusMessage,
		computation.RegisteredAt,
		computation.ValidUntil,
		computation.CacheEpoch,
		artifacts,
	)

	if err != nil {
		log.Error("failed to create computation",
			slog.String("error", err.Error()),
			slog.String("computation_id", computation.ID.String()))
		return nil, false, MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, MapError(err)
	}

	if affected > 0 {
		log.Info("computation created",
			slog.String("computation_id", computation.ID.String()),
			slog.String("dedup_key", computation.DedupKey))
		return computation, true, nil
	}

	// A live record with the same dedup key already exists, either from an
	// earlier identical submission or from a concurrent one that won the
	// insert race. The existing record is authoritative.
	existing, err := s.getLiveByDedupKey(ctx, computation.DedupKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The winner was superseded between our insert and read. Treat
			// as a dedup conflict and let the caller retry the submission.
			return nil, false, store.ErrDedupKeyExists
		}
		return nil, false, err
	}

	log.Info("computation reused",
		slog.String("computation_id", existing.ID.String()),
		slog.String("dedup_key", existing.DedupKey))
	return existing, false, nil
}

// GetByID implements store.ComputationStore.GetByID.
// Returns store.ErrComputationNotFound if the computation does not exist.
func (s *PostgresComputationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Computation, error) {
	query := `
		SELECT id, dedup_key, plugin_key, params, status, status_message,
		       registered_at, valid_until, cache_epoch, artifacts
		FROM computations
		WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, id)

	computation, err := scanComputation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrComputationNotFound
		}
		return nil, MapError(err)
	}

	return computation, nil
}

// TransitionStatus implements store.ComputationStore.TransitionStatus.
// The update is conditional on the current status, which makes re-applying
// the same transition under concurrent callers a no-op rather than an error.
func (s *PostgresComputationStore) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	expected, target domain.ComputationState,
	message string,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE computations
		SET status = $1, status_message = $2
		WHERE id = $3 AND status = $4
	`
	result, err := s.db.ExecContext(ctx, query, target, message, id, expected)
	if err != nil {
		log.Error("failed to transition computation status",
			slog.String("error", err.Error()),
			slog.String("computation_id", id.String()),
			slog.String("target", string(target)))
		return false, MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, MapError(err)
	}

	if affected == 0 {
		log.Debug("status transition skipped, current status does not match",
			slog.String("computation_id", id.String()),
			slog.String("expected", string(expected)),
			slog.String("target", string(target)))
		return false, nil
	}

	log.Info("computation status transitioned",
		slog.String("computation_id", id.String()),
		slog.String("from", string(expected)),
		slog.String("to", string(target)))
	return true, nil
}

// getLiveByDedupKey reads the current live (non-superseded) record for a
// dedup key.
func (s *PostgresComputationStore) getLiveByDedupKey(ctx context.Context, dedupKey string) (*domain.Computation, error) {
	query := `
		SELECT id, dedup_key, plugin_key, params, status, status_message,
		       registered_at, valid_until, cache_epoch, artifacts
		FROM computations
		WHERE dedup_key = $1 AND NOT superseded
	`
	row := s.db.QueryRowContext(ctx, query, dedupKey)

	computation, err := scanComputation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrComputationNotFound
		}
		return nil, MapError(err)
	}

	return computation, nil
}

// scanComputation reads one computation row.
func scanComputation(row *sql.Row) (*domain.Computation, error) {
	var (
		c             domain.Computation
		paramsRaw     []byte
		artifactsRaw  []byte
		statusMessage sql.NullString
	)

	err := row.Scan(
		&c.ID,
		&c.DedupKey,
		&c.PluginKey,
		&paramsRaw,
		&c.Status,
		&statusMessage,
		&c.RegisteredAt,
		&c.ValidUntil,
		&c.CacheEpoch,
		&artifactsRaw,
	)
	if err != nil {
		return nil, err
	}

	if statusMessage.Valid {
		c.StatusMessage = statusMessage.String
	}

	if len(paramsRaw) > 0 {
		if err := json.Unmarshal(paramsRaw, &c.Params); err != nil {
			return nil, fmt.Errorf("failed to unmarshal params: %w", err)
		}
	}
	if len(artifactsRaw) > 0 {
		if err := json.Unmarshal(artifactsRaw, &c.Artifacts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal artifacts: %w", err)
		}
	}

	return &c, nil
}
