package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/platform/logger"
	"github.com/atmoscale/compute-gateway/internal/store"
	"github.com/google/uuid"
)

// PostgresCorrelationStore implements the store.CorrelationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCorrelationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCorrelationStore creates a new PostgreSQL implementation of the
// CorrelationStore interface. If logger is nil, a default logger is used.
func NewPostgresCorrelationStore(db store.DBTX, logger *slog.Logger) *PostgresCorrelationStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCorrelationStore{
		db:     db,
		logger: logger.With(slog.String("component", "correlation_store")),
	}
}

// Ensure PostgresCorrelationStore implements store.CorrelationStore
var _ store.CorrelationStore = (*PostgresCorrelationStore)(nil)

// WithTx returns a new CorrelationStore bound to the given transaction.
func (s *PostgresCorrelationStore) WithTx(tx *sql.Tx) store.CorrelationStore {
	return &PostgresCorrelationStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.CorrelationStore.Create.
// Returns store.ErrInvalidEntity when the referenced computation does not
// exist (foreign key violation).
func (s *PostgresCorrelationStore) Create(ctx context.Context, correlation *domain.Correlation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := correlation.Validate(); err != nil {
		log.Warn("correlation validation failed during create",
			slog.String("error", err.Error()),
			slog.String("correlation_id", correlation.ID.String()))
		return err
	}

	params, err := json.Marshal(correlation.RequestedParams)
	if err != nil {
		return fmt.Errorf("failed to marshal requested params: %w", err)
	}
	aoi, err := json.Marshal(correlation.AOI)
	if err != nil {
		return fmt.Errorf("failed to marshal AOI: %w", err)
	}

	query := `
		INSERT INTO correlations
			(id, computation_id, plugin_key, requested_params, aoi, registered_at, is_demo)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		correlation.ID,
		correlation.ComputationID,
		correlation.PluginKey,
		params,
		aoi,
		correlation.RegisteredAt,
		correlation.IsDemo,
	)
	if err != nil {
		log.Error("failed to create correlation",
			slog.String("error", err.Error()),
			slog.String("correlation_id", correlation.ID.String()),
			slog.String("computation_id", correlation.ComputationID.String()))
		return MapError(err)
	}

	log.Info("correlation registered",
		slog.String("correlation_id", correlation.ID.String()),
		slog.String("computation_id", correlation.ComputationID.String()),
		slog.Bool("is_demo", correlation.IsDemo))
	return nil
}

// GetByID implements store.CorrelationStore.GetByID.
// Returns store.ErrCorrelationNotFound if the correlation does not exist.
func (s *PostgresCorrelationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Correlation, error) {
	query := `
		SELECT id, computation_id, plugin_key, requested_params, aoi, registered_at, is_demo
		FROM correlations
		WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, id)

	var (
		c         domain.Correlation
		paramsRaw []byte
		aoiRaw    []byte
	)
	err := row.Scan(
		&c.ID,
		&c.ComputationID,
		&c.PluginKey,
		&paramsRaw,
		&aoiRaw,
		&c.RegisteredAt,
		&c.IsDemo,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCorrelationNotFound
		}
		return nil, MapError(err)
	}

	if len(paramsRaw) > 0 {
		if err := json.Unmarshal(paramsRaw, &c.RequestedParams); err != nil {
			return nil, fmt.Errorf("failed to unmarshal requested params: %w", err)
		}
	}
	if len(aoiRaw) > 0 {
		if err := json.Unmarshal(aoiRaw, &c.AOI); err != nil {
			return nil, fmt.Errorf("failed to unmarshal AOI: %w", err)
		}
	}

	return &c, nil
}

// ResolveComputationID implements store.CorrelationStore.ResolveComputationID.
// Returns store.ErrCorrelationNotFound if the correlation does not exist.
func (s *PostgresCorrelationStore) ResolveComputationID(ctx context.Context, correlationID uuid.UUID) (uuid.UUID, error) {
	query := `SELECT computation_id FROM correlations WHERE id = $1`

	var computationID uuid.UUID
	err := s.db.QueryRowContext(ctx, query, correlationID).Scan(&computationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, store.ErrCorrelationNotFound
		}
		return uuid.Nil, MapError(err)
	}

	return computationID, nil
}
