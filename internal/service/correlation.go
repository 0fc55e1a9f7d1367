package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/platform/logger"
	"github.com/atmoscale/compute-gateway/internal/store"
	"github.com/google/uuid"
)

// CorrelationResolver maps client-visible correlation IDs to internal
// computation IDs and registers new correlations. Registration is always
// allowed, even when the correlation points at a reused computation: that is
// what lets many clients share one computation while each holds a private
// handle.
type CorrelationResolver struct {
	correlations store.CorrelationStore
	logger       *slog.Logger
}

// NewCorrelationResolver creates a CorrelationResolver.
// If logger is nil, a default logger is used.
func NewCorrelationResolver(correlations store.CorrelationStore, logger *slog.Logger) *CorrelationResolver {
	if correlations == nil {
		panic("correlations cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &CorrelationResolver{
		correlations: correlations,
		logger:       logger.With(slog.String("component", "correlation_resolver")),
	}
}

// Resolve maps a correlation ID to its computation ID.
// Returns ErrUnknownCorrelation when the ID was never issued.
func (r *CorrelationResolver) Resolve(ctx context.Context, correlationID uuid.UUID) (uuid.UUID, error) {
	computationID, err := r.correlations.ResolveComputationID(ctx, correlationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return uuid.Nil, ErrUnknownCorrelation
		}
		return uuid.Nil, err
	}
	return computationID, nil
}

// Register creates a new correlation pointing at the given computation and
// returns it.
func (r *CorrelationResolver) Register(
	ctx context.Context,
	computationID uuid.UUID,
	pluginKey string,
	params map[string]any,
	aoi *domain.AOIFeature,
	isDemo bool,
) (*domain.Correlation, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	correlation, err := domain.NewCorrelation(computationID, pluginKey, params, aoi, isDemo)
	if err != nil {
		return nil, err
	}

	if err := r.correlations.Create(ctx, correlation); err != nil {
		log.Error("failed to register correlation",
			slog.String("error", err.Error()),
			slog.String("computation_id", computationID.String()))
		return nil, err
	}

	return correlation, nil
}

// registerInTx registers a correlation through a transaction-bound store, so
// the dispatch path commits the correlation atomically with the computation
// check-and-insert.
func (r *CorrelationResolver) registerInTx(
	ctx context.Context,
	tx *sql.Tx,
	computationID uuid.UUID,
	pluginKey string,
	params map[string]any,
	aoi *domain.AOIFeature,
	isDemo bool,
) (*domain.Correlation, error) {
	bound := &CorrelationResolver{
		correlations: r.correlations.WithTx(tx),
		logger:       r.logger,
	}
	return bound.Register(ctx, computationID, pluginKey, params, aoi, isDemo)
}
