package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atmoscale/compute-gateway/internal/blob"
	"github.com/atmoscale/compute-gateway/internal/config"
	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/store"
	"github.com/google/uuid"
)

// ArtifactLinkIssuer resolves correlation IDs to computations and hands out
// pre-signed, time-limited links for their artifacts. Every issued URL
// carries an expiry strictly greater than the nominal redirect TTL plus a
// clock-skew buffer, so a link fetched at the very end of the redirect
// window still works.
type ArtifactLinkIssuer struct {
	resolver     *CorrelationResolver
	computations store.ComputationStore
	blobs        blob.Store

	storeCfg config.StoreConfig

	logger *slog.Logger
}

// NewArtifactLinkIssuer creates an ArtifactLinkIssuer.
// If logger is nil, a default logger is used.
func NewArtifactLinkIssuer(
	resolver *CorrelationResolver,
	computations store.ComputationStore,
	blobs blob.Store,
	storeCfg config.StoreConfig,
	logger *slog.Logger,
) *ArtifactLinkIssuer {
	if resolver == nil {
		panic("resolver cannot be nil")
	}
	if computations == nil {
		panic("computations cannot be nil")
	}
	if blobs == nil {
		panic("blobs cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ArtifactLinkIssuer{
		resolver:     resolver,
		computations: computations,
		blobs:        blobs,
		storeCfg:     storeCfg,
		logger:       logger.With(slog.String("component", "artifact_link_issuer")),
	}
}

// signedExpiry is the expiry applied to every issued URL: the nominal
// redirect TTL plus the configured clock-skew buffer.
func (li *ArtifactLinkIssuer) signedExpiry() time.Duration {
	return li.storeCfg.RedirectTTL + li.storeCfg.ClockSkewBuffer
}

// IconURL returns a pre-signed URL for the plugin's icon asset.
// Returns ErrIconNotFound when the plugin has no icon.
func (li *ArtifactLinkIssuer) IconURL(ctx context.Context, pluginKey string) (string, error) {
	url, err := li.blobs.IconURL(ctx, pluginKey, li.signedExpiry())
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			return "", fmt.Errorf("%w: %s", ErrIconNotFound, pluginKey)
		}
		return "", err
	}
	return url, nil
}

// Metadata returns the persisted computation record behind a correlation ID:
// a summary of the validated inputs and the computation's lifecycle fields.
// Returns ErrUnknownCorrelation for IDs this gateway never issued.
func (li *ArtifactLinkIssuer) Metadata(ctx context.Context, correlationID uuid.UUID) (*domain.Computation, error) {
	computationID, err := li.resolver.Resolve(ctx, correlationID)
	if err != nil {
		return nil, err
	}

	record, err := li.computations.GetByID(ctx, computationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownCorrelation
		}
		return nil, err
	}

	return record, nil
}

// ListArtifacts returns descriptors for everything the computation has
// produced so far. A known computation that has not produced output yet
// yields an empty list, not an error.
// Returns ErrUnknownCorrelation for IDs this gateway never issued.
func (li *ArtifactLinkIssuer) ListArtifacts(ctx context.Context, correlationID uuid.UUID) ([]domain.ArtifactDescriptor, error) {
	computationID, err := li.resolver.Resolve(ctx, correlationID)
	if err != nil {
		return nil, err
	}

	return li.blobs.ListAll(ctx, computationID)
}

// ArtifactURL returns a pre-signed URL for one artifact of the computation
// behind a correlation ID.
// Returns ErrUnknownCorrelation for unissued correlation IDs and
// ErrArtifactNotFound for missing artifacts.
func (li *ArtifactLinkIssuer) ArtifactURL(ctx context.Context, correlationID uuid.UUID, storeID string) (string, error) {
	computationID, err := li.resolver.Resolve(ctx, correlationID)
	if err != nil {
		return "", err
	}

	url, err := li.blobs.ArtifactURL(ctx, computationID, storeID, li.signedExpiry())
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			return "", fmt.Errorf("%w: %s/%s", ErrArtifactNotFound, correlationID, storeID)
		}
		return "", err
	}
	return url, nil
}
