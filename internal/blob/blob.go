// Package blob defines the blob-store collaborator interface the gateway
// issues pre-signed artifact links through. The store's internal storage
// engine is out of scope; the gateway only asks it for time-limited URLs and
// artifact listings.
package blob

import (
	"context"
	"errors"
	"time"

	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/google/uuid"
)

// Sentinel errors returned by blob store implementations.
var (
	// ErrObjectNotFound is returned when the requested icon or artifact does
	// not exist in the store.
	ErrObjectNotFound = errors.New("object not found")

	// ErrUnavailable is returned when the blob store cannot be reached or a
	// query times out.
	ErrUnavailable = errors.New("blob store unavailable")
)

// Store is the blob-store collaborator consumed by the artifact link issuer.
// All returned URLs are time-limited capability links; implementations must
// set the expiry strictly beyond the requested duration's nominal use window
// (the caller adds the clock-skew buffer).
type Store interface {
	// IconURL returns a pre-signed URL for a plugin's icon asset.
	// Returns ErrObjectNotFound if the plugin has no icon.
	IconURL(ctx context.Context, pluginKey string, expires time.Duration) (string, error)

	// ArtifactURL returns a pre-signed URL for one artifact of a computation.
	// Returns ErrObjectNotFound if no such artifact exists.
	ArtifactURL(ctx context.Context, computationID uuid.UUID, storeID string, expires time.Duration) (string, error)

	// ListAll returns descriptors for every artifact the computation has
	// produced so far. A computation that has not produced output yet yields
	// an empty slice, not an error.
	ListAll(ctx context.Context, computationID uuid.UUID) ([]domain.ArtifactDescriptor, error)
}
