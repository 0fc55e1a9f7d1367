// Package gcs implements the blob.Store collaborator on Google Cloud
// Storage. Icons live under icons/<plugin>.png; computation artifacts live
// under <computation_id>/<store_id> with descriptor fields carried as object
// metadata.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/atmoscale/compute-gateway/internal/blob"
	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// iconPrefix is where plugin icon assets are stored in the bucket.
const iconPrefix = "icons/"

// Metadata keys workers set on artifact objects.
const (
	metaName     = "artifact-name"
	metaModality = "artifact-modality"
	metaRank     = "artifact-rank"
	metaSummary  = "artifact-summary"
)

// BlobStore implements blob.Store backed by a single GCS bucket.
type BlobStore struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

// New creates a GCS-backed blob store. credentialsFile may be empty to use
// ambient application-default credentials. If logger is nil, a default
// logger is used.
func New(ctx context.Context, bucket, credentialsFile string, logger *slog.Logger) (*BlobStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &BlobStore{
		client: client,
		bucket: bucket,
		logger: logger.With(slog.String("component", "blob_store")),
	}, nil
}

// Ensure BlobStore implements blob.Store
var _ blob.Store = (*BlobStore)(nil)

// Close releases the underlying client.
func (s *BlobStore) Close() error {
	return s.client.Close()
}

// IconURL implements blob.Store.IconURL.
func (s *BlobStore) IconURL(ctx context.Context, pluginKey string, expires time.Duration) (string, error) {
	object := iconPrefix + pluginKey + ".png"
	return s.signedURL(ctx, object, expires)
}

// ArtifactURL implements blob.Store.ArtifactURL.
func (s *BlobStore) ArtifactURL(
	ctx context.Context,
	computationID uuid.UUID,
	storeID string,
	expires time.Duration,
) (string, error) {
	object := computationID.String() + "/" + storeID
	return s.signedURL(ctx, object, expires)
}

// ListAll implements blob.Store.ListAll. Descriptors are ordered by their
// worker-assigned rank.
func (s *BlobStore) ListAll(ctx context.Context, computationID uuid.UUID) ([]domain.ArtifactDescriptor, error) {
	prefix := computationID.String() + "/"
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	artifacts := []domain.ArtifactDescriptor{}
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			s.logger.Error("failed to list artifacts",
				slog.String("error", err.Error()),
				slog.String("computation_id", computationID.String()))
			return nil, fmt.Errorf("%w: list: %v", blob.ErrUnavailable, err)
		}

		artifacts = append(artifacts, descriptorFromAttrs(attrs, prefix))
	}

	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].Rank < artifacts[j].Rank
	})

	return artifacts, nil
}

// signedURL verifies the object exists and issues a V4 signed URL for it.
func (s *BlobStore) signedURL(ctx context.Context, object string, expires time.Duration) (string, error) {
	bucket := s.client.Bucket(s.bucket)

	if _, err := bucket.Object(object).Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", fmt.Errorf("%w: %s", blob.ErrObjectNotFound, object)
		}
		s.logger.Error("failed to stat object",
			slog.String("error", err.Error()),
			slog.String("object", object))
		return "", fmt.Errorf("%w: stat %s: %v", blob.ErrUnavailable, object, err)
	}

	url, err := bucket.SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().UTC().Add(expires),
	})
	if err != nil {
		s.logger.Error("failed to sign URL",
			slog.String("error", err.Error()),
			slog.String("object", object))
		return "", fmt.Errorf("%w: sign %s: %v", blob.ErrUnavailable, object, err)
	}

	return url, nil
}

// descriptorFromAttrs builds an artifact descriptor from object attributes.
// Objects without descriptor metadata still list, with the store ID doubling
// as the name.
func descriptorFromAttrs(attrs *storage.ObjectAttrs, prefix string) domain.ArtifactDescriptor {
	storeID := strings.TrimPrefix(attrs.Name, prefix)

	d := domain.ArtifactDescriptor{
		Name:    storeID,
		StoreID: storeID,
	}

	if attrs.Metadata != nil {
		if name := attrs.Metadata[metaName]; name != "" {
			d.Name = name
		}
		d.Modality = attrs.Metadata[metaModality]
		d.Summary = attrs.Metadata[metaSummary]
		if rank, err := strconv.Atoi(attrs.Metadata[metaRank]); err == nil {
			d.Rank = rank
		}
	}

	return d
}
