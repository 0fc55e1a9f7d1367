package service

import (
	"context"
	"testing"
	"time"

	"github.com/atmoscale/compute-gateway/internal/config"
	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type linksFixture struct {
	issuer       *ArtifactLinkIssuer
	computations *fakeComputationStore
	correlations *fakeCorrelationStore
	blobs        *fakeBlobStore
}

func newLinksFixture(t *testing.T) *linksFixture {
	t.Helper()

	f := &linksFixture{
		computations: newFakeComputationStore(),
		correlations: newFakeCorrelationStore(),
		blobs:        newFakeBlobStore(),
	}

	f.issuer = NewArtifactLinkIssuer(
		NewCorrelationResolver(f.correlations, nil),
		f.computations,
		f.blobs,
		config.StoreConfig{
			Bucket:          "test-bucket",
			RedirectTTL:     time.Hour,
			ClockSkewBuffer: time.Minute,
		},
		nil,
	)
	return f
}

// register seeds a computation and a correlation pointing at it.
func (f *linksFixture) register(t *testing.T) (correlationID, computationID uuid.UUID) {
	t.Helper()

	now := time.Now().UTC()
	record := &domain.Computation{
		ID:           uuid.New(),
		DedupKey:     "dedup-" + uuid.NewString(),
		PluginKey:    "soil-moisture",
		Status:       domain.ComputationStateSuccess,
		RegisteredAt: now,
		ValidUntil:   now.Add(24 * time.Hour),
	}
	f.computations.put(record)

	correlation, err := domain.NewCorrelation(record.ID, record.PluginKey, nil, testAOI(), false)
	require.NoError(t, err)
	require.NoError(t, f.correlations.Create(context.Background(), correlation))

	return correlation.ID, record.ID
}

func TestArtifactLinkIssuer_IconURL(t *testing.T) {
	t.Parallel()

	f := newLinksFixture(t)
	f.blobs.icons["soil-moisture"] = "https://store.example/icons/soil-moisture.png?sig=abc"

	url, err := f.issuer.IconURL(context.Background(), "soil-moisture")
	require.NoError(t, err)
	assert.Equal(t, "https://store.example/icons/soil-moisture.png?sig=abc", url)

	// Every issued URL outlives the nominal redirect window by the clock-skew
	// buffer.
	assert.Equal(t, time.Hour+time.Minute, f.blobs.lastExpiry)
}

func TestArtifactLinkIssuer_IconURL_NotFound(t *testing.T) {
	t.Parallel()

	f := newLinksFixture(t)

	_, err := f.issuer.IconURL(context.Background(), "soil-moisture")
	assert.ErrorIs(t, err, ErrIconNotFound)
}

func TestArtifactLinkIssuer_Metadata(t *testing.T) {
	t.Parallel()

	f := newLinksFixture(t)
	correlationID, computationID := f.register(t)

	record, err := f.issuer.Metadata(context.Background(), correlationID)
	require.NoError(t, err)
	assert.Equal(t, computationID, record.ID)
	assert.Equal(t, "soil-moisture", record.PluginKey)
}

func TestArtifactLinkIssuer_Metadata_UnknownCorrelation(t *testing.T) {
	t.Parallel()

	f := newLinksFixture(t)

	_, err := f.issuer.Metadata(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUnknownCorrelation)
}

func TestArtifactLinkIssuer_ListArtifacts_EmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	f := newLinksFixture(t)
	correlationID, _ := f.register(t)

	artifacts, err := f.issuer.ListArtifacts(context.Background(), correlationID)
	require.NoError(t, err)
	assert.Empty(t, artifacts)
}

func TestArtifactLinkIssuer_ListArtifacts(t *testing.T) {
	t.Parallel()

	f := newLinksFixture(t)
	correlationID, _ := f.register(t)
	f.blobs.listed = []domain.ArtifactDescriptor{
		{Name: "Moisture Map", Modality: "raster", StoreID: "moisture.tif", Rank: 0},
		{Name: "Summary", Modality: "report", StoreID: "summary.pdf", Rank: 1},
	}

	artifacts, err := f.issuer.ListArtifacts(context.Background(), correlationID)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "moisture.tif", artifacts[0].StoreID)
}

func TestArtifactLinkIssuer_ArtifactURL(t *testing.T) {
	t.Parallel()

	f := newLinksFixture(t)
	correlationID, computationID := f.register(t)
	f.blobs.artifacts[computationID.String()+"/moisture.tif"] = "https://store.example/moisture.tif?sig=abc"

	url, err := f.issuer.ArtifactURL(context.Background(), correlationID, "moisture.tif")
	require.NoError(t, err)
	assert.Equal(t, "https://store.example/moisture.tif?sig=abc", url)
	assert.Equal(t, time.Hour+time.Minute, f.blobs.lastExpiry)
}

func TestArtifactLinkIssuer_ArtifactURL_NotFound(t *testing.T) {
	t.Parallel()

	f := newLinksFixture(t)
	correlationID, _ := f.register(t)

	_, err := f.issuer.ArtifactURL(context.Background(), correlationID, "missing.tif")
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestArtifactLinkIssuer_ArtifactURL_UnknownCorrelation(t *testing.T) {
	t.Parallel()

	f := newLinksFixture(t)

	_, err := f.issuer.ArtifactURL(context.Background(), uuid.New(), "moisture.tif")
	assert.ErrorIs(t, err, ErrUnknownCorrelation)
}
