package api

import (
	"context"

	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/service"
	"github.com/google/uuid"
)

// stubDirectory serves canned plugin directory answers.
type stubDirectory struct {
	infos   []*domain.PluginInfo
	infoErr error
	listErr error
	online  bool
}

func (d *stubDirectory) List(ctx context.Context) ([]*domain.PluginInfo, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	return d.infos, nil
}

func (d *stubDirectory) Info(ctx context.Context, pluginKey string) (*domain.PluginInfo, error) {
	if d.infoErr != nil {
		return nil, d.infoErr
	}
	for _, info := range d.infos {
		if info.Key == pluginKey {
			return info, nil
		}
	}
	return nil, service.ErrPluginNotFound
}

func (d *stubDirectory) Online(ctx context.Context, pluginKey string) bool {
	return d.online
}

// stubDispatcher records the last submission and returns a fixed correlation.
type stubDispatcher struct {
	correlationID uuid.UUID
	submitErr     error
	demoErr       error

	lastPlugin string
	lastAOI    *domain.AOIFeature
	lastParams map[string]any
}

func (d *stubDispatcher) Submit(ctx context.Context, pluginKey string, aoi *domain.AOIFeature, params map[string]any, isDemo bool) (uuid.UUID, error) {
	if d.submitErr != nil {
		return uuid.Nil, d.submitErr
	}
	d.lastPlugin = pluginKey
	d.lastAOI = aoi
	d.lastParams = params
	return d.correlationID, nil
}

func (d *stubDispatcher) SubmitDemo(ctx context.Context, pluginKey string) (uuid.UUID, error) {
	if d.demoErr != nil {
		return uuid.Nil, d.demoErr
	}
	d.lastPlugin = pluginKey
	return d.correlationID, nil
}

// stubStatusProvider serves one canned status.
type stubStatusProvider struct {
	status service.StatusInfo
	err    error
}

func (s *stubStatusProvider) GetStatus(ctx context.Context, correlationID uuid.UUID) (service.StatusInfo, error) {
	if s.err != nil {
		return service.StatusInfo{}, s.err
	}
	return s.status, nil
}

// stubLinkIssuer serves canned link answers.
type stubLinkIssuer struct {
	iconURL     string
	iconErr     error
	record      *domain.Computation
	metadataErr error
	artifacts   []domain.ArtifactDescriptor
	listErr     error
	artifactURL string
	artifactErr error
}

func (l *stubLinkIssuer) IconURL(ctx context.Context, pluginKey string) (string, error) {
	if l.iconErr != nil {
		return "", l.iconErr
	}
	return l.iconURL, nil
}

func (l *stubLinkIssuer) Metadata(ctx context.Context, correlationID uuid.UUID) (*domain.Computation, error) {
	if l.metadataErr != nil {
		return nil, l.metadataErr
	}
	return l.record, nil
}

func (l *stubLinkIssuer) ListArtifacts(ctx context.Context, correlationID uuid.UUID) ([]domain.ArtifactDescriptor, error) {
	if l.listErr != nil {
		return nil, l.listErr
	}
	return l.artifacts, nil
}

func (l *stubLinkIssuer) ArtifactURL(ctx context.Context, correlationID uuid.UUID, storeID string) (string, error) {
	if l.artifactErr != nil {
		return "", l.artifactErr
	}
	return l.artifactURL, nil
}
