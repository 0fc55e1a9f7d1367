package api

import (
	"time"

	"github.com/atmoscale/compute-gateway/internal/domain"
)

// ComputeRequest is the body of a computation submission: the area of
// interest plus plugin-specific parameters. Parameters are validated against
// the plugin's declared schema worker-side, not here.
type ComputeRequest struct {
	AOI    *domain.AOIFeature `json:"aoi"    validate:"required"`
	Params map[string]any     `json:"params"`
}

// CorrelationIDResponse is the handle returned for every submission.
type CorrelationIDResponse struct {
	CorrelationUUID string `json:"correlation_uuid"`
}

// PluginStatusResponse reports worker liveness for one plugin.
type PluginStatusResponse struct {
	Status string `json:"status"`
}

// Plugin liveness values.
const (
	PluginStatusOnline  = "online"
	PluginStatusOffline = "offline"
)

// ComputationStateResponse is the polled status of a computation.
type ComputationStateResponse struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

// ComputationMetadataResponse is the persisted view of a computation record.
type ComputationMetadataResponse struct {
	PluginKey     string         `json:"plugin_key"`
	Params        map[string]any `json:"params"`
	Status        string         `json:"status"`
	StatusMessage string         `json:"status_message,omitempty"`
	RegisteredAt  time.Time      `json:"registered_at"`
	ValidUntil    time.Time      `json:"valid_until"`
}

// ArtifactResponse describes one output object of a computation.
type ArtifactResponse struct {
	Name     string `json:"name"`
	Modality string `json:"modality"`
	StoreID  string `json:"store_id"`
	Rank     int    `json:"rank"`
	Summary  string `json:"summary,omitempty"`
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status string `json:"status"`
}

// ConcernsResponse is the static concern taxonomy.
type ConcernsResponse struct {
	Items []string `json:"items"`
}

func metadataToResponse(record *domain.Computation) ComputationMetadataResponse {
	return ComputationMetadataResponse{
		PluginKey:     record.PluginKey,
		Params:        record.Params,
		Status:        string(record.Status),
		StatusMessage: record.StatusMessage,
		RegisteredAt:  record.RegisteredAt,
		ValidUntil:    record.ValidUntil,
	}
}

func artifactsToResponse(descriptors []domain.ArtifactDescriptor) []ArtifactResponse {
	out := make([]ArtifactResponse, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, ArtifactResponse{
			Name:     d.Name,
			Modality: d.Modality,
			StoreID:  d.StoreID,
			Rank:     d.Rank,
			Summary:  d.Summary,
		})
	}
	return out
}
