package api

import (
	"net/http"

	"github.com/atmoscale/compute-gateway/internal/api/shared"
	"github.com/atmoscale/compute-gateway/internal/domain"
)

// MetaHandler serves the liveness probe and static gateway metadata.
type MetaHandler struct{}

// NewMetaHandler creates a new MetaHandler.
func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

// Health handles GET /health requests.
func (h *MetaHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

// Concerns handles GET /metadata/concerns requests with the static concern
// taxonomy.
func (h *MetaHandler) Concerns(w http.ResponseWriter, r *http.Request) {
	concerns := domain.Concerns()
	items := make([]string, 0, len(concerns))
	for _, c := range concerns {
		items = append(items, string(c))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ConcernsResponse{Items: items})
}
