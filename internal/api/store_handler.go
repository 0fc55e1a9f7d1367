package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/atmoscale/compute-gateway/internal/api/shared"
	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// LinkIssuer resolves correlations to computations and issues pre-signed
// artifact links.
type LinkIssuer interface {
	IconURL(ctx context.Context, pluginKey string) (string, error)
	Metadata(ctx context.Context, correlationID uuid.UUID) (*domain.Computation, error)
	ListArtifacts(ctx context.Context, correlationID uuid.UUID) ([]domain.ArtifactDescriptor, error)
	ArtifactURL(ctx context.Context, correlationID uuid.UUID, storeID string) (string, error)
}

// StoreHandler handles artifact store HTTP requests. Fetches redirect to
// time-limited signed URLs rather than proxying object bytes through the
// gateway.
type StoreHandler struct {
	links  LinkIssuer
	logger *slog.Logger
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(links LinkIssuer, log *slog.Logger) *StoreHandler {
	if links == nil {
		panic("links cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &StoreHandler{
		links:  links,
		logger: log.With(slog.String("component", "store_handler")),
	}
}

// Icon handles GET /store/{id}/icon requests with a 307 redirect to the
// signed icon URL. The id segment carries the plugin key here, not a
// correlation ID.
func (h *StoreHandler) Icon(w http.ResponseWriter, r *http.Request) {
	pluginKey := chi.URLParam(r, "id")

	url, err := h.links.IconURL(r.Context(), pluginKey)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Metadata handles GET /store/{id}/metadata requests.
func (h *StoreHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	correlationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Unknown correlation ID")
		return
	}

	record, err := h.links.Metadata(r.Context(), correlationID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, metadataToResponse(record))
}

// List handles GET /store/{id} requests. A computation that has produced no
// output yet yields an empty list, not an error.
func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	correlationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Unknown correlation ID")
		return
	}

	artifacts, err := h.links.ListArtifacts(r.Context(), correlationID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, artifactsToResponse(artifacts))
}

// Artifact handles GET /store/{id}/{store_id} requests with a 307 redirect to
// the signed artifact URL.
func (h *StoreHandler) Artifact(w http.ResponseWriter, r *http.Request) {
	correlationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Unknown correlation ID")
		return
	}
	storeID := chi.URLParam(r, "store_id")

	url, err := h.links.ArtifactURL(r.Context(), correlationID, storeID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}
