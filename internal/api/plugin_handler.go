// Package api provides HTTP handlers for the gateway API.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/atmoscale/compute-gateway/internal/api/shared"
	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Dispatcher accepts compute submissions.
type Dispatcher interface {
	Submit(ctx context.Context, pluginKey string, aoi *domain.AOIFeature, params map[string]any, isDemo bool) (uuid.UUID, error)
	SubmitDemo(ctx context.Context, pluginKey string) (uuid.UUID, error)
}

// Directory answers plugin listing, detail and liveness questions.
type Directory interface {
	List(ctx context.Context) ([]*domain.PluginInfo, error)
	Info(ctx context.Context, pluginKey string) (*domain.PluginInfo, error)
	Online(ctx context.Context, pluginKey string) bool
}

// PluginHandler handles plugin-related HTTP requests.
type PluginHandler struct {
	directory  Directory
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewPluginHandler creates a new PluginHandler.
func NewPluginHandler(directory Directory, dispatcher Dispatcher, log *slog.Logger) *PluginHandler {
	if directory == nil {
		panic("directory cannot be nil")
	}
	if dispatcher == nil {
		panic("dispatcher cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PluginHandler{
		directory:  directory,
		dispatcher: dispatcher,
		logger:     log.With(slog.String("component", "plugin_handler")),
	}
}

// List handles GET /plugin requests.
func (h *PluginHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.directory.List(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, infos)
}

// Info handles GET /plugin/{id} requests.
func (h *PluginHandler) Info(w http.ResponseWriter, r *http.Request) {
	pluginKey := chi.URLParam(r, "id")

	info, err := h.directory.Info(r.Context(), pluginKey)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, info)
}

// Status handles GET /plugin/{id}/status requests. It never errors: an
// unreachable worker or broker reports offline.
func (h *PluginHandler) Status(w http.ResponseWriter, r *http.Request) {
	pluginKey := chi.URLParam(r, "id")

	status := PluginStatusOffline
	if h.directory.Online(r.Context(), pluginKey) {
		status = PluginStatusOnline
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PluginStatusResponse{Status: status})
}

// Compute handles POST /plugin/{id} requests.
func (h *PluginHandler) Compute(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	pluginKey := chi.URLParam(r, "id")

	var req ComputeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("failed to decode compute request",
			slog.String("error", err.Error()),
			slog.String("plugin_key", pluginKey))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		log.Debug("compute request validation failed",
			slog.String("error", err.Error()),
			slog.String("plugin_key", pluginKey))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing area of interest")
		return
	}

	correlationID, err := h.dispatcher.Submit(r.Context(), pluginKey, req.AOI, req.Params, false)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CorrelationIDResponse{
		CorrelationUUID: correlationID.String(),
	})
}

// Demo handles GET /plugin/{id}/demo requests.
func (h *PluginHandler) Demo(w http.ResponseWriter, r *http.Request) {
	pluginKey := chi.URLParam(r, "id")

	correlationID, err := h.dispatcher.SubmitDemo(r.Context(), pluginKey)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CorrelationIDResponse{
		CorrelationUUID: correlationID.String(),
	})
}
