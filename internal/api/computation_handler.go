package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/atmoscale/compute-gateway/internal/api/shared"
	"github.com/atmoscale/compute-gateway/internal/platform/logger"
	"github.com/atmoscale/compute-gateway/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// StatusProvider resolves the current status of a computation.
type StatusProvider interface {
	GetStatus(ctx context.Context, correlationID uuid.UUID) (service.StatusInfo, error)
}

// ComputationHandler handles computation status HTTP requests.
type ComputationHandler struct {
	status   StatusProvider
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewComputationHandler creates a new ComputationHandler.
func NewComputationHandler(status StatusProvider, log *slog.Logger) *ComputationHandler {
	if status == nil {
		panic("status cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ComputationHandler{
		status: status,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: log.With(slog.String("component", "computation_handler")),
	}
}

// State handles GET /computation/{id}/state requests.
func (h *ComputationHandler) State(w http.ResponseWriter, r *http.Request) {
	correlationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Unknown correlation ID")
		return
	}

	status, err := h.status.GetStatus(r.Context(), correlationID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ComputationStateResponse{
		State:   string(status.State),
		Message: status.Message,
	})
}

// Watch handles WS /computation/{id} requests. Live status push is not
// implemented; the connection is accepted and closed immediately with an
// explicit reason so clients fall back to polling instead of hanging.
func (h *ComputationHandler) Watch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Debug("failed to close websocket", slog.String("error", err.Error()))
		}
	}()

	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "not implemented")
	deadline := time.Now().Add(5 * time.Second)
	if err := conn.WriteControl(websocket.CloseMessage, message, deadline); err != nil {
		log.Debug("failed to send websocket close", slog.String("error", err.Error()))
	}
}
