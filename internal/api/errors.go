package api

import (
	"errors"
	"net/http"

	"github.com/atmoscale/compute-gateway/internal/blob"
	"github.com/atmoscale/compute-gateway/internal/broker"
	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/service"
	"github.com/atmoscale/compute-gateway/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrPluginNotFound),
		errors.Is(err, service.ErrUnknownCorrelation),
		errors.Is(err, service.ErrNoDemo),
		errors.Is(err, service.ErrIconNotFound),
		errors.Is(err, service.ErrArtifactNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// A registered plugin speaking the wrong protocol is a deployment
	// problem, not a client one.
	case errors.Is(err, service.ErrVersionMismatch):
		return http.StatusInternalServerError

	// Unreachable collaborators
	case errors.Is(err, broker.ErrUnavailable),
		errors.Is(err, blob.ErrUnavailable):
		return http.StatusBadGateway

	// Structurally malformed submissions
	case errors.Is(err, domain.ErrInvalidFeatureType),
		errors.Is(err, domain.ErrInvalidGeometryType),
		errors.Is(err, domain.ErrEmptyGeometry),
		errors.Is(err, domain.ErrOpenRing),
		errors.Is(err, domain.ErrShortRing),
		errors.Is(err, domain.ErrEmptyAOIName),
		errors.Is(err, domain.ErrEmptyAOIID):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message based
// on the error type.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrPluginNotFound):
		return "Plugin not found"

	case errors.Is(err, service.ErrUnknownCorrelation):
		return "Unknown correlation ID"

	case errors.Is(err, service.ErrNoDemo):
		return "Plugin does not provide a demo"

	case errors.Is(err, service.ErrIconNotFound):
		return "Icon not found"

	case errors.Is(err, service.ErrArtifactNotFound):
		return "Artifact not found"

	case errors.Is(err, service.ErrVersionMismatch):
		return "Plugin is temporarily unavailable"

	case errors.Is(err, broker.ErrUnavailable):
		return "Task queue is unavailable"

	case errors.Is(err, blob.ErrUnavailable):
		return "Artifact store is unavailable"

	case errors.Is(err, domain.ErrInvalidFeatureType),
		errors.Is(err, domain.ErrInvalidGeometryType),
		errors.Is(err, domain.ErrEmptyGeometry),
		errors.Is(err, domain.ErrOpenRing),
		errors.Is(err, domain.ErrShortRing),
		errors.Is(err, domain.ErrEmptyAOIName),
		errors.Is(err, domain.ErrEmptyAOIID):
		return err.Error()

	default:
		return "An unexpected error occurred"
	}
}
