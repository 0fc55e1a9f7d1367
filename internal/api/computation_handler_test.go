package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newComputationRouter(status StatusProvider) http.Handler {
	handler := NewComputationHandler(status, nil)

	r := chi.NewRouter()
	r.Get("/computation/{id}", handler.Watch)
	r.Get("/computation/{id}/state", handler.State)
	return r
}

func TestComputationHandler_State(t *testing.T) {
	t.Parallel()

	router := newComputationRouter(&stubStatusProvider{
		status: service.StatusInfo{
			State:   domain.ComputationStateFailure,
			Message: "ID: Field required.",
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/computation/"+uuid.NewString()+"/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body ComputationStateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "FAILURE", body.State)
	assert.Equal(t, "ID: Field required.", body.Message)
}

func TestComputationHandler_State_UnknownCorrelation(t *testing.T) {
	t.Parallel()

	router := newComputationRouter(&stubStatusProvider{err: service.ErrUnknownCorrelation})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/computation/"+uuid.NewString()+"/state", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComputationHandler_State_MalformedID(t *testing.T) {
	t.Parallel()

	router := newComputationRouter(&stubStatusProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/computation/not-a-uuid/state", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComputationHandler_Watch_ClosesWithNotImplemented(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(newComputationRouter(&stubStatusProvider{}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/computation/" + uuid.NewString()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	defer func() { _ = resp.Body.Close() }()

	_, _, err = conn.ReadMessage()
	require.Error(t, err)

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
	assert.Equal(t, "not implemented", closeErr.Text)
}
