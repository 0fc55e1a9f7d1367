package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPluginRouter(directory Directory, dispatcher Dispatcher) http.Handler {
	handler := NewPluginHandler(directory, dispatcher, nil)

	r := chi.NewRouter()
	r.Get("/plugin", handler.List)
	r.Get("/plugin/{id}", handler.Info)
	r.Get("/plugin/{id}/status", handler.Status)
	r.Post("/plugin/{id}", handler.Compute)
	r.Get("/plugin/{id}/demo", handler.Demo)
	return r
}

func testInfo(key string) *domain.PluginInfo {
	return &domain.PluginInfo{
		Key:             key,
		Name:            key,
		Version:         "1.2.0",
		ProtocolVersion: "3",
		UpdatedAt:       time.Now().UTC(),
	}
}

func TestPluginHandler_List(t *testing.T) {
	t.Parallel()

	router := newPluginRouter(
		&stubDirectory{infos: []*domain.PluginInfo{testInfo("soil-moisture"), testInfo("yield-forecast")}},
		&stubDispatcher{},
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plugin", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var infos []domain.PluginInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&infos))
	assert.Len(t, infos, 2)
}

func TestPluginHandler_Info_NotFound(t *testing.T) {
	t.Parallel()

	router := newPluginRouter(&stubDirectory{}, &stubDispatcher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plugin/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPluginHandler_Info_VersionMismatchIsServerError(t *testing.T) {
	t.Parallel()

	router := newPluginRouter(&stubDirectory{infoErr: service.ErrVersionMismatch}, &stubDispatcher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plugin/legacy", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPluginHandler_Status(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		online bool
		want   string
	}{
		{name: "online worker", online: true, want: PluginStatusOnline},
		{name: "offline worker", online: false, want: PluginStatusOffline},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := newPluginRouter(&stubDirectory{online: tc.online}, &stubDispatcher{})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plugin/soil-moisture/status", nil))

			require.Equal(t, http.StatusOK, rec.Code)

			var body PluginStatusResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.want, body.Status)
		})
	}
}

func TestPluginHandler_Compute(t *testing.T) {
	t.Parallel()

	correlationID := uuid.New()
	dispatcher := &stubDispatcher{correlationID: correlationID}
	router := newPluginRouter(&stubDirectory{}, dispatcher)

	body := `{
		"aoi": {
			"type": "Feature",
			"properties": {"name": "Test Field", "id": "field-1"},
			"geometry": {
				"type": "MultiPolygon",
				"coordinates": [[[[8.0, 50.0], [8.1, 50.0], [8.1, 50.1], [8.0, 50.0]]]]
			}
		},
		"params": {"depth": 30}
	}`

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/plugin/soil-moisture", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CorrelationIDResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, correlationID.String(), resp.CorrelationUUID)

	assert.Equal(t, "soil-moisture", dispatcher.lastPlugin)
	require.NotNil(t, dispatcher.lastAOI)
	assert.Equal(t, "field-1", dispatcher.lastAOI.Properties.ID)
	assert.Equal(t, float64(30), dispatcher.lastParams["depth"])
}

func TestPluginHandler_Compute_BadBody(t *testing.T) {
	t.Parallel()

	router := newPluginRouter(&stubDirectory{}, &stubDispatcher{})

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed JSON", body: `{"aoi": `},
		{name: "missing AOI", body: `{"params": {}}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/plugin/soil-moisture", strings.NewReader(tc.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPluginHandler_Compute_UnknownPlugin(t *testing.T) {
	t.Parallel()

	router := newPluginRouter(&stubDirectory{}, &stubDispatcher{submitErr: service.ErrPluginNotFound})

	body := `{"aoi": {"type": "Feature", "properties": {"name": "n", "id": "i"}, "geometry": {"type": "MultiPolygon", "coordinates": []}}}`

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/plugin/missing", strings.NewReader(body)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPluginHandler_Demo(t *testing.T) {
	t.Parallel()

	correlationID := uuid.New()
	router := newPluginRouter(&stubDirectory{}, &stubDispatcher{correlationID: correlationID})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plugin/soil-moisture/demo", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CorrelationIDResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, correlationID.String(), resp.CorrelationUUID)
}

func TestPluginHandler_Demo_NoDemo(t *testing.T) {
	t.Parallel()

	router := newPluginRouter(&stubDirectory{}, &stubDispatcher{demoErr: service.ErrNoDemo})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plugin/soil-moisture/demo", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
