package main

import (
	"net/http"

	"github.com/atmoscale/compute-gateway/internal/api"
	apimiddleware "github.com/atmoscale/compute-gateway/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates and configures the gateway router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.Trace)
	r.Use(apimiddleware.NewMetrics(app.metricsRegistry).Handler)

	pluginHandler := api.NewPluginHandler(app.directory, app.dispatcher, app.logger)
	computationHandler := api.NewComputationHandler(app.status, app.logger)
	storeHandler := api.NewStoreHandler(app.links, app.logger)
	metaHandler := api.NewMetaHandler()

	r.Get("/health", metaHandler.Health)
	r.Get("/metadata/concerns", metaHandler.Concerns)

	r.Route("/plugin", func(r chi.Router) {
		r.Get("/", pluginHandler.List)
		r.Get("/{id}", pluginHandler.Info)
		r.Get("/{id}/status", pluginHandler.Status)
		r.Post("/{id}", pluginHandler.Compute)
		r.Get("/{id}/demo", pluginHandler.Demo)
	})

	r.Route("/computation", func(r chi.Router) {
		r.Get("/{id}", computationHandler.Watch)
		r.Get("/{id}/state", computationHandler.State)
	})

	r.Route("/store", func(r chi.Router) {
		r.Get("/{id}/icon", storeHandler.Icon)
		r.Get("/{id}/metadata", storeHandler.Metadata)
		r.Get("/{id}", storeHandler.List)
		r.Get("/{id}/{store_id}", storeHandler.Artifact)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
		app.metricsRegistry,
		promhttp.HandlerOpts{},
	))

	return r
}
