// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/beaconkpi/internal/middleware"
)

// NewRouter builds the chi router for h.
func NewRouter(h *Handler, cfg MiddlewareConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cfg.CORS())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SecurityHeaders)
		r.Use(middleware.PrometheusMetrics)

		r.Route("/health", func(r chi.Router) {
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})

		if h.ws != nil {
			r.Handle("/ws", h.ws)
		}

		r.Group(func(r chi.Router) {
			r.Use(cfg.RateLimit())

			r.Get("/kpi", h.KPIReport)
			r.Get("/kpi/last-refresh", h.KPILastRefresh)
			r.Get("/sync", h.SyncStatusHandler)
			r.Get("/sync/performance", h.SyncPerformance)
			r.Get("/case-studies", h.ListCaseStudies)
			r.Post("/case-studies", h.AddCaseStudy)
			r.Get("/audit", h.AuditEvents)
		})

		r.Group(func(r chi.Router) {
			r.Use(cfg.HeavyRateLimit())

			r.Post("/sync", h.TriggerSync)
			r.Post("/sync/smoke-test", h.SmokeTest)
			r.Post("/import/csv", h.ImportCSV)
		})
	})

	return r
}
