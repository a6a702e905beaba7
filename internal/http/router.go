package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finbooks/pkg/platform/middleware/metadata"
)

// NewRouter wires the compliance pipeline's HTTP surface. The handler stays
// thin: it delegates to the writer and incident store without embedding
// business logic.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.Capture)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/audit/logs", h.handleAuditLogs)

		r.Route("/incidents", func(r chi.Router) {
			r.Post("/", h.handleReportIncident)
			r.Get("/open", h.handleOpenIncidents)
			r.Post("/{incidentID}/ico-notified", h.handleMarkICONotified)
			r.Post("/{incidentID}/users-notified", h.handleMarkUsersNotified)
			r.Patch("/{incidentID}/status", h.handleUpdateStatus)
		})
	})

	return r
}
