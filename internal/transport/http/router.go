package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carbonledger/internal/platform/middleware"
)

// NewRouter wires all endpoints. Mutating routes carry the auth middleware
// when a validator is supplied; reads stay open.
func NewRouter(h *Handler, logger *slog.Logger, validator middleware.JWTValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		if validator != nil {
			r.Use(middleware.RequireAuth(validator, logger))
		}
		r.Post("/init", h.handleInit)
		r.Post("/projects", h.handleRegisterProject)
		r.Post("/credits/issue", h.handleIssueCredits)
		r.Post("/credits/transfer", h.handleTransfer)
		r.Post("/credits/retire", h.handleRetire)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Get("/projects", h.handleListProjects)
		r.Get("/projects/{project_id}", h.handleGetProject)
		r.Get("/accounts/{address}/balance", h.handleBalance)
		r.Get("/accounts/{address}/credits", h.handleCredits)
		r.Get("/retired", h.handleTotalRetired)
	})

	return r
}
