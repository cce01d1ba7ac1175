package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router. The
// prioritize endpoint is wrapped with limit when it is non-nil.
func MountRoutes(r chi.Router, h *Handlers, limit func(http.Handler) http.Handler) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		r.Get("/tasks", h.ListTasks)
		r.Post("/tasks", h.CreateTask)

		// Prioritization; static segments win over {id}.
		r.Group(func(r chi.Router) {
			if limit != nil {
				r.Use(limit)
			}
			r.Post("/tasks/prioritize", h.PrioritizeTasks)
		})
		r.Get("/tasks/prioritize/last", h.LastPrioritization)

		r.Get("/tasks/{id}", h.GetTask)
		r.Put("/tasks/{id}", h.UpdateTask)
		r.Delete("/tasks/{id}", h.DeleteTask)
		r.Post("/tasks/{id}/toggle", h.ToggleTask)
	})
}
