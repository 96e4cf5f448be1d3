package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with the ingestion routes, to be mounted
// under /api. sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	r.Get("/data", h.Data)
	r.Post("/insert", h.Insert)

	r.Get("/crates", h.ListCrates)
	r.Get("/crates/{id}", h.GetCrate)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
