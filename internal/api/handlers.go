package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/metacrate/internal/apperr"
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Home handles GET /.
func Home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "API is running")
}

// Data handles GET /api/data.
func (h *Handler) Data(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Data retrieved successfully"})
}

// Insert handles POST /api/insert.
func (h *Handler) Insert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	rec, err := h.svc.Insert(r.Context(), body)
	if err != nil {
		var pe *apperr.ParseError
		if errors.As(err, &pe) {
			writeJSON(w, http.StatusBadRequest, errorBody(pe.Error()))
			return
		}
		slog.Error("insert crate failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, InsertResponse{
		Message: "Data inserted successfully",
		ID:      rec.ID,
		Data:    rec.Body,
	})
}

// ListCrates handles GET /api/crates.
func (h *Handler) ListCrates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	recs, total, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list crates failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	items := make([]CrateItem, len(recs))
	for i, rec := range recs {
		items[i] = CrateItem{ID: rec.ID, Checksum: rec.Checksum, CreatedAt: rec.CreatedAt}
	}
	writeJSON(w, http.StatusOK, CrateListResponse{Crates: items, Total: total})
}

// GetCrate handles GET /api/crates/{id}.
func (h *Handler) GetCrate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get crate failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, CrateDetail{
		CrateItem: CrateItem{ID: rec.ID, Checksum: rec.Checksum, CreatedAt: rec.CreatedAt},
		Data:      rec.Body,
	})
}
