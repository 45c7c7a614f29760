package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiwari-pos/dinein-terminal/internal/tables"
)

// TableSource exposes the table registry with derived statuses.
// Satisfied by *tables.Registry.
type TableSource interface {
	Snapshot() []tables.Table
}

// TablesHandler serves the table map.
type TablesHandler struct {
	src TableSource
}

// NewTablesHandler creates a new TablesHandler.
func NewTablesHandler(src TableSource) *TablesHandler {
	return &TablesHandler{src: src}
}

// RegisterRoutes registers table endpoints on the given Chi router.
func (h *TablesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// List returns all tables with their derived occupancy.
func (h *TablesHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.src.Snapshot())
}
