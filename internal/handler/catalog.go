package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kiwari-pos/dinein-terminal/internal/catalog"
)

// CatalogSource exposes the current menu snapshot.
// Satisfied by *catalog.Snapshot; narrow interface for testability.
type CatalogSource interface {
	Items() []catalog.Item
}

// CatalogHandler serves the cached menu to terminals.
type CatalogHandler struct {
	src CatalogSource
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(src CatalogSource) *CatalogHandler {
	return &CatalogHandler{src: src}
}

// RegisterRoutes registers catalog endpoints on the given Chi router.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type catalogItemResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Price           string `json:"price"`
	Category        string `json:"category"`
	PrepTimeMinutes int    `json:"prep_time_minutes"`
	Description     string `json:"description,omitempty"`
}

type catalogResponse struct {
	Items       []catalogItemResponse `json:"items"`
	RetrievedAt time.Time             `json:"retrieved_at"`
}

// List returns the current catalog snapshot. The snapshot may be empty when
// the menu collaborator has never answered; that is not an error here.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.src.Items()
	resp := catalogResponse{
		Items:       make([]catalogItemResponse, len(items)),
		RetrievedAt: time.Now().UTC(),
	}
	for i, it := range items {
		resp.Items[i] = catalogItemResponse{
			ID:              it.ID,
			Name:            it.Name,
			Price:           it.Price.StringFixed(2),
			Category:        it.Category,
			PrepTimeMinutes: it.PrepTimeMinutes,
			Description:     it.Description,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
