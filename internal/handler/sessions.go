package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kiwari-pos/dinein-terminal/internal/domain"
	"github.com/kiwari-pos/dinein-terminal/internal/service"
	"github.com/kiwari-pos/dinein-terminal/internal/tables"
	"github.com/kiwari-pos/dinein-terminal/internal/upstream"
)

// SessionServicer defines the lifecycle operations session handlers need.
// Satisfied by *service.DineInService; narrow interface for testability.
type SessionServicer interface {
	CreateSession() service.SessionView
	GetSession(id string) (service.SessionView, error)
	CloseSession(id string) error
	SelectTable(sessionID string, tableNumber int) (service.SessionView, error)
	DeselectTable(sessionID string) (service.SessionView, error)
	AddItem(sessionID, catalogItemID string) (service.SessionView, error)
	UpdateQuantity(sessionID, instanceID string, delta int) (service.SessionView, error)
	SetLineNotes(sessionID, instanceID, notes string) (service.SessionView, error)
	RemoveItem(sessionID, instanceID string) (service.SessionView, error)
	ClearCart(sessionID string) (service.SessionView, error)
	UpdateCustomer(sessionID string, info service.CustomerInfo) (service.SessionView, error)
	SetDiscount(sessionID string, amount decimal.Decimal) (service.SessionView, error)
	Submit(ctx context.Context, sessionID string) (domain.DineInOrder, error)
}

// SessionHandler exposes terminal sessions over HTTP.
type SessionHandler struct {
	svc SessionServicer
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(svc SessionServicer) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// RegisterRoutes registers session endpoints on the given Chi router.
// Expected to be mounted at /sessions.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{sid}", h.Get)
	r.Delete("/{sid}", h.Close)
	r.Put("/{sid}/table", h.SelectTable)
	r.Put("/{sid}/customer", h.UpdateCustomer)
	r.Put("/{sid}/discount", h.SetDiscount)
	r.Post("/{sid}/cart/items", h.AddItem)
	r.Patch("/{sid}/cart/items/{iid}", h.UpdateLine)
	r.Delete("/{sid}/cart/items/{iid}", h.RemoveLine)
	r.Delete("/{sid}/cart", h.ClearCart)
	r.Post("/{sid}/submit", h.Submit)
}

// --- Request / Response types ---

type selectTableRequest struct {
	TableNumber int `json:"table_number"`
}

type updateCustomerRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Notes         string `json:"notes"`
	PaymentMethod string `json:"payment_method"`
	Priority      string `json:"priority"`
}

type setDiscountRequest struct {
	Amount string `json:"amount"`
}

type addItemRequest struct {
	CatalogItemID string `json:"catalog_item_id"`
}

type updateLineRequest struct {
	Delta int     `json:"delta"`
	Notes *string `json:"notes"`
}

type lineResponse struct {
	InstanceID    string `json:"instance_id"`
	CatalogItemID string `json:"catalog_item_id"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	Quantity      int    `json:"quantity"`
	Notes         string `json:"notes,omitempty"`
}

type orderSummaryResponse struct {
	ID                 string    `json:"id"`
	OrderNumber        string    `json:"order_number"`
	TableNumber        int       `json:"table_number"`
	Status             string    `json:"status"`
	Total              string    `json:"total"`
	EstimatedReadyTime time.Time `json:"estimated_ready_time"`
}

type sessionResponse struct {
	ID                   string                `json:"id"`
	State                string                `json:"state"`
	TableNumber          int                   `json:"table_number,omitempty"`
	Items                []lineResponse        `json:"items"`
	Subtotal             string                `json:"subtotal"`
	Tax                  string                `json:"tax"`
	ServiceCharge        string                `json:"service_charge"`
	Discount             string                `json:"discount"`
	Total                string                `json:"total"`
	EstimatedPrepMinutes int                   `json:"estimated_prep_minutes"`
	CustomerName         string                `json:"customer_name"`
	CustomerPhone        string                `json:"customer_phone"`
	Notes                string                `json:"notes"`
	PaymentMethod        string                `json:"payment_method"`
	Priority             string                `json:"priority"`
	LastOrder            *orderSummaryResponse `json:"last_order,omitempty"`
}

func toSessionResponse(v service.SessionView) sessionResponse {
	resp := sessionResponse{
		ID:                   v.ID,
		State:                v.State,
		TableNumber:          v.TableNumber,
		Items:                make([]lineResponse, len(v.Lines)),
		Subtotal:             v.Totals.Subtotal.StringFixed(2),
		Tax:                  v.Totals.Tax.StringFixed(2),
		ServiceCharge:        v.Totals.ServiceCharge.StringFixed(2),
		Discount:             v.Totals.Discount.StringFixed(2),
		Total:                v.Totals.Total.StringFixed(2),
		EstimatedPrepMinutes: v.EstimatedPrepMinutes,
		CustomerName:         v.Customer.Name,
		CustomerPhone:        v.Customer.Phone,
		Notes:                v.Customer.Notes,
		PaymentMethod:        v.Customer.PaymentMethod,
		Priority:             v.Customer.Priority,
	}
	for i, l := range v.Lines {
		resp.Items[i] = lineResponse{
			InstanceID:    l.InstanceID,
			CatalogItemID: l.CatalogItemID,
			Name:          l.Name,
			Price:         l.Price.StringFixed(2),
			Quantity:      l.Quantity,
			Notes:         l.Notes,
		}
	}
	if v.LastOrder != nil {
		s := toOrderSummary(*v.LastOrder)
		resp.LastOrder = &s
	}
	return resp
}

func toOrderSummary(o domain.DineInOrder) orderSummaryResponse {
	return orderSummaryResponse{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		TableNumber:        o.TableNumber,
		Status:             o.Status,
		Total:              o.Total.StringFixed(2),
		EstimatedReadyTime: o.EstimatedReadyTime,
	}
}

// --- Handlers ---

// Create opens a new terminal session.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	view := h.svc.CreateSession()
	writeJSON(w, http.StatusCreated, toSessionResponse(view))
}

// Get returns the session's current draft state.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetSession(chi.URLParam(r, "sid"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(view))
}

// Close discards the session.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CloseSession(chi.URLParam(r, "sid")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectTable binds the session to a table; table_number 0 releases it.
func (h *SessionHandler) SelectTable(w http.ResponseWriter, r *http.Request) {
	var req selectTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sid := chi.URLParam(r, "sid")
	var (
		view service.SessionView
		err  error
	)
	if req.TableNumber == 0 {
		view, err = h.svc.DeselectTable(sid)
	} else {
		view, err = h.svc.SelectTable(sid, req.TableNumber)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(view))
}

// UpdateCustomer replaces the customer form fields.
func (h *SessionHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req updateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	view, err := h.svc.UpdateCustomer(chi.URLParam(r, "sid"), service.CustomerInfo{
		Name:          req.Name,
		Phone:         req.Phone,
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
		Priority:      req.Priority,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(view))
}

// SetDiscount sets the flat discount amount.
func (h *SessionHandler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	var req setDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discount amount"})
		return
	}

	view, err := h.svc.SetDiscount(chi.URLParam(r, "sid"), amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(view))
}

// AddItem appends a new cart line for a catalog item.
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.CatalogItemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "catalog_item_id is required"})
		return
	}

	view, err := h.svc.AddItem(chi.URLParam(r, "sid"), req.CatalogItemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(view))
}

// UpdateLine adjusts a cart line's quantity by a delta and/or replaces its
// notes. A line reaching quantity zero is pruned.
func (h *SessionHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	var req updateLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Delta == 0 && req.Notes == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nothing to update"})
		return
	}

	sid := chi.URLParam(r, "sid")
	iid := chi.URLParam(r, "iid")

	var (
		view service.SessionView
		err  error
	)
	if req.Notes != nil {
		if view, err = h.svc.SetLineNotes(sid, iid, *req.Notes); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	if req.Delta != 0 {
		if view, err = h.svc.UpdateQuantity(sid, iid, req.Delta); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, toSessionResponse(view))
}

// RemoveLine removes a cart line unconditionally.
func (h *SessionHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.RemoveItem(chi.URLParam(r, "sid"), chi.URLParam(r, "iid"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(view))
}

// ClearCart empties the draft.
func (h *SessionHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.ClearCart(chi.URLParam(r, "sid"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(view))
}

// Submit sends the draft to the order collaborator.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Submit(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderSummary(order))
}

// --- Error mapping ---

// writeServiceError maps lifecycle errors to HTTP statuses. Validation
// sentinels carry user-facing messages; backend-declined submits surface the
// server's message as a bad gateway.
func writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *upstream.APIError
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrLineNotFound),
		errors.Is(err, tables.ErrTableNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrSubmitInFlight):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrNoTableSelected),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrMissingCustomerName),
		errors.Is(err, service.ErrMissingCustomerPhone),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrInvalidPriority),
		errors.Is(err, service.ErrInvalidDiscount):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": apiErr.Error()})
	default:
		log.Printf("ERROR: session handler: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
