package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kiwari-pos/dinein-terminal/internal/domain"
	"github.com/kiwari-pos/dinein-terminal/internal/enum"
	"github.com/kiwari-pos/dinein-terminal/internal/handler"
	"github.com/kiwari-pos/dinein-terminal/internal/service"
	"github.com/kiwari-pos/dinein-terminal/internal/upstream"
)

// --- Mock servicer ---

// mockSessionService returns canned views/errors and counts submit calls.
type mockSessionService struct {
	view        service.SessionView
	err         error
	submitOrder domain.DineInOrder
	submitErr   error
	submitCalls int
}

func (m *mockSessionService) CreateSession() service.SessionView { return m.view }
func (m *mockSessionService) GetSession(string) (service.SessionView, error) {
	return m.view, m.err
}
func (m *mockSessionService) CloseSession(string) error { return m.err }
func (m *mockSessionService) SelectTable(string, int) (service.SessionView, error) {
	return m.view, m.err
}
func (m *mockSessionService) DeselectTable(string) (service.SessionView, error) {
	return m.view, m.err
}
func (m *mockSessionService) AddItem(string, string) (service.SessionView, error) {
	return m.view, m.err
}
func (m *mockSessionService) UpdateQuantity(string, string, int) (service.SessionView, error) {
	return m.view, m.err
}
func (m *mockSessionService) SetLineNotes(string, string, string) (service.SessionView, error) {
	return m.view, m.err
}
func (m *mockSessionService) RemoveItem(string, string) (service.SessionView, error) {
	return m.view, m.err
}
func (m *mockSessionService) ClearCart(string) (service.SessionView, error) {
	return m.view, m.err
}
func (m *mockSessionService) UpdateCustomer(string, service.CustomerInfo) (service.SessionView, error) {
	return m.view, m.err
}
func (m *mockSessionService) SetDiscount(string, decimal.Decimal) (service.SessionView, error) {
	return m.view, m.err
}
func (m *mockSessionService) Submit(context.Context, string) (domain.DineInOrder, error) {
	m.submitCalls++
	return m.submitOrder, m.submitErr
}

// --- Helpers ---

func setupSessionRouter(svc *mockSessionService) *chi.Mux {
	h := handler.NewSessionHandler(svc)
	r := chi.NewRouter()
	r.Route("/sessions", h.RegisterRoutes)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func emptyView() service.SessionView {
	return service.SessionView{
		ID:    "s1",
		State: enum.SessionStateNoTable,
		Customer: service.CustomerInfo{
			PaymentMethod: enum.PaymentMethodCash,
			Priority:      enum.PriorityNormal,
		},
	}
}

// --- Tests ---

func TestCreateSessionReturnsView(t *testing.T) {
	svc := &mockSessionService{view: emptyView()}
	rr := doJSON(t, setupSessionRouter(svc), http.MethodPost, "/sessions/", nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rr.Code)
	}
	resp := decodeBody(t, rr)
	if resp["id"] != "s1" || resp["state"] != enum.SessionStateNoTable {
		t.Errorf("response = %v", resp)
	}
	if resp["subtotal"] != "0.00" || resp["total"] != "0.00" {
		t.Errorf("zero-cart totals = %v", resp)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"session not found", service.ErrSessionNotFound, http.StatusNotFound},
		{"line not found", service.ErrLineNotFound, http.StatusNotFound},
		{"submit in flight", service.ErrSubmitInFlight, http.StatusConflict},
		{"invalid payment", service.ErrInvalidPayment, http.StatusBadRequest},
		{"item not available", service.ErrItemNotFound, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockSessionService{err: tt.err}
			rr := doJSON(t, setupSessionRouter(svc), http.MethodPost, "/sessions/s1/cart/items",
				map[string]string{"catalog_item_id": "kabob"})
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if resp := decodeBody(t, rr); resp["error"] == "" {
				t.Error("error body missing message")
			}
		})
	}
}

func TestAddItemRequiresCatalogItemID(t *testing.T) {
	svc := &mockSessionService{view: emptyView()}
	rr := doJSON(t, setupSessionRouter(svc), http.MethodPost, "/sessions/s1/cart/items",
		map[string]string{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestUpdateLineRejectsEmptyUpdate(t *testing.T) {
	svc := &mockSessionService{view: emptyView()}
	rr := doJSON(t, setupSessionRouter(svc), http.MethodPatch, "/sessions/s1/cart/items/i1",
		map[string]interface{}{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSetDiscountParsesAmount(t *testing.T) {
	svc := &mockSessionService{view: emptyView()}
	r := setupSessionRouter(svc)

	rr := doJSON(t, r, http.MethodPut, "/sessions/s1/discount", map[string]string{"amount": "10000"})
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}

	rr = doJSON(t, r, http.MethodPut, "/sessions/s1/discount", map[string]string{"amount": "lots"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unparseable amount", rr.Code)
	}
}

func TestSubmitValidationShortCircuits(t *testing.T) {
	svc := &mockSessionService{submitErr: service.ErrMissingCustomerPhone}
	rr := doJSON(t, setupSessionRouter(svc), http.MethodPost, "/sessions/s1/submit", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	resp := decodeBody(t, rr)
	if resp["error"] != service.ErrMissingCustomerPhone.Error() {
		t.Errorf("error = %v", resp["error"])
	}
}

func TestSubmitBackendDeclineSurfacesMessage(t *testing.T) {
	svc := &mockSessionService{
		submitErr: &upstream.APIError{Status: http.StatusConflict, Message: "table already has an open order"},
	}
	rr := doJSON(t, setupSessionRouter(svc), http.MethodPost, "/sessions/s1/submit", nil)

	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rr.Code)
	}
	resp := decodeBody(t, rr)
	if resp["error"] != "table already has an open order" {
		t.Errorf("error = %v, want the server message", resp["error"])
	}
}

func TestSubmitSuccessReturnsSummary(t *testing.T) {
	svc := &mockSessionService{
		submitOrder: domain.DineInOrder{
			ID:          "o1",
			OrderNumber: "DIN-AB12",
			TableNumber: 3,
			Status:      enum.OrderStatusPending,
			Total:       decimal.NewFromInt(321300),
		},
	}
	rr := doJSON(t, setupSessionRouter(svc), http.MethodPost, "/sessions/s1/submit", nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rr.Code)
	}
	resp := decodeBody(t, rr)
	if resp["order_number"] != "DIN-AB12" || resp["total"] != "321300.00" {
		t.Errorf("response = %v", resp)
	}
	if svc.submitCalls != 1 {
		t.Errorf("submit calls = %d, want 1", svc.submitCalls)
	}
}

func TestSelectTableZeroDeselects(t *testing.T) {
	svc := &mockSessionService{view: emptyView()}
	rr := doJSON(t, setupSessionRouter(svc), http.MethodPut, "/sessions/s1/table",
		map[string]int{"table_number": 0})
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}
