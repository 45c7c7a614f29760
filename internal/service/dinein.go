package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiwari-pos/dinein-terminal/internal/cart"
	"github.com/kiwari-pos/dinein-terminal/internal/catalog"
	"github.com/kiwari-pos/dinein-terminal/internal/domain"
	"github.com/kiwari-pos/dinein-terminal/internal/enum"
	"github.com/kiwari-pos/dinein-terminal/internal/pricing"
	"github.com/kiwari-pos/dinein-terminal/internal/tables"
	"github.com/kiwari-pos/dinein-terminal/internal/ws"
)

// Errors returned by the dine-in service. Validation errors are detected
// before any network call; no state is mutated when one fires.
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrNoTableSelected      = errors.New("no table selected")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrMissingCustomerName  = errors.New("customer name is required")
	ErrMissingCustomerPhone = errors.New("customer phone is required")
	ErrItemNotFound         = errors.New("menu item not available")
	ErrLineNotFound         = errors.New("cart line not found")
	ErrInvalidPayment       = errors.New("invalid payment method")
	ErrInvalidPriority      = errors.New("invalid priority")
	ErrInvalidDiscount      = errors.New("discount must be >= 0")
	ErrSubmitInFlight       = errors.New("submit already in progress")
)

// CatalogSource looks up orderable items. Satisfied by *catalog.Snapshot.
type CatalogSource interface {
	Get(id string) (catalog.Item, bool)
}

// Gateway is the backend collaborator surface the lifecycle needs.
// Satisfied by *upstream.Client.
type Gateway interface {
	CreateDineInOrder(ctx context.Context, order domain.DineInOrder) (domain.DineInOrder, error)
	ListDineInOrders(ctx context.Context) ([]domain.DineInOrder, error)
	ListBranches(ctx context.Context) ([]domain.Branch, error)
}

// Broadcaster pushes events to connected terminals. Satisfied by *ws.Hub;
// may be nil.
type Broadcaster interface {
	Broadcast(eventType string, payload interface{})
}

// CustomerInfo is the order form state collected alongside the cart.
type CustomerInfo struct {
	Name          string
	Phone         string
	Notes         string
	PaymentMethod string
	Priority      string
}

// session is one terminal's editing state: at most one table, one cart.
// Guarded by mu; every operation on a session is serialized, mirroring the
// single-threaded event loop the model assumes.
type session struct {
	mu sync.Mutex

	id          string
	state       string
	tableNumber int // 0 = none selected
	cart        cart.Cart
	customer    CustomerInfo
	discount    decimal.Decimal
	lastOrder   *domain.DineInOrder
}

// SessionView is the read-only projection handlers render.
type SessionView struct {
	ID                   string
	State                string
	TableNumber          int
	Lines                []domain.OrderLine
	Totals               pricing.Totals
	EstimatedPrepMinutes int
	Customer             CustomerInfo
	LastOrder            *domain.DineInOrder
}

// Config carries the lifecycle policy knobs.
type Config struct {
	// AllowNegativeTotal keeps the observed permissive behavior: a discount
	// exceeding the charged amount produces a negative total.
	// TODO: revisit once product decides whether oversized discounts clamp.
	AllowNegativeTotal bool
	DefaultBranchID    string
}

// DineInService orchestrates the table/order lifecycle:
// select table -> build cart -> collect customer info -> submit.
type DineInService struct {
	catalog     CatalogSource
	registry    *tables.Registry
	gateway     Gateway
	broadcaster Broadcaster
	cfg         Config

	mu       sync.RWMutex
	sessions map[string]*session

	branchMu sync.Mutex
	branchID string

	now func() time.Time
}

// New creates a DineInService. The registry must already be initialized.
func New(catalogSrc CatalogSource, registry *tables.Registry, gateway Gateway, broadcaster Broadcaster, cfg Config) *DineInService {
	return &DineInService{
		catalog:     catalogSrc,
		registry:    registry,
		gateway:     gateway,
		broadcaster: broadcaster,
		cfg:         cfg,
		sessions:    make(map[string]*session),
		branchID:    cfg.DefaultBranchID,
		now:         time.Now,
	}
}

// --- Sessions ---

// CreateSession opens a fresh terminal session with nothing selected.
func (s *DineInService) CreateSession() SessionView {
	sess := &session{
		id:       uuid.NewString(),
		state:    enum.SessionStateNoTable,
		customer: defaultCustomer(),
		discount: decimal.Zero,
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return s.viewLocked(sess)
}

// GetSession returns the current view of a session.
func (s *DineInService) GetSession(id string) (SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess), nil
}

// CloseSession discards a session and any unsubmitted draft.
func (s *DineInService) CloseSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *DineInService) session(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// --- Table selection ---

// SelectTable binds the session to a table. This is a full state replace,
// never a merge: a table with an active order loads that order's items and
// customer fields into the draft; a free table clears everything. Any
// in-progress edits for a previously selected table are discarded.
func (s *DineInService) SelectTable(sessionID string, tableNumber int) (SessionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	if _, err := s.registry.Get(tableNumber); err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == enum.SessionStateSubmitting {
		return SessionView{}, ErrSubmitInFlight
	}

	sess.tableNumber = tableNumber
	sess.state = enum.SessionStateEditing
	sess.lastOrder = nil

	if order, ok := s.registry.ActiveOrder(tableNumber); ok {
		sess.cart.Restore(order.Items)
		sess.customer = CustomerInfo{
			Name:          order.CustomerName,
			Phone:         order.CustomerPhone,
			Notes:         order.Notes,
			PaymentMethod: order.PaymentMethod,
			Priority:      order.Priority,
		}
		if sess.customer.PaymentMethod == "" {
			sess.customer.PaymentMethod = enum.PaymentMethodCash
		}
		if sess.customer.Priority == "" {
			sess.customer.Priority = enum.PriorityNormal
		}
		sess.discount = order.Discount
	} else {
		sess.cart.Clear()
		sess.customer = defaultCustomer()
		sess.discount = decimal.Zero
	}

	return s.view(sess), nil
}

// DeselectTable releases the table and discards the draft.
func (s *DineInService) DeselectTable(sessionID string) (SessionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == enum.SessionStateSubmitting {
		return SessionView{}, ErrSubmitInFlight
	}

	sess.tableNumber = 0
	sess.state = enum.SessionStateNoTable
	sess.cart.Clear()
	sess.customer = defaultCustomer()
	sess.discount = decimal.Zero
	return s.view(sess), nil
}

// --- Cart edits ---

// AddItem appends a new line for the catalog item. Two adds of the same item
// yield two lines; quantity merging is deliberately not done so each unit can
// carry its own notes.
func (s *DineInService) AddItem(sessionID, catalogItemID string) (SessionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	item, ok := s.catalog.Get(catalogItemID)
	if !ok {
		return SessionView{}, ErrItemNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == enum.SessionStateSubmitting {
		return SessionView{}, ErrSubmitInFlight
	}
	sess.cart.Add(item)
	return s.view(sess), nil
}

// UpdateQuantity adjusts a line by delta; a line reaching zero is removed.
func (s *DineInService) UpdateQuantity(sessionID, instanceID string, delta int) (SessionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == enum.SessionStateSubmitting {
		return SessionView{}, ErrSubmitInFlight
	}
	if !sess.cart.UpdateQuantity(instanceID, delta) {
		return SessionView{}, ErrLineNotFound
	}
	return s.view(sess), nil
}

// SetLineNotes sets the per-unit notes on one cart line.
func (s *DineInService) SetLineNotes(sessionID, instanceID, notes string) (SessionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.cart.SetNotes(instanceID, notes) {
		return SessionView{}, ErrLineNotFound
	}
	return s.view(sess), nil
}

// RemoveItem removes a line unconditionally.
func (s *DineInService) RemoveItem(sessionID, instanceID string) (SessionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == enum.SessionStateSubmitting {
		return SessionView{}, ErrSubmitInFlight
	}
	if !sess.cart.Remove(instanceID) {
		return SessionView{}, ErrLineNotFound
	}
	return s.view(sess), nil
}

// ClearCart empties the draft.
func (s *DineInService) ClearCart(sessionID string) (SessionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == enum.SessionStateSubmitting {
		return SessionView{}, ErrSubmitInFlight
	}
	sess.cart.Clear()
	return s.view(sess), nil
}

// --- Form state ---

// UpdateCustomer replaces the customer form fields.
func (s *DineInService) UpdateCustomer(sessionID string, info CustomerInfo) (SessionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	if info.PaymentMethod == "" {
		info.PaymentMethod = enum.PaymentMethodCash
	}
	if !enum.IsPaymentMethod(info.PaymentMethod) {
		return SessionView{}, ErrInvalidPayment
	}
	if info.Priority == "" {
		info.Priority = enum.PriorityNormal
	}
	if !enum.IsPriority(info.Priority) {
		return SessionView{}, ErrInvalidPriority
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == enum.SessionStateSubmitting {
		return SessionView{}, ErrSubmitInFlight
	}
	sess.customer = info
	return s.view(sess), nil
}

// SetDiscount sets the flat discount amount. The amount is not validated
// against the subtotal; whether the final total may go negative is decided
// by the AllowNegativeTotal policy at calculation time.
func (s *DineInService) SetDiscount(sessionID string, amount decimal.Decimal) (SessionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if amount.IsNegative() {
		return SessionView{}, ErrInvalidDiscount
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == enum.SessionStateSubmitting {
		return SessionView{}, ErrSubmitInFlight
	}
	sess.discount = amount
	return s.view(sess), nil
}

// --- Submit ---

// Submit validates the draft, builds the order payload, and hands it to the
// backend. On success the table is bound immediately, the draft is cleared,
// and a registry reload is kicked off. On failure the cart and selection are
// left intact so the operator can retry without re-entering anything.
// Resubmitting mints a fresh order number; there is no idempotency key.
func (s *DineInService) Submit(ctx context.Context, sessionID string) (domain.DineInOrder, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return domain.DineInOrder{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// Preconditions: all checked before any network call.
	if sess.state == enum.SessionStateSubmitting {
		return domain.DineInOrder{}, ErrSubmitInFlight
	}
	if sess.tableNumber == 0 {
		return domain.DineInOrder{}, ErrNoTableSelected
	}
	if sess.cart.IsEmpty() {
		return domain.DineInOrder{}, ErrEmptyCart
	}
	if strings.TrimSpace(sess.customer.Name) == "" {
		return domain.DineInOrder{}, ErrMissingCustomerName
	}
	if strings.TrimSpace(sess.customer.Phone) == "" {
		return domain.DineInOrder{}, ErrMissingCustomerPhone
	}

	lines := sess.cart.Lines()
	totals := pricing.Calculate(lines, sess.discount, s.cfg.AllowNegativeTotal)
	prep := pricing.EstimatedPrepMinutes(lines)
	now := s.now()

	payload := domain.DineInOrder{
		OrderNumber:        newOrderNumber(),
		BranchID:           s.resolveBranchID(ctx),
		TableNumber:        sess.tableNumber,
		CustomerName:       sess.customer.Name,
		CustomerPhone:      sess.customer.Phone,
		Items:              lines,
		Subtotal:           totals.Subtotal,
		Tax:                totals.Tax,
		ServiceCharge:      totals.ServiceCharge,
		Discount:           totals.Discount,
		Total:              totals.Total,
		Status:             enum.OrderStatusPending,
		PaymentMethod:      sess.customer.PaymentMethod,
		Priority:           sess.customer.Priority,
		Notes:              sess.customer.Notes,
		EstimatedReadyTime: now.Add(time.Duration(prep) * time.Minute),
	}

	sess.state = enum.SessionStateSubmitting
	created, err := s.gateway.CreateDineInOrder(ctx, payload)
	if err != nil {
		// Back to editing: the draft survives for a retry.
		sess.state = enum.SessionStateEditing
		return domain.DineInOrder{}, fmt.Errorf("submit order: %w", err)
	}

	s.registry.Bind(created)

	tableNumber := sess.tableNumber
	sess.tableNumber = 0
	sess.cart.Clear()
	sess.customer = defaultCustomer()
	sess.discount = decimal.Zero
	sess.lastOrder = &created
	sess.state = enum.SessionStateSubmitted

	s.emit(ws.EventOrderSubmitted, map[string]interface{}{
		"order_number": created.OrderNumber,
		"table_number": tableNumber,
		"total":        created.Total,
	})
	s.emit(ws.EventTableStatusChanged, map[string]interface{}{
		"table_number": tableNumber,
		"status":       enum.TableStatusOccupied,
		"order_ref":    created.ID,
	})

	// Fire-and-forget registry reload so other terminals converge without
	// waiting for the next poll tick.
	go func() {
		if err := s.RefreshOrders(context.Background()); err != nil {
			log.Printf("ERROR: post-submit orders refresh: %v", err)
		}
	}()

	return created, nil
}

// --- Orders poll ---

// RefreshOrders re-reads the backend orders and rebinds the table registry,
// broadcasting a table_status_changed event for every table whose derived
// status moved.
func (s *DineInService) RefreshOrders(ctx context.Context) error {
	orders, err := s.gateway.ListDineInOrders(ctx)
	if err != nil {
		return fmt.Errorf("refresh orders: %w", err)
	}

	before := s.registry.Snapshot()
	s.registry.Refresh(orders)
	after := s.registry.Snapshot()

	prev := make(map[int]tables.Table, len(before))
	for _, t := range before {
		prev[t.Number] = t
	}
	for _, t := range after {
		p, ok := prev[t.Number]
		if ok && p.Status == t.Status && p.CurrentOrderRef == t.CurrentOrderRef {
			continue
		}
		s.emit(ws.EventTableStatusChanged, map[string]interface{}{
			"table_number": t.Number,
			"status":       t.Status,
			"order_ref":    t.CurrentOrderRef,
		})
	}
	return nil
}

// RunOrdersPoll refreshes the registry on the given interval until ctx is
// done. Errors are logged; the previous registry state stays in place.
func (s *DineInService) RunOrdersPoll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshOrders(ctx); err != nil {
				log.Printf("ERROR: orders poll: %v", err)
			}
		}
	}
}

// --- Helpers ---

func defaultCustomer() CustomerInfo {
	return CustomerInfo{
		PaymentMethod: enum.PaymentMethodCash,
		Priority:      enum.PriorityNormal,
	}
}

// newOrderNumber mints a display order number. Generated fresh per submit
// attempt, so a retry after a failed submit produces a different number.
func newOrderNumber() string {
	return "DIN-" + strings.ToUpper(uuid.NewString()[:8])
}

// resolveBranchID lazily resolves the branch attached to submitted orders:
// the configured id when set, otherwise the backend's default branch, cached
// after the first successful lookup. Resolution failures are non-fatal; the
// order goes out without a branch id.
func (s *DineInService) resolveBranchID(ctx context.Context) string {
	s.branchMu.Lock()
	defer s.branchMu.Unlock()
	if s.branchID != "" {
		return s.branchID
	}

	branches, err := s.gateway.ListBranches(ctx)
	if err != nil {
		log.Printf("ERROR: resolve branch: %v", err)
		return ""
	}
	if len(branches) == 0 {
		return ""
	}
	s.branchID = branches[0].ID
	for _, b := range branches {
		if b.IsDefault {
			s.branchID = b.ID
			break
		}
	}
	return s.branchID
}

func (s *DineInService) emit(eventType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(eventType, payload)
	}
}

// view builds the projection. Callers hold sess.mu.
func (s *DineInService) view(sess *session) SessionView {
	lines := sess.cart.Lines()
	return SessionView{
		ID:                   sess.id,
		State:                sess.state,
		TableNumber:          sess.tableNumber,
		Lines:                lines,
		Totals:               pricing.Calculate(lines, sess.discount, s.cfg.AllowNegativeTotal),
		EstimatedPrepMinutes: pricing.EstimatedPrepMinutes(lines),
		Customer:             sess.customer,
		LastOrder:            sess.lastOrder,
	}
}

// viewLocked takes the session lock first; for paths that don't hold it yet.
func (s *DineInService) viewLocked(sess *session) SessionView {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess)
}
