package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kiwari-pos/dinein-terminal/internal/enum"
)

// OrderLine is one added unit-selection of a catalog item. Every add creates a
// new line with its own InstanceID even for the same catalog item, so each
// line can carry its own notes. Name and price are copied by value at add
// time and stay stable across catalog refreshes.
type OrderLine struct {
	InstanceID      string          `json:"instanceId"`
	CatalogItemID   string          `json:"catalogItemId"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	Notes           string          `json:"notes,omitempty"`
	PrepTimeMinutes int             `json:"prepTimeMinutes,omitempty"`
}

// DineInOrder is the backend-owned order resource. The terminal creates it on
// submit and afterwards only re-reads it to refresh table state. JSON tags
// match the collaborator's wire format.
type DineInOrder struct {
	ID                 string          `json:"id,omitempty"`
	OrderNumber        string          `json:"orderNumber"`
	BranchID           string          `json:"branchId,omitempty"`
	TableNumber        int             `json:"tableNumber"`
	CustomerName       string          `json:"customerName"`
	CustomerPhone      string          `json:"customerPhone"`
	Items              []OrderLine     `json:"items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Tax                decimal.Decimal `json:"tax"`
	ServiceCharge      decimal.Decimal `json:"serviceCharge"`
	Discount           decimal.Decimal `json:"discount"`
	Total              decimal.Decimal `json:"total"`
	Status             string          `json:"status"`
	PaymentMethod      string          `json:"paymentMethod"`
	Priority           string          `json:"priority"`
	Notes              string          `json:"notes"`
	EstimatedReadyTime time.Time       `json:"estimatedReadyTime"`
}

// Active reports whether the order still keeps its table occupied.
func (o DineInOrder) Active() bool {
	switch o.Status {
	case enum.OrderStatusPending, enum.OrderStatusPreparing, enum.OrderStatusReady:
		return true
	}
	return false
}

// Branch is a restaurant branch; the terminal only needs it to resolve the
// default branch id attached to submitted orders.
type Branch struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}
