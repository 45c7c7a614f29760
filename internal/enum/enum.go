package enum

// ── Order lifecycle (owned by the backend; values match its wire format) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
)

// ── Table occupancy (derived, never stored) ──

const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
	TableStatusReserved  = "reserved"
)

// ── Terminal session states ──

const (
	SessionStateNoTable    = "no_table_selected"
	SessionStateEditing    = "table_selected"
	SessionStateSubmitting = "submitting"
	SessionStateSubmitted  = "submitted"
)

// ── Configurable labels (echoed to the backend as-is) ──

const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodCredit = "credit"
)

const (
	PriorityNormal = "normal"
	PriorityUrgent = "urgent"
)

// IsPaymentMethod reports whether s is a known payment method.
func IsPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodCredit:
		return true
	}
	return false
}

// IsPriority reports whether s is a known order priority.
func IsPriority(s string) bool {
	switch s {
	case PriorityNormal, PriorityUrgent:
		return true
	}
	return false
}
