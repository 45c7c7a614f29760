// Package tables tracks the restaurant's physical tables and derives their
// occupancy from the backend's active orders. Status is always recomputed,
// never stored, so it cannot drift from the orders that define it.
package tables

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/kiwari-pos/dinein-terminal/internal/domain"
	"github.com/kiwari-pos/dinein-terminal/internal/enum"
)

// Errors returned by the registry.
var (
	ErrNotInitialized = errors.New("table registry not initialized")
	ErrTableNotFound  = errors.New("table not found")
)

// Seed is one table definition from the bootstrap file. Tables are created
// externally and never deleted by this service. Status is the server-reported
// baseline (available or reserved) used when no active order occupies the
// table.
type Seed struct {
	ID       string `json:"id"`
	Number   int    `json:"number"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status"`
}

// Table is the registry's view of one table with its derived status.
type Table struct {
	ID              string `json:"id"`
	Number          int    `json:"number"`
	Capacity        int    `json:"capacity"`
	Status          string `json:"status"`
	CurrentOrderRef string `json:"current_order_ref,omitempty"`
}

// LoadSeedFile reads and validates a table layout file.
func LoadSeedFile(path string) ([]Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables file: %w", err)
	}
	var seeds []Seed
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parse tables file: %w", err)
	}
	return seeds, nil
}

// DeriveStatus returns occupied when an active order exists for the table,
// otherwise the baseline the backend reported.
func DeriveStatus(baseline string, activeOrder *domain.DineInOrder) string {
	if activeOrder != nil && activeOrder.Active() {
		return enum.TableStatusOccupied
	}
	return baseline
}

// Registry holds the seeded tables plus the latest active order per table.
// Lifecycle: Init once at startup, then Refresh on every orders poll.
type Registry struct {
	mu       sync.RWMutex
	seeds    []Seed
	byNumber map[int]int                    // table number -> index into seeds
	active   map[int]domain.DineInOrder     // table number -> active order
	ready    bool
}

// NewRegistry creates an uninitialized registry.
func NewRegistry() *Registry {
	return &Registry{
		byNumber: make(map[int]int),
		active:   make(map[int]domain.DineInOrder),
	}
}

// Init loads the seeded table layout. It validates numbers, capacities, and
// baseline statuses, and rejects duplicates.
func (r *Registry) Init(seeds []Seed) error {
	if len(seeds) == 0 {
		return errors.New("no tables in seed")
	}

	byNumber := make(map[int]int, len(seeds))
	for i, s := range seeds {
		if s.Number <= 0 {
			return fmt.Errorf("table[%d]: number must be > 0", i)
		}
		if s.Capacity <= 0 {
			return fmt.Errorf("table %d: capacity must be > 0", s.Number)
		}
		switch s.Status {
		case enum.TableStatusAvailable, enum.TableStatusReserved:
		case "":
			seeds[i].Status = enum.TableStatusAvailable
		default:
			return fmt.Errorf("table %d: invalid baseline status %q", s.Number, s.Status)
		}
		if _, dup := byNumber[s.Number]; dup {
			return fmt.Errorf("duplicate table number %d", s.Number)
		}
		byNumber[s.Number] = i
	}

	r.mu.Lock()
	r.seeds = seeds
	r.byNumber = byNumber
	r.active = make(map[int]domain.DineInOrder)
	r.ready = true
	r.mu.Unlock()
	return nil
}

// Refresh rebinds active orders from a fresh backend orders list. Orders that
// left the active-status set drop their table back to its baseline. Orders
// for unknown table numbers are ignored.
func (r *Registry) Refresh(orders []domain.DineInOrder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := make(map[int]domain.DineInOrder)
	for _, o := range orders {
		if !o.Active() {
			continue
		}
		if _, known := r.byNumber[o.TableNumber]; known {
			active[o.TableNumber] = o
		}
	}
	r.active = active
}

// Bind attaches an active order to its table immediately, without waiting for
// the next poll. Used right after a successful submit.
func (r *Registry) Bind(order domain.DineInOrder) {
	if !order.Active() {
		return
	}
	r.mu.Lock()
	if _, known := r.byNumber[order.TableNumber]; known {
		r.active[order.TableNumber] = order
	}
	r.mu.Unlock()
}

// Get returns the table with its derived status.
func (r *Registry) Get(number int) (Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.ready {
		return Table{}, ErrNotInitialized
	}
	i, ok := r.byNumber[number]
	if !ok {
		return Table{}, ErrTableNotFound
	}
	return r.view(r.seeds[i]), nil
}

// ActiveOrder returns the active order currently occupying the table, if any.
func (r *Registry) ActiveOrder(number int) (domain.DineInOrder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.active[number]
	return o, ok
}

// Snapshot returns all tables with derived statuses, in seed order.
func (r *Registry) Snapshot() []Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Table, len(r.seeds))
	for i, s := range r.seeds {
		out[i] = r.view(s)
	}
	return out
}

// view derives the externally visible table state. Callers hold r.mu.
func (r *Registry) view(s Seed) Table {
	t := Table{
		ID:       s.ID,
		Number:   s.Number,
		Capacity: s.Capacity,
		Status:   s.Status,
	}
	if o, ok := r.active[s.Number]; ok {
		t.Status = enum.TableStatusOccupied
		t.CurrentOrderRef = o.ID
	}
	return t
}
