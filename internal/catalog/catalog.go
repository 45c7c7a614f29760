// Package catalog maintains a read-only snapshot of the orderable menu,
// refreshed periodically from the menu collaborator.
package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Item is one orderable menu entry. Snapshots are immutable: refresh replaces
// the whole list, items are never mutated in place.
type Item struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Category        string          `json:"category"`
	PrepTimeMinutes int             `json:"prep_time_minutes"`
	Description     string          `json:"description"`
}

// Lister fetches the currently available menu items.
// Satisfied by *upstream.Client.
type Lister interface {
	ListMenuItems(ctx context.Context) ([]Item, error)
}

// Notifier is told after each successful refresh. Satisfied by *ws.Hub via a
// small adapter; may be nil.
type Notifier interface {
	CatalogRefreshed(itemCount int)
}

// Snapshot holds the current catalog and swaps it atomically on refresh, so
// readers never observe a partially updated list. Cart lines copy name and
// price by value, so in-flight drafts stay stable across refreshes.
type Snapshot struct {
	client   Lister
	interval time.Duration
	notify   Notifier

	mu    sync.RWMutex
	items []Item
	byID  map[string]Item
}

// New creates an empty snapshot. Call Load or Run to populate it.
func New(client Lister, interval time.Duration, notify Notifier) *Snapshot {
	return &Snapshot{
		client:   client,
		interval: interval,
		notify:   notify,
		byID:     make(map[string]Item),
	}
}

// Load fetches the catalog once and replaces the snapshot. On error the
// previous snapshot is kept (empty before the first success); callers decide
// whether to log, refresh loops never surface it to the user.
func (s *Snapshot) Load(ctx context.Context) error {
	items, err := s.client.ListMenuItems(ctx)
	if err != nil {
		return err
	}

	byID := make(map[string]Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	s.mu.Lock()
	s.items = items
	s.byID = byID
	s.mu.Unlock()

	if s.notify != nil {
		s.notify.CatalogRefreshed(len(items))
	}
	return nil
}

// Run refreshes the snapshot on the configured interval until ctx is done.
// Errors are logged and the stale snapshot stays in place.
func (s *Snapshot) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Load(ctx); err != nil {
				log.Printf("ERROR: catalog refresh: %v", err)
			}
		}
	}
}

// Items returns a copy of the current snapshot in catalog order.
func (s *Snapshot) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Get looks up an item by id in the current snapshot.
func (s *Snapshot) Get(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.byID[id]
	return it, ok
}
