package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// --- Mocks ---

type mockLister struct {
	items []Item
	err   error
	calls int
}

func (m *mockLister) ListMenuItems(_ context.Context) ([]Item, error) {
	m.calls++
	return m.items, m.err
}

type mockNotifier struct {
	counts []int
}

func (m *mockNotifier) CatalogRefreshed(n int) {
	m.counts = append(m.counts, n)
}

func item(id string, price int64) Item {
	return Item{ID: id, Name: id, Price: decimal.NewFromInt(price)}
}

// --- Tests ---

func TestLoadReplacesSnapshot(t *testing.T) {
	lister := &mockLister{items: []Item{item("kabob", 120000), item("cola", 15000)}}
	snap := New(lister, 0, nil)

	if err := snap.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := snap.Items(); len(got) != 2 {
		t.Fatalf("Items() returned %d items, want 2", len(got))
	}
	if _, ok := snap.Get("kabob"); !ok {
		t.Error("Get(kabob) not found after load")
	}

	// Second load replaces wholesale, it does not merge.
	lister.items = []Item{item("tea", 8000)}
	if err := snap.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := snap.Items(); len(got) != 1 || got[0].ID != "tea" {
		t.Errorf("Items() after refresh = %+v, want only tea", got)
	}
	if _, ok := snap.Get("kabob"); ok {
		t.Error("Get(kabob) still present after replacing refresh")
	}
}

func TestLoadErrorKeepsPreviousSnapshot(t *testing.T) {
	lister := &mockLister{items: []Item{item("kabob", 120000)}}
	snap := New(lister, 0, nil)

	if err := snap.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	lister.err = errors.New("menu service down")
	if err := snap.Load(context.Background()); err == nil {
		t.Fatal("Load() expected error")
	}
	if got := snap.Items(); len(got) != 1 || got[0].ID != "kabob" {
		t.Errorf("Items() after failed refresh = %+v, want previous snapshot", got)
	}
}

func TestLoadErrorBeforeFirstSuccessIsEmpty(t *testing.T) {
	lister := &mockLister{err: errors.New("boom")}
	snap := New(lister, 0, nil)

	if err := snap.Load(context.Background()); err == nil {
		t.Fatal("Load() expected error")
	}
	if got := snap.Items(); len(got) != 0 {
		t.Errorf("Items() = %+v, want empty", got)
	}
	if _, ok := snap.Get("anything"); ok {
		t.Error("Get() found an item in an empty snapshot")
	}
}

func TestLoadNotifies(t *testing.T) {
	notifier := &mockNotifier{}
	lister := &mockLister{items: []Item{item("kabob", 120000), item("cola", 15000)}}
	snap := New(lister, 0, notifier)

	if err := snap.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(notifier.counts) != 1 || notifier.counts[0] != 2 {
		t.Errorf("notifier counts = %v, want [2]", notifier.counts)
	}

	// Failed loads must not notify.
	lister.err = errors.New("boom")
	_ = snap.Load(context.Background())
	if len(notifier.counts) != 1 {
		t.Errorf("notifier called on failed load: %v", notifier.counts)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	lister := &mockLister{items: []Item{item("kabob", 120000)}}
	snap := New(lister, 0, nil)
	if err := snap.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	got := snap.Items()
	got[0].Name = "mutated"
	if fresh := snap.Items(); fresh[0].Name != "kabob" {
		t.Error("mutating the returned slice leaked into the snapshot")
	}
}
