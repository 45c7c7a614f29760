package tables

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kiwari-pos/dinein-terminal/internal/domain"
	"github.com/kiwari-pos/dinein-terminal/internal/enum"
)

func seedThree() []Seed {
	return []Seed{
		{ID: "t1", Number: 1, Capacity: 2, Status: enum.TableStatusAvailable},
		{ID: "t2", Number: 2, Capacity: 4, Status: enum.TableStatusReserved},
		{ID: "t3", Number: 3, Capacity: 6},
	}
}

func order(id string, table int, status string) domain.DineInOrder {
	return domain.DineInOrder{ID: id, OrderNumber: "DIN-" + id, TableNumber: table, Status: status}
}

func TestInitValidation(t *testing.T) {
	tests := []struct {
		name    string
		seeds   []Seed
		wantErr bool
	}{
		{"valid", seedThree(), false},
		{"empty", nil, true},
		{"zero table number", []Seed{{Number: 0, Capacity: 4}}, true},
		{"zero capacity", []Seed{{Number: 1, Capacity: 0}}, true},
		{"duplicate number", []Seed{{Number: 1, Capacity: 2}, {Number: 1, Capacity: 4}}, true},
		{"bad baseline", []Seed{{Number: 1, Capacity: 2, Status: "occupied"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Init(tt.seeds)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInitDefaultsBaselineToAvailable(t *testing.T) {
	r := NewRegistry()
	if err := r.Init(seedThree()); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	tb, err := r.Get(3)
	if err != nil {
		t.Fatalf("Get(3) error: %v", err)
	}
	if tb.Status != enum.TableStatusAvailable {
		t.Errorf("empty baseline = %q, want available", tb.Status)
	}
}

func TestGetBeforeInit(t *testing.T) {
	_, err := NewRegistry().Get(1)
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Get() error = %v, want ErrNotInitialized", err)
	}
}

func TestDeriveStatus(t *testing.T) {
	pending := order("o1", 1, enum.OrderStatusPending)
	completed := order("o2", 1, enum.OrderStatusCompleted)

	tests := []struct {
		name     string
		baseline string
		order    *domain.DineInOrder
		want     string
	}{
		{"no order keeps baseline", enum.TableStatusAvailable, nil, enum.TableStatusAvailable},
		{"reserved baseline survives", enum.TableStatusReserved, nil, enum.TableStatusReserved},
		{"pending order occupies", enum.TableStatusAvailable, &pending, enum.TableStatusOccupied},
		{"completed order reverts to baseline", enum.TableStatusReserved, &completed, enum.TableStatusReserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.baseline, tt.order); got != tt.want {
				t.Errorf("DeriveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRefreshDerivesOccupancy(t *testing.T) {
	r := NewRegistry()
	if err := r.Init(seedThree()); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	r.Refresh([]domain.DineInOrder{
		order("o1", 1, enum.OrderStatusPreparing),
		order("o2", 2, enum.OrderStatusCompleted), // inactive: table stays reserved
		order("o3", 99, enum.OrderStatusPending),  // unknown table: ignored
	})

	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Snapshot() has %d tables, want 3", len(snap))
	}
	if snap[0].Status != enum.TableStatusOccupied || snap[0].CurrentOrderRef != "o1" {
		t.Errorf("table 1 = %+v, want occupied by o1", snap[0])
	}
	if snap[1].Status != enum.TableStatusReserved || snap[1].CurrentOrderRef != "" {
		t.Errorf("table 2 = %+v, want reserved baseline", snap[1])
	}
	if snap[2].Status != enum.TableStatusAvailable {
		t.Errorf("table 3 = %+v, want available", snap[2])
	}
}

func TestRefreshClearsStaleBindings(t *testing.T) {
	r := NewRegistry()
	if err := r.Init(seedThree()); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	r.Refresh([]domain.DineInOrder{order("o1", 1, enum.OrderStatusReady)})
	if tb, _ := r.Get(1); tb.Status != enum.TableStatusOccupied {
		t.Fatalf("table 1 = %+v, want occupied", tb)
	}

	// Order completed: next poll no longer lists it as active.
	r.Refresh([]domain.DineInOrder{order("o1", 1, enum.OrderStatusCompleted)})
	tb, _ := r.Get(1)
	if tb.Status != enum.TableStatusAvailable || tb.CurrentOrderRef != "" {
		t.Errorf("table 1 = %+v, want reverted to baseline", tb)
	}
	if _, ok := r.ActiveOrder(1); ok {
		t.Error("ActiveOrder(1) still bound after the order completed")
	}
}

func TestBindMarksOccupiedImmediately(t *testing.T) {
	r := NewRegistry()
	if err := r.Init(seedThree()); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	r.Bind(order("o9", 2, enum.OrderStatusPending))
	tb, err := r.Get(2)
	if err != nil {
		t.Fatalf("Get(2) error: %v", err)
	}
	if tb.Status != enum.TableStatusOccupied || tb.CurrentOrderRef != "o9" {
		t.Errorf("table 2 = %+v, want occupied by o9", tb)
	}

	// Inactive orders must not bind.
	r.Bind(order("o10", 3, enum.OrderStatusCompleted))
	if tb, _ := r.Get(3); tb.Status != enum.TableStatusAvailable {
		t.Errorf("table 3 = %+v, want available", tb)
	}
}

func TestGetUnknownTable(t *testing.T) {
	r := NewRegistry()
	if err := r.Init(seedThree()); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if _, err := r.Get(42); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("Get(42) error = %v, want ErrTableNotFound", err)
	}
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "tables.json")
	payload := `[{"id":"t1","number":1,"capacity":4,"status":"available"}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	seeds, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile() error: %v", err)
	}
	if len(seeds) != 1 || seeds[0].Number != 1 || seeds[0].Capacity != 4 {
		t.Errorf("seeds = %+v", seeds)
	}

	if _, err := LoadSeedFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("LoadSeedFile() expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSeedFile(bad); err == nil {
		t.Error("LoadSeedFile() expected error for malformed file")
	}
}
