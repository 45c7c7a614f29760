// Package cart holds the order draft being assembled for one table.
package cart

import (
	"github.com/google/uuid"

	"github.com/kiwari-pos/dinein-terminal/internal/catalog"
	"github.com/kiwari-pos/dinein-terminal/internal/domain"
)

// Cart is an ordered multiset of line items, insertion order preserved for
// display. Adding the same catalog item twice creates two independent lines
// rather than bumping a quantity; that is deliberate, it lets each unit carry
// its own notes. Cart is not safe for concurrent use; the owning session
// serializes access.
type Cart struct {
	lines []domain.OrderLine
}

// Add appends a new line for the given catalog item with quantity 1 and a
// fresh instance id. Existing lines are never touched.
func (c *Cart) Add(item catalog.Item) domain.OrderLine {
	line := domain.OrderLine{
		InstanceID:      uuid.NewString(),
		CatalogItemID:   item.ID,
		Name:            item.Name,
		Price:           item.Price,
		Quantity:        1,
		PrepTimeMinutes: item.PrepTimeMinutes,
	}
	c.lines = append(c.lines, line)
	return line
}

// Restore replaces the cart contents with the given lines, e.g. when
// re-selecting a table that already has an active order.
func (c *Cart) Restore(lines []domain.OrderLine) {
	c.lines = make([]domain.OrderLine, len(lines))
	copy(c.lines, lines)
}

// UpdateQuantity adjusts the quantity of the line with the given instance id
// by delta. A line reaching quantity <= 0 is removed. Returns false when no
// line has that id.
func (c *Cart) UpdateQuantity(instanceID string, delta int) bool {
	for i := range c.lines {
		if c.lines[i].InstanceID != instanceID {
			continue
		}
		c.lines[i].Quantity += delta
		if c.lines[i].Quantity <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		}
		return true
	}
	return false
}

// SetNotes sets the per-unit notes on the line with the given instance id.
func (c *Cart) SetNotes(instanceID, notes string) bool {
	for i := range c.lines {
		if c.lines[i].InstanceID == instanceID {
			c.lines[i].Notes = notes
			return true
		}
	}
	return false
}

// Remove deletes the line with the given instance id regardless of quantity.
func (c *Cart) Remove(instanceID string) bool {
	for i := range c.lines {
		if c.lines[i].InstanceID == instanceID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the cart in insertion order.
func (c *Cart) Lines() []domain.OrderLine {
	out := make([]domain.OrderLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// TotalQuantity is the sum of quantities across all lines.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}
