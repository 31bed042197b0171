// Package cart implements the POS cart aggregate: a set of line items keyed by
// product id and a running total that is adjusted on every mutation.
package cart

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Item is a single line item in the cart.
type Item struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// Subtotal returns price × quantity for the line.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds line items and their running total.
//
// The total is maintained incrementally and always equals the sum of
// Subtotal over the present items. Price and quantity signs are not checked
// here: callers are expected to pass non-negative values.
//
// Cart is not safe for concurrent use; callers serialize access (see
// session.Session).
type Cart struct {
	items map[string]Item
	total decimal.Decimal
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{
		items: make(map[string]Item),
		total: decimal.Zero,
	}
}

// Add inserts item or, when an entry with the same id exists, increases its
// quantity. The stored price of an existing entry is kept.
func (c *Cart) Add(item Item) {
	if existing, ok := c.items[item.ID]; ok {
		existing.Quantity += item.Quantity
		c.items[item.ID] = existing
	} else {
		c.items[item.ID] = item
	}
	c.total = c.total.Add(item.Subtotal())
}

// Remove deletes the entry with the given id. Unknown ids are ignored.
func (c *Cart) Remove(id string) {
	existing, ok := c.items[id]
	if !ok {
		return
	}
	c.total = c.total.Sub(existing.Subtotal())
	delete(c.items, id)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	clear(c.items)
	c.total = decimal.Zero
}

// Total returns the running total.
func (c *Cart) Total() decimal.Decimal {
	return c.total
}

// Len returns the number of distinct line items.
func (c *Cart) Len() int {
	return len(c.items)
}

// Get returns the line item with the given id.
func (c *Cart) Get(id string) (Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

// Items returns a copy of the line items ordered by id.
func (c *Cart) Items() []Item {
	out := make([]Item, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b Item) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
