// Package catalog holds the product and category lists served to the POS
// screen. Both lists are read from an external Source and kept in a Cache
// that tracks the lifecycle of each fetch.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID       string
	Name     string
	Image    string
	Price    decimal.Decimal
	Category string
}

// Source is the external product and category provider.
type Source interface {
	Products(ctx context.Context) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// State is a point-in-time view of the cache.
type State struct {
	Products   []Product
	Categories []string

	// Loading is set while a product fetch is in flight.
	Loading bool
	// CatLoading is set while a category fetch is in flight.
	CatLoading bool
	// Error holds the message of the most recent failed fetch of either
	// kind. A later successful fetch does not clear it.
	Error string

	SearchTerm string
}

// Product returns the product with the given id from the state.
func (s State) Product(id string) (Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
