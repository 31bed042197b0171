package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status values recorded on orders.
const (
	StatusPaid = "paid"
)

// Kind distinguishes a cart checkout from a wallet top-up.
type Kind string

const (
	KindSale  Kind = "sale"
	KindTopUp Kind = "topup"
)

// Order is a settled payment together with the lines it paid for.
type Order struct {
	ID        string
	Kind      Kind
	Items     []LineItem
	Total     decimal.Decimal
	Method    string
	Status    string
	CreatedAt time.Time
}

// LineItem is a single purchased product in an order.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
}
