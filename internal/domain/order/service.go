// Package order records payments as orders. Service is the payment processor
// used by the POS: it validates the request and persists the order.
package order

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/pos-backoffice/internal/domain/payment"
)

// Payment methods accepted by the service.
const (
	MethodCash   = "cash"
	MethodCard   = "card"
	MethodWallet = "wallet"
)

var supportedMethods = []string{MethodCash, MethodCard, MethodWallet}

// ErrInvalidAmount is returned when the amount to charge is not positive.
var ErrInvalidAmount = fmt.Errorf("amount must be greater than 0")

// UnsupportedMethodError indicates a payment method the service does not
// accept.
type UnsupportedMethodError struct {
	Method string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported payment method %q", e.Method)
}

var _ payment.Processor = (*Service)(nil)

// Service encapsulates order placement.
type Service struct {
	orders Repository
	now    func() time.Time
}

// NewService creates an order Service persisting to orders.
func NewService(orders Repository) *Service {
	return &Service{orders: orders, now: time.Now}
}

// Process validates the payment request, persists it as an order and returns
// the receipt. Requests without lines are recorded as wallet top-ups.
func (s *Service) Process(ctx context.Context, req payment.Request) (*payment.Receipt, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !slices.Contains(supportedMethods, req.Method) {
		return nil, &UnsupportedMethodError{Method: req.Method}
	}

	kind := KindSale
	if len(req.Lines) == 0 {
		kind = KindTopUp
	}

	items := make([]LineItem, len(req.Lines))
	for i, l := range req.Lines {
		items[i] = LineItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
		}
	}

	o := &Order{
		ID:        uuid.New().String(),
		Kind:      kind,
		Items:     items,
		Total:     req.Amount.Round(2),
		Method:    req.Method,
		Status:    StatusPaid,
		CreatedAt: s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	return &payment.Receipt{
		OrderID: o.ID,
		Status:  o.Status,
	}, nil
}

// SupportedMethods returns the accepted payment methods.
func SupportedMethods() []string {
	return slices.Clone(supportedMethods)
}
