// Package payment tracks the status of payment submissions made from a POS
// session.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a payment intent.
type Status string

const (
	// StatusIdle means nothing has been submitted yet.
	StatusIdle Status = "idle"
	// StatusPending means a submission is in flight.
	StatusPending Status = "pending"
	// StatusSuccess means the last submission was accepted.
	StatusSuccess Status = "success"
	// StatusFailed means the last submission was rejected or could not reach
	// the processor.
	StatusFailed Status = "failed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Intent is the observable payment state of a session.
type Intent struct {
	OrderID string
	Status  Status
	Error   string
}

// Request is what the processor is asked to charge.
type Request struct {
	Amount decimal.Decimal
	Method string
	// Lines optionally carries the cart contents the amount was computed
	// from. Wallet top-ups leave it empty.
	Lines []Line
}

// Line is a purchased line attached to a payment request.
type Line struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// Receipt is the processor's answer to an accepted request.
type Receipt struct {
	OrderID string
	Status  string
}

// Processor charges payment requests.
type Processor interface {
	Process(ctx context.Context, req Request) (*Receipt, error)
}
