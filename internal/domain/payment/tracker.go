package payment

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Tracker advances a payment intent through idle → pending → success|failed.
// It can be reused: a new submission from any state re-enters pending.
//
// Tracker does not reject overlapping submissions. Callers that need one
// submission at a time must serialize calls to Submit.
type Tracker struct {
	processor Processor

	mu     sync.Mutex
	intent Intent
}

// NewTracker returns an idle tracker using processor.
func NewTracker(processor Processor) *Tracker {
	return &Tracker{
		processor: processor,
		intent:    Intent{Status: StatusIdle},
	}
}

// Intent returns the current intent.
func (t *Tracker) Intent() Intent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.intent
}

// Submit sends the request to the processor and records the outcome. Entering
// pending clears the error of an earlier failure. On failure the previous
// order id is kept. The returned intent is the state right after this
// submission settled.
func (t *Tracker) Submit(ctx context.Context, req Request) (Intent, error) {
	t.mu.Lock()
	t.intent.Status = StatusPending
	t.intent.Error = ""
	t.mu.Unlock()

	receipt, err := t.processor.Process(ctx, req)
	if err == nil && receipt == nil {
		err = errors.New("processor returned no receipt")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		t.intent.Status = StatusFailed
		t.intent.Error = err.Error()
		return t.intent, err
	}

	t.intent.Status = StatusSuccess
	t.intent.OrderID = receipt.OrderID
	t.intent.Error = ""
	return t.intent, nil
}

// SubmitPayment is a shorthand for Submit with only an amount and method.
func (t *Tracker) SubmitPayment(ctx context.Context, amount decimal.Decimal, method string) (Intent, error) {
	return t.Submit(ctx, Request{Amount: amount, Method: method})
}
