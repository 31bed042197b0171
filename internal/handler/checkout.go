package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/pos-backoffice/internal/domain/cart"
	"github.com/xenking/pos-backoffice/internal/domain/order"
	"github.com/xenking/pos-backoffice/internal/domain/payment"
	"github.com/xenking/pos-backoffice/pkg/httpmiddleware"
)

var errEmptyCart = errors.New("cart is empty")

// checkout charges the session cart total with the requested method. The
// cart is cleared only when the payment succeeds.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	method := order.MethodCash
	if !decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "method" {
			return d.Skip()
		}
		var err error
		method, err = d.Str()
		return fieldError(err, key)
	}) {
		return
	}

	s := h.session(w, r)

	var (
		intent payment.Intent
		total  decimal.Decimal
	)
	err := s.Do(func(c *cart.Cart, p *payment.Tracker) error {
		if c.Len() == 0 {
			return errEmptyCart
		}

		items := c.Items()
		lines := make([]payment.Line, len(items))
		for i, it := range items {
			lines[i] = payment.Line{
				ProductID: it.ID,
				Name:      it.Name,
				Price:     it.Price,
				Quantity:  it.Quantity,
			}
		}

		total = c.Total()
		var err error
		intent, err = p.Submit(r.Context(), payment.Request{
			Amount: total,
			Method: method,
			Lines:  lines,
		})
		if err != nil {
			return err
		}
		c.Clear()
		return nil
	})
	if err != nil {
		h.paymentError(w, r, err)
		return
	}

	zctx.From(r.Context()).Info("Checkout completed",
		zap.String("order_id", intent.OrderID),
		zap.String("method", method),
		zap.Stringer("total", total),
	)
	writePaid(w, intent, total)
}

// topUp adds money to the wallet through the session's payment tracker.
func (h *Handler) topUp(w http.ResponseWriter, r *http.Request) {
	var (
		amount decimal.Decimal
		seen   bool
	)
	if !decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "amount" {
			return d.Skip()
		}
		var err error
		amount, err = decodeDecimal(d)
		seen = err == nil
		return fieldError(err, key)
	}) {
		return
	}
	if !seen {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "amount is required")
		return
	}

	s := h.session(w, r)

	var intent payment.Intent
	err := s.Do(func(_ *cart.Cart, p *payment.Tracker) error {
		var err error
		intent, err = p.SubmitPayment(r.Context(), amount, order.MethodWallet)
		return err
	})
	if err != nil {
		h.paymentError(w, r, err)
		return
	}

	writePaid(w, intent, amount)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	intent := h.session(w, r).Payment().Intent()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeIntent(e, intent) })
}

// paymentError maps checkout failures: rejected requests are 422, anything
// else means the processor could not complete the payment.
func (h *Handler) paymentError(w http.ResponseWriter, r *http.Request, err error) {
	var unsupported *order.UnsupportedMethodError
	switch {
	case errors.Is(err, errEmptyCart), errors.Is(err, order.ErrInvalidAmount), errors.As(err, &unsupported):
		httpmiddleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zctx.From(r.Context()).Warn("Payment failed", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusBadGateway, "payment failed: "+err.Error())
	}
}

func writePaid(w http.ResponseWriter, intent payment.Intent, amount decimal.Decimal) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("orderId", func(e *jx.Encoder) { e.Str(intent.OrderID) })
			e.Field("status", func(e *jx.Encoder) { e.Str(intent.Status.String()) })
			e.Field("amount", func(e *jx.Encoder) { encodeDecimal(e, amount) })
		})
	})
}
