package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/pos-backoffice/internal/domain/cart"
	"github.com/xenking/pos-backoffice/internal/domain/catalog"
	"github.com/xenking/pos-backoffice/internal/domain/payment"
	"github.com/xenking/pos-backoffice/pkg/httpmiddleware"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	h.applyCart(w, r, nil)
}

// addCartItem adds {productId, quantity} to the session cart. Name and price
// come from the catalog, never from the client.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var (
		productID string
		quantity  = 1
	)
	if !decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			productID, err = d.Str()
		case "quantity":
			quantity, err = d.Int()
		default:
			return d.Skip()
		}
		return fieldError(err, key)
	}) {
		return
	}

	if productID == "" {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "productId is required")
		return
	}
	if quantity < 1 {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	p, ok := h.catalog.Snapshot().Product(productID)
	if !ok {
		httpmiddleware.WriteError(w, http.StatusNotFound, catalog.ErrNotFound.Error())
		return
	}

	h.applyCart(w, r, cart.AddItem{Item: cart.Item{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: quantity,
	}})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	h.applyCart(w, r, cart.RemoveItem{ID: r.PathValue("productId")})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.applyCart(w, r, cart.ClearCart{})
}

// applyCart applies action (if any) to the session cart and responds with
// the resulting cart.
func (h *Handler) applyCart(w http.ResponseWriter, r *http.Request, action cart.Action) {
	s := h.session(w, r)

	var body []byte
	err := s.Do(func(c *cart.Cart, _ *payment.Tracker) error {
		if action != nil {
			if err := c.Apply(action); err != nil {
				return err
			}
		}
		var e jx.Encoder
		encodeCart(&e, c)
		body = e.Bytes()
		return nil
	})
	if err != nil {
		internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
