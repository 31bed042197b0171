package handler

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-backoffice/internal/domain/cart"
	"github.com/xenking/pos-backoffice/internal/domain/catalog"
	"github.com/xenking/pos-backoffice/internal/domain/payment"
	"github.com/xenking/pos-backoffice/internal/domain/permission"
	"github.com/xenking/pos-backoffice/pkg/httpmiddleware"
)

const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, code int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// decodeObject reads the request body as a JSON object, calling field for
// every key. An empty body counts as an empty object. Any decoding failure is
// answered with 400 and reported as false.
func decodeObject(w http.ResponseWriter, r *http.Request, field func(d *jx.Decoder, key string) error) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err == nil && len(bytes.TrimSpace(body)) > 0 {
		err = jx.DecodeBytes(body).Obj(field)
	}
	if err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return false
	}
	return true
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Zero, errors.Errorf("expected number, got %s", d.Next())
	}
}

func (h *Handler) imageURL(image string) string {
	if image == "" || strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	return h.imageBaseURL + image
}

func (h *Handler) encodeProduct(e *jx.Encoder, p catalog.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("image", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image)) })
		e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, p.Price) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
	})
}

func encodeStrings(e *jx.Encoder, values []string) {
	e.Arr(func(e *jx.Encoder) {
		for _, v := range values {
			e.Str(v)
		}
	})
}

func encodeCart(e *jx.Encoder, c *cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range c.Items() {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, it.Price) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, it.Subtotal()) })
					})
				}
			})
		})
		e.Field("count", func(e *jx.Encoder) { e.Int(c.Len()) })
		e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, c.Total()) })
	})
}

func encodeIntent(e *jx.Encoder, in payment.Intent) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("orderId", func(e *jx.Encoder) { e.Str(in.OrderID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(in.Status.String()) })
		e.Field("error", func(e *jx.Encoder) { e.Str(in.Error) })
	})
}

func encodeGroups(e *jx.Encoder, groups []permission.Group) {
	e.Arr(func(e *jx.Encoder) {
		for _, g := range groups {
			e.Obj(func(e *jx.Encoder) {
				e.Field("title", func(e *jx.Encoder) { e.Str(g.Title) })
				e.Field("sortIndex", func(e *jx.Encoder) { e.Int(g.SortIndex) })
				e.Field("actions", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for _, m := range g.Actions {
							e.Obj(func(e *jx.Encoder) {
								e.Field("action", func(e *jx.Encoder) { e.Str(m.Action) })
								e.Field("moduleName", func(e *jx.Encoder) { e.Str(m.ModuleName) })
								e.Field("uid", func(e *jx.Encoder) { e.Str(m.UID) })
								e.Field("isSelected", func(e *jx.Encoder) { e.Bool(m.IsSelected) })
							})
						}
					})
				})
			})
		}
	})
}

// decodeGroups reads the role editor's group list. Only the fields needed to
// recover the selection are kept.
func decodeGroups(d *jx.Decoder) ([]permission.Group, error) {
	var groups []permission.Group
	err := d.Arr(func(d *jx.Decoder) error {
		var g permission.Group
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "title":
				g.Title, err = d.Str()
			case "sortIndex":
				g.SortIndex, err = d.Int()
			case "actions":
				err = d.Arr(func(d *jx.Decoder) error {
					m, err := decodeModule(d)
					if err != nil {
						return err
					}
					g.Actions = append(g.Actions, m)
					return nil
				})
			default:
				return d.Skip()
			}
			return fieldError(err, key)
		}); err != nil {
			return err
		}
		groups = append(groups, g)
		return nil
	})
	return groups, err
}

func decodeModule(d *jx.Decoder) (permission.Module, error) {
	var m permission.Module
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "action":
			m.Action, err = d.Str()
		case "moduleName":
			m.ModuleName, err = d.Str()
		case "uid":
			m.UID, err = d.Str()
		case "isSelected":
			m.IsSelected, err = d.Bool()
		default:
			return d.Skip()
		}
		return fieldError(err, key)
	})
	return m, err
}

func fieldError(err error, key string) error {
	if err != nil {
		return errors.Wrap(err, key)
	}
	return nil
}
