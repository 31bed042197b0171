package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-backoffice/internal/domain/catalog"
	"github.com/xenking/pos-backoffice/pkg/httpmiddleware"
)

// listProducts returns the cached products matching the stored search term
// and the optional ?category= filter, together with the fetch flags.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	state := h.catalog.Snapshot()
	products := filterProducts(state.Products, state.SearchTerm, r.URL.Query().Get("category"))

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("products", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, p := range products {
						h.encodeProduct(e, p)
					}
				})
			})
			e.Field("loading", func(e *jx.Encoder) { e.Bool(state.Loading) })
			e.Field("error", func(e *jx.Encoder) { e.Str(state.Error) })
			e.Field("searchTerm", func(e *jx.Encoder) { e.Str(state.SearchTerm) })
		})
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.catalog.Snapshot().Product(r.PathValue("productId"))
	if !ok {
		httpmiddleware.WriteError(w, http.StatusNotFound, catalog.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProduct(e, p) })
}

func (h *Handler) listCategories(w http.ResponseWriter, _ *http.Request) {
	state := h.catalog.Snapshot()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("categories", func(e *jx.Encoder) { encodeStrings(e, state.Categories) })
			e.Field("catLoading", func(e *jx.Encoder) { e.Bool(state.CatLoading) })
			e.Field("error", func(e *jx.Encoder) { e.Str(state.Error) })
		})
	})
}

// refreshCatalog re-reads products and categories. A failed fetch is not an
// HTTP error: the previous data stays and the message is reported in the
// state's error field.
func (h *Handler) refreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		zctx.From(r.Context()).Warn("Catalog refresh failed", zap.Error(err))
	}

	state := h.catalog.Snapshot()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("products", func(e *jx.Encoder) { e.Int(len(state.Products)) })
			e.Field("categories", func(e *jx.Encoder) { e.Int(len(state.Categories)) })
			e.Field("error", func(e *jx.Encoder) { e.Str(state.Error) })
		})
	})
}

func (h *Handler) setSearchTerm(w http.ResponseWriter, r *http.Request) {
	var term string
	if !decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "searchTerm" {
			return d.Skip()
		}
		var err error
		term, err = d.Str()
		return err
	}) {
		return
	}

	h.catalog.SetSearchTerm(term)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("searchTerm", func(e *jx.Encoder) { e.Str(term) })
		})
	})
}

// filterProducts keeps products whose name contains term (case-insensitive)
// and, when category is set, belong to it.
func filterProducts(products []catalog.Product, term, category string) []catalog.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" && category == "" {
		return products
	}

	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(p.Name), term) {
			continue
		}
		out = append(out, p)
	}
	return out
}
