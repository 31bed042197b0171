// Package handler exposes the POS back office over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-backoffice/internal/domain/auth"
	"github.com/xenking/pos-backoffice/internal/domain/catalog"
	"github.com/xenking/pos-backoffice/internal/domain/permission"
	"github.com/xenking/pos-backoffice/internal/session"
	"github.com/xenking/pos-backoffice/pkg/httpmiddleware"
)

const (
	// SessionHeader identifies the POS terminal. It is minted when absent
	// and echoed on every session-scoped response.
	SessionHeader = "X-Session-ID"
	// APIKeyHeader carries the key for mutating endpoints.
	APIKeyHeader = "api_key"
)

// Authenticator checks an API key for a scope.
type Authenticator interface {
	Authenticate(ctx context.Context, key, scope string) (*auth.APIKeyInfo, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
}

// Handler serves the catalog, cart, payment and role editor endpoints.
type Handler struct {
	catalog      *catalog.Cache
	sessions     *session.Store
	permissions  *permission.Service
	auth         Authenticator
	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	cat *catalog.Cache,
	sessions *session.Store,
	permissions *permission.Service,
	authn Authenticator,
) *Handler {
	return &Handler{
		catalog:      cat,
		sessions:     sessions,
		permissions:  permissions,
		auth:         authn,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/product", h.listProducts)
	mux.HandleFunc("GET /api/product/{productId}", h.getProduct)
	mux.HandleFunc("GET /api/category", h.listCategories)
	mux.HandleFunc("POST /api/catalog/refresh", h.refreshCatalog)
	mux.HandleFunc("PUT /api/catalog/search", h.setSearchTerm)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{productId}", h.removeCartItem)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)

	mux.HandleFunc("POST /api/checkout", h.requireScope(auth.ScopeCheckout, h.checkout))
	mux.HandleFunc("POST /api/wallet/topup", h.requireScope(auth.ScopeCheckout, h.topUp))
	mux.HandleFunc("GET /api/payment", h.getPayment)

	mux.HandleFunc("GET /api/permissions", h.listPermissions)
	mux.HandleFunc("GET /api/roles/{role}/permissions", h.getRolePermissions)
	mux.HandleFunc("PUT /api/roles/{role}/permissions", h.requireScope(auth.ScopeManageRoles, h.saveRolePermissions))
}

// session resolves the caller's session from SessionHeader. Ids the server
// did not issue get a fresh session.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	s := h.sessions.GetOrCreate(r.Header.Get(SessionHeader))
	w.Header().Set(SessionHeader, s.ID)
	return s
}

func (h *Handler) requireScope(scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := h.auth.Authenticate(r.Context(), r.Header.Get(APIKeyHeader), scope)
		switch {
		case errors.Is(err, auth.ErrUnauthorized):
			httpmiddleware.WriteError(w, http.StatusUnauthorized, "invalid or missing api key")
			return
		case errors.Is(err, auth.ErrForbidden):
			httpmiddleware.WriteError(w, http.StatusForbidden, "api key lacks scope "+scope)
			return
		case err != nil:
			internalError(w, r, err)
			return
		}

		ctx := zctx.With(r.Context(), zap.String("api_key_id", info.ID))
		next(w, r.WithContext(ctx))
	}
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal server error")
}
