//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pos-backoffice/internal/domain/auth"
	"github.com/xenking/pos-backoffice/internal/domain/catalog"
	"github.com/xenking/pos-backoffice/internal/domain/order"
	"github.com/xenking/pos-backoffice/internal/domain/permission"
	"github.com/xenking/pos-backoffice/internal/handler"
	"github.com/xenking/pos-backoffice/internal/session"
	"github.com/xenking/pos-backoffice/pkg/httpmiddleware"
)

// TestCheckoutFlow drives the HTTP API against PostgreSQL-backed
// repositories: catalog from the products table, orders persisted on
// checkout, keys and roles from their tables.
func TestCheckoutFlow(t *testing.T) {
	ctx := context.Background()
	pepper := []byte("flow-pepper")

	products := NewProductRepository(testPool)
	require.NoError(t, products.Upsert(ctx,
		catalog.Product{ID: "flow-1", Name: "Waffle", Price: decimal.RequireFromString("6.50"), Category: "flow"},
		catalog.Product{ID: "flow-2", Name: "Creme Brulee", Price: decimal.RequireFromString("7.00"), Category: "flow"},
	))
	permissions := NewPermissionRepository(testPool)
	require.NoError(t, permissions.UpsertModule(ctx, []permission.Module{
		{UID: "flow:checkout", ModuleName: "flow", Action: "checkout"},
	}))
	apikeys := NewAPIKeyRepository(testPool)
	require.NoError(t, apikeys.Upsert(ctx, auth.APIKeyInfo{
		ID:      "flow",
		KeyHash: auth.HashKey("flow-key", pepper),
		Name:    "Flow",
		Scopes:  []string{auth.ScopeCheckout, auth.ScopeManageRoles},
	}))
	t.Cleanup(func() {
		for _, q := range []string{
			`DELETE FROM products WHERE category = 'flow'`,
			`DELETE FROM permissions WHERE module_name = 'flow'`,
			`DELETE FROM role_permissions WHERE role_name = 'flow-manager'`,
			`DELETE FROM api_keys WHERE id = 'flow'`,
			`DELETE FROM orders WHERE method = 'wallet' OR items @> '[{"product_id":"flow-1"}]'`,
		} {
			_, _ = testPool.Exec(ctx, q)
		}
	})

	cache, err := catalog.NewCache(products)
	require.NoError(t, err)
	require.NoError(t, cache.Refresh(ctx))

	orders := NewOrderRepository(testPool)
	h := handler.New(handler.Config{}, cache,
		session.NewStore(order.NewService(orders)),
		permission.NewService(permissions),
		auth.NewAuthenticator(apikeys, pepper),
	)
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(httpmiddleware.Wrap(mux, httpmiddleware.Recovery(), httpmiddleware.RequestID()))
	t.Cleanup(srv.Close)

	var sid string
	send := func(method, path, body string) (*http.Response, map[string]any) {
		t.Helper()
		req, err := http.NewRequestWithContext(ctx, method, srv.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set(handler.SessionHeader, sid)
		req.Header.Set(handler.APIKeyHeader, "flow-key")

		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		sid = resp.Header.Get(handler.SessionHeader)
		return resp, out
	}

	resp, _ := send(http.MethodPost, "/api/cart/items", `{"productId":"flow-1","quantity":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, cart := send(http.MethodPost, "/api/cart/items", `{"productId":"flow-2","quantity":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 20, cart["total"], 0.0001)

	resp, paid := send(http.MethodPost, "/api/checkout", `{"method":"card"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", paid["status"])

	var (
		total decimal.Decimal
		kind  string
	)
	require.NoError(t, testPool.QueryRow(ctx,
		`SELECT total, kind FROM orders WHERE id = $1`, paid["orderId"],
	).Scan(&total, &kind))
	assert.True(t, decimal.NewFromInt(20).Equal(total))
	assert.Equal(t, string(order.KindSale), kind)

	_, cart = send(http.MethodGet, "/api/cart", "")
	assert.InDelta(t, 0, cart["total"], 0)

	resp, _ = send(http.MethodPost, "/api/wallet/topup", `{"amount":"15.00"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, saved := send(http.MethodPut, "/api/roles/flow-manager/permissions",
		`{"groups":[{"title":"Flow","actions":[{"uid":"flow:checkout","isSelected":true}]}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"flow:checkout"}, saved["permissionIds"])

	resp, role := send(http.MethodGet, "/api/roles/flow-manager/permissions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "flow-manager", role["roleName"])
}
