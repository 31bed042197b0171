package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-backoffice/internal/domain/auth"
	"github.com/xenking/pos-backoffice/internal/domain/catalog"
	"github.com/xenking/pos-backoffice/internal/domain/permission"
	"github.com/xenking/pos-backoffice/internal/storage/postgres"
)

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Image    string          `json:"image"`
}

// Modules granted to the cashier role.
var cashierModules = []string{"dashboard", "pos", "wallet"}

type options struct {
	databaseURL     string
	productsFile    string
	permissionsFile string
	apiKey          string
	apiKeyPepper    string
}

func main() {
	var opts options

	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&opts.permissionsFile, "permissions-file", "db/seed/permissions.json", "path to permission modules JSON file")
	flag.StringVar(&opts.apiKey, "api-key", "", "API key to seed (or POS_SEED_API_KEY env)")
	flag.StringVar(&opts.apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or POS_API_KEY_PEPPER env)")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if opts.apiKey == "" {
		opts.apiKey = os.Getenv("POS_SEED_API_KEY")
	}
	if opts.apiKey == "" {
		slog.Error("API key is required: set --api-key or POS_SEED_API_KEY")
		os.Exit(1)
	}
	if opts.apiKeyPepper == "" {
		opts.apiKeyPepper = os.Getenv("POS_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, opts options) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), opts.productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedPermissions(ctx, postgres.NewPermissionRepository(pool), opts.permissionsFile); err != nil {
		return errors.Wrap(err, "seed permissions")
	}

	if err := seedAPIKey(ctx, postgres.NewAPIKeyRepository(pool), opts.apiKey, opts.apiKeyPepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var raw []productJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	products := make([]catalog.Product, len(raw))
	for i, p := range raw {
		products[i] = catalog.Product{
			ID:       p.ID,
			Name:     p.Name,
			Image:    p.Image,
			Price:    p.Price,
			Category: p.Category,
		}
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	return repo.Upsert(ctx, products...)
}

// seedPermissions stores every module action and the default roles: admin
// with every permission and cashier with the POS modules.
func seedPermissions(ctx context.Context, repo *postgres.PermissionRepository, permissionsFile string) error {
	slog.Info("reading permissions file", slog.String("path", permissionsFile))

	data, err := os.ReadFile(permissionsFile)
	if err != nil {
		return errors.Wrap(err, "read permissions file")
	}

	var actions map[string][]string
	if err := json.Unmarshal(data, &actions); err != nil {
		return errors.Wrap(err, "parse permissions JSON")
	}

	var all, cashier []string
	for _, name := range slices.Sorted(maps.Keys(actions)) {
		modules := make([]permission.Module, len(actions[name]))
		for i, action := range actions[name] {
			modules[i] = permission.Module{
				Action:     action,
				ModuleName: name,
				UID:        permissionUID(name, action),
			}
			all = append(all, modules[i].UID)
			if slices.Contains(cashierModules, name) {
				cashier = append(cashier, modules[i].UID)
			}
		}

		if err := repo.UpsertModule(ctx, modules); err != nil {
			return errors.Wrapf(err, "upsert module %s", name)
		}
		slog.Info("upserted module", slog.String("module", name), slog.Int("actions", len(modules)))
	}

	for _, rp := range []permission.RolePermissions{
		{RoleName: "admin", PermissionIDs: all},
		{RoleName: "cashier", PermissionIDs: cashier},
	} {
		if err := repo.SaveRolePermissions(ctx, rp); err != nil {
			return errors.Wrapf(err, "save role %s", rp.RoleName)
		}
		slog.Info("saved role", slog.String("role", rp.RoleName), slog.Int("permissions", len(rp.PermissionIDs)))
	}

	return nil
}

// permissionUID builds ids like "user_management.view".
func permissionUID(module, action string) string {
	return strings.ReplaceAll(module, " ", "_") + "." + action
}

func seedAPIKey(ctx context.Context, repo *postgres.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	if err := repo.Upsert(ctx, auth.APIKeyInfo{
		ID:      "default",
		KeyHash: auth.HashKey(apiKey, []byte(pepper)),
		Name:    "Default back office key",
		Scopes:  []string{auth.ScopeCheckout, auth.ScopeManageRoles},
	}); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"), slog.String("name", "Default back office key"))

	return nil
}
