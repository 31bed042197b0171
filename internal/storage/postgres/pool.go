// Package postgres implements the domain repositories on PostgreSQL.
package postgres

import (
	"context"
	"io/fs"
	"slices"
	"time"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pos-backoffice/db"
)

// migrationLockID serializes migrations of concurrently starting instances.
const migrationLockID = 0x706f73 // "pos"

// NewPool creates a pool with shopspring/decimal support for NUMERIC columns
// and checks that the database answers.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = "pos-backoffice"
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return pool, nil
}

// RunMigrations applies the embedded migrations in one transaction under an
// advisory lock. Migrations are idempotent DDL, so every start re-applies
// them.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	names, err := fs.Glob(db.Migrations, "migrations/*.sql")
	if err != nil {
		return errors.Wrap(err, "list migrations")
	}
	slices.Sort(names)

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
			return errors.Wrap(err, "acquire migration lock")
		}
		for _, name := range names {
			ddl, err := db.Migrations.ReadFile(name)
			if err != nil {
				return errors.Wrapf(err, "read %s", name)
			}
			if _, err := tx.Exec(ctx, string(ddl)); err != nil {
				return errors.Wrapf(err, "apply %s", name)
			}
		}
		return nil
	})
}
