package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pos-backoffice/internal/domain/permission"
)

const (
	listPermissionsSQL = `SELECT uid, module_name, action FROM permissions ORDER BY module_name, position, uid`

	getRolePermissionsSQL = `SELECT role_name, permission_ids FROM role_permissions WHERE role_name = $1`

	upsertRolePermissionsSQL = `INSERT INTO role_permissions (role_name, permission_ids)
		VALUES ($1, $2)
		ON CONFLICT (role_name) DO UPDATE SET
			permission_ids = EXCLUDED.permission_ids,
			updated_at = now()`

	upsertPermissionSQL = `INSERT INTO permissions (uid, module_name, action, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (uid) DO UPDATE SET
			module_name = EXCLUDED.module_name,
			action = EXCLUDED.action,
			position = EXCLUDED.position`
)

var _ permission.Store = (*PermissionRepository)(nil)

// PermissionRepository stores permission modules and role selections.
type PermissionRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRepository returns a PermissionRepository that uses the given
// pool.
func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{pool: pool}
}

// Modules returns every permission keyed by module name. Actions keep their
// stored position order.
func (r *PermissionRepository) Modules(ctx context.Context) (map[string][]permission.Module, error) {
	rows, err := r.pool.Query(ctx, listPermissionsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (permission.Module, error) {
		var m permission.Module
		err := row.Scan(&m.UID, &m.ModuleName, &m.Action)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning permissions: %w", err)
	}

	modules := make(map[string][]permission.Module)
	for _, m := range list {
		modules[m.ModuleName] = append(modules[m.ModuleName], m)
	}
	return modules, nil
}

// RolePermissions returns the saved selection of role.
func (r *PermissionRepository) RolePermissions(ctx context.Context, role string) (*permission.RolePermissions, error) {
	var rp permission.RolePermissions
	err := r.pool.QueryRow(ctx, getRolePermissionsSQL, role).Scan(&rp.RoleName, &rp.PermissionIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, permission.ErrRoleNotFound
		}
		return nil, fmt.Errorf("getting role %q: %w", role, err)
	}
	return &rp, nil
}

// SaveRolePermissions replaces the saved selection of a role.
func (r *PermissionRepository) SaveRolePermissions(ctx context.Context, rp permission.RolePermissions) error {
	if _, err := r.pool.Exec(ctx, upsertRolePermissionsSQL, rp.RoleName, rp.PermissionIDs); err != nil {
		return fmt.Errorf("saving role %q: %w", rp.RoleName, err)
	}
	return nil
}

// UpsertModule stores the actions of one module. Action order is kept as the
// display position.
func (r *PermissionRepository) UpsertModule(ctx context.Context, actions []permission.Module) error {
	batch := &pgx.Batch{}
	for i, a := range actions {
		batch.Queue(upsertPermissionSQL, a.UID, a.ModuleName, a.Action, i)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting permissions: %w", err)
	}
	return nil
}
