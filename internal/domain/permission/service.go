package permission

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrRoleNotFound is returned when a role has no saved permissions.
var ErrRoleNotFound = errors.New("role not found")

// RolePermissions is the saved selection of a role.
type RolePermissions struct {
	RoleName      string
	PermissionIDs []string
}

// Store provides the raw permission modules and saved role selections.
type Store interface {
	Modules(ctx context.Context) (map[string][]Module, error)
	RolePermissions(ctx context.Context, role string) (*RolePermissions, error)
	SaveRolePermissions(ctx context.Context, rp RolePermissions) error
}

// Service serves the role editor.
type Service struct {
	store Store
}

// NewService creates a Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Groups returns all permission groups with nothing selected.
func (s *Service) Groups(ctx context.Context) ([]Group, error) {
	modules, err := s.store.Modules(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load modules")
	}
	return GroupAndSort(modules), nil
}

// RoleGroups returns all permission groups with the role's saved
// permissions selected.
func (s *Service) RoleGroups(ctx context.Context, role string) ([]Group, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return nil, err
	}

	rp, err := s.store.RolePermissions(ctx, role)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, errors.Wrapf(err, "load role %q", role)
	}

	return ApplySelection(groups, rp.PermissionIDs), nil
}

// SaveRole stores the actions selected in groups as the role's permissions
// and returns the saved ids. Selected ids that are not known permissions
// are dropped.
func (s *Service) SaveRole(ctx context.Context, role string, groups []Group) ([]string, error) {
	known, err := s.Groups(ctx)
	if err != nil {
		return nil, err
	}

	// Re-apply against the known modules so the stored ids only reference
	// existing permissions.
	ids := ExtractSelectedIDs(ApplySelection(known, ExtractSelectedIDs(groups)))
	if ids == nil {
		ids = []string{}
	}

	if err := s.store.SaveRolePermissions(ctx, RolePermissions{
		RoleName:      role,
		PermissionIDs: ids,
	}); err != nil {
		return nil, errors.Wrapf(err, "save role %q", role)
	}
	return ids, nil
}
