package permission

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	modules   map[string][]Module
	roles     map[string]*RolePermissions
	modErr    error
	saveErr   error
	lastSaved *RolePermissions
}

func (m *mockStore) Modules(_ context.Context) (map[string][]Module, error) {
	return m.modules, m.modErr
}

func (m *mockStore) RolePermissions(_ context.Context, role string) (*RolePermissions, error) {
	rp, ok := m.roles[role]
	if !ok {
		return nil, ErrRoleNotFound
	}
	return rp, nil
}

func (m *mockStore) SaveRolePermissions(_ context.Context, rp RolePermissions) error {
	m.lastSaved = &rp
	return m.saveErr
}

func TestService_RoleGroups(t *testing.T) {
	store := &mockStore{
		modules: testModules(),
		roles: map[string]*RolePermissions{
			"cashier": {RoleName: "cashier", PermissionIDs: []string{"dash-view", "inv-view"}},
		},
	}
	svc := NewService(store)

	groups, err := svc.RoleGroups(context.Background(), "cashier")
	require.NoError(t, err)
	assert.Equal(t, []string{"dash-view", "inv-view"}, ExtractSelectedIDs(groups))
}

func TestService_RoleGroups_NotFound(t *testing.T) {
	svc := NewService(&mockStore{modules: testModules()})

	_, err := svc.RoleGroups(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestService_Groups_StoreError(t *testing.T) {
	svc := NewService(&mockStore{modErr: errors.New("db down")})

	_, err := svc.Groups(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load modules")
}

func TestService_SaveRole(t *testing.T) {
	store := &mockStore{modules: testModules()}
	svc := NewService(store)

	submitted := []Group{
		{Title: "Invoice", Actions: []Module{{UID: "inv-export", IsSelected: true}, {UID: "inv-view"}}},
		{Title: "Bogus", Actions: []Module{{UID: "nope", IsSelected: true}}},
	}

	ids, err := svc.SaveRole(context.Background(), "manager", submitted)
	require.NoError(t, err)
	assert.Equal(t, []string{"inv-export"}, ids)

	require.NotNil(t, store.lastSaved)
	assert.Equal(t, "manager", store.lastSaved.RoleName)
	assert.Equal(t, []string{"inv-export"}, store.lastSaved.PermissionIDs)
}

func TestService_SaveRole_NothingSelected(t *testing.T) {
	store := &mockStore{modules: testModules()}
	svc := NewService(store)

	ids, err := svc.SaveRole(context.Background(), "guest", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, ids)
	assert.Equal(t, []string{}, store.lastSaved.PermissionIDs)
}

func TestService_SaveRole_StoreError(t *testing.T) {
	svc := NewService(&mockStore{modules: testModules(), saveErr: errors.New("write failed")})

	_, err := svc.SaveRole(context.Background(), "manager", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save role")
}
