package auth

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPepper = []byte("pepper")

type mockKeyRepo struct {
	keys map[string]*APIKeyInfo
	err  error
}

func (m *mockKeyRepo) FindByHash(_ context.Context, hash string) (*APIKeyInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	info, ok := m.keys[hash]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return info, nil
}

func newRepo(key string, scopes ...string) *mockKeyRepo {
	hash := HashKey(key, testPepper)
	return &mockKeyRepo{keys: map[string]*APIKeyInfo{
		hash: {ID: "k1", KeyHash: hash, Name: "till 1", Scopes: scopes},
	}}
}

func TestHashKey_DependsOnPepper(t *testing.T) {
	a := HashKey("secret", []byte("one"))
	b := HashKey("secret", []byte("two"))

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, HashKey("secret", []byte("one")))
}

func TestAuthenticate(t *testing.T) {
	repo := newRepo("till-key", ScopeCheckout)

	tests := []struct {
		name    string
		key     string
		scope   string
		wantErr error
	}{
		{name: "valid key and scope", key: "till-key", scope: ScopeCheckout},
		{name: "missing key", key: "", scope: ScopeCheckout, wantErr: ErrUnauthorized},
		{name: "unknown key", key: "nope", scope: ScopeCheckout, wantErr: ErrUnauthorized},
		{name: "missing scope", key: "till-key", scope: ScopeManageRoles, wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAuthenticator(repo, testPepper)

			info, err := a.Authenticate(context.Background(), tt.key, tt.scope)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "k1", info.ID)
		})
	}
}

func TestAuthenticate_CorruptStoredHash(t *testing.T) {
	hash := HashKey("till-key", testPepper)
	repo := &mockKeyRepo{keys: map[string]*APIKeyInfo{
		hash: {ID: "k1", KeyHash: "zz-not-hex", Scopes: []string{ScopeCheckout}},
	}}

	_, err := NewAuthenticator(repo, testPepper).Authenticate(context.Background(), "till-key", ScopeCheckout)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_RepositoryError(t *testing.T) {
	repo := &mockKeyRepo{err: errors.New("db down")}

	_, err := NewAuthenticator(repo, testPepper).Authenticate(context.Background(), "till-key", ScopeCheckout)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "find api key")
}
