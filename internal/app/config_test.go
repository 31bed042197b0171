package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestConfig() (*Config, error) {
	return loadConfig(aconfig.Config{SkipFlags: true, SkipFiles: true})
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("POS_DATABASE_URL", "postgres://localhost/pos")
	t.Setenv("PORT", "")

	cfg, err := loadTestConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, CatalogSourcePostgres, cfg.Catalog.Source)
	assert.Equal(t, 10*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "@every 5m", cfg.Catalog.RefreshSchedule)
	assert.Equal(t, 12*time.Hour, cfg.Session.IdleTTL)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/pos")
	t.Setenv("PORT", "9090")

	cfg, err := loadTestConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://platform/pos", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
}

func TestLoadConfig_PrefixedWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/pos")
	t.Setenv("POS_DATABASE_URL", "postgres://explicit/pos")
	t.Setenv("POS_ADDR", "127.0.0.1:7000")
	t.Setenv("PORT", "9090")

	cfg, err := loadTestConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://explicit/pos", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{
			name: "missing database",
			env:  map[string]string{},
			msg:  "database URL is required",
		},
		{
			name: "unknown catalog source",
			env:  map[string]string{"POS_DATABASE_URL": "postgres://x", "POS_CATALOG_SOURCE": "ftp"},
			msg:  `unknown catalog source "ftp"`,
		},
		{
			name: "http source without base url",
			env:  map[string]string{"POS_DATABASE_URL": "postgres://x", "POS_CATALOG_SOURCE": "http"},
			msg:  "catalog base URL is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := loadTestConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadConfig_HTTPSource(t *testing.T) {
	t.Setenv("POS_DATABASE_URL", "postgres://x")
	t.Setenv("POS_CATALOG_SOURCE", "http")
	t.Setenv("POS_CATALOG_BASE_URL", "https://dummyjson.com")
	t.Setenv("POS_CATALOG_TIMEOUT", "3s")

	cfg, err := loadTestConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://dummyjson.com", cfg.Catalog.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)
}
