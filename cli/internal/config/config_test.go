package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFs swaps AppFs for an in-memory filesystem for the duration of a test
func memFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := AppFs
	AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { AppFs = prev })
	return AppFs
}

// unsetEnv clears key and restores it after the test
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	memFs(t)
	unsetEnv(t, "DATABASE_URL", "WORM_DATABASE_URL", "WORM_PROVIDER")

	cfg, err := LoadConfig(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "schema.worm", cfg.SchemaPath)
	assert.Equal(t, "postgres", cfg.Provider)
	assert.Empty(t, cfg.DatabaseURL)
	assert.True(t, cfg.StatementCache)
	assert.Equal(t, 256, cfg.StatementCacheSize)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 25, cfg.Pool.MaxOpenConns)
	assert.Equal(t, 5, cfg.Pool.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.Pool.ConnMaxLifetime)
	assert.Equal(t, time.Minute, cfg.Pool.HealthCheckInterval)
}

func TestLoadConfigFile(t *testing.T) {
	fs := memFs(t)
	unsetEnv(t, "DATABASE_URL", "WORM_DATABASE_URL", "WORM_PROVIDER")

	require.NoError(t, afero.WriteFile(fs, "/project/.worm.yaml", []byte(`
provider: sqlite
database_url: file:test.db
schema_path: models/bookstore.worm
statement_cache: false
statement_cache_size: 16
pool:
  max_open_conns: 3
  conn_max_lifetime: 2m
`), 0644))

	cfg, err := LoadConfig(New(), "/project/.worm.yaml")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Provider)
	assert.Equal(t, "file:test.db", cfg.DatabaseURL)
	assert.Equal(t, "models/bookstore.worm", cfg.SchemaPath)
	assert.False(t, cfg.StatementCache)
	assert.Equal(t, 3, cfg.Pool.MaxOpenConns)
	assert.Equal(t, 2*time.Minute, cfg.Pool.ConnMaxLifetime)

	cc := cfg.ClientConfig()
	assert.Equal(t, 3, cc.MaxOpenConns)
	assert.False(t, cc.StatementCache)
	assert.Equal(t, 16, cc.StatementCacheSize)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	memFs(t)
	_, err := LoadConfig(New(), "/nowhere/.worm.yaml")
	assert.Error(t, err)
}

func TestLoadConfigEnvironment(t *testing.T) {
	memFs(t)
	unsetEnv(t, "DATABASE_URL")
	t.Setenv("WORM_PROVIDER", "mysql")
	t.Setenv("WORM_DATABASE_URL", "user:pass@/shop")
	t.Setenv("WORM_POOL_MAX_OPEN_CONNS", "7")

	cfg, err := LoadConfig(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Provider)
	assert.Equal(t, "user:pass@/shop", cfg.DatabaseURL)
	assert.Equal(t, 7, cfg.Pool.MaxOpenConns)
}

func TestLoadConfigDotEnv(t *testing.T) {
	fs := memFs(t)
	unsetEnv(t, "DATABASE_URL", "WORM_DATABASE_URL", "WORM_DEBUG")

	require.NoError(t, afero.WriteFile(fs, ".env", []byte("DATABASE_URL=postgres://a\nWORM_DEBUG=true\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, ".env.local", []byte("DATABASE_URL=postgres://b\n"), 0644))

	cfg, err := LoadConfig(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "postgres://b", cfg.DatabaseURL)
	assert.True(t, cfg.Debug)
}

func TestDotEnvKeepsExistingVariables(t *testing.T) {
	fs := memFs(t)
	t.Setenv("DATABASE_URL", "postgres://env")
	unsetEnv(t, "WORM_DATABASE_URL")

	require.NoError(t, afero.WriteFile(fs, ".env", []byte("DATABASE_URL=postgres://file\n"), 0644))

	cfg, err := LoadConfig(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
}

func TestSaveConfig(t *testing.T) {
	memFs(t)
	unsetEnv(t, "WORM_PROVIDER")

	path, err := SaveConfig(New(), &Config{SchemaPath: "app.worm", Provider: "sqlite", StatementCache: true}, "/project")
	require.NoError(t, err)
	assert.Equal(t, "/project/.worm.yaml", path)

	cfg, err := LoadConfig(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "app.worm", cfg.SchemaPath)
	assert.Equal(t, "sqlite", cfg.Provider)
}
