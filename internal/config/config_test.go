package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("emp-1")
	cfg.Storage = StorageConfig{Driver: "postgres", DSN: "postgres://localhost/razao"}
	cfg.Cache.RedisAddr = "localhost:6379"
	cfg.Ledger.Strict = true

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default("emp-1")

	assert.Equal(t, "emp-1", cfg.CompanyID)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Empty(t, cfg.Cache.RedisAddr)
	assert.False(t, cfg.Ledger.Strict)
	assert.Equal(t, 50, cfg.Ledger.InstallmentBatchSize)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("company_id: emp-9\ncache:\n  ttl: 90s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "emp-9", cfg.CompanyID)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 50, cfg.Ledger.InstallmentBatchSize)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("emp-1")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "company_id: emp-1")
	assert.Contains(t, contents, "driver: memory")
	assert.Contains(t, contents, "ttl: 10m0s")
	assert.Contains(t, contents, "installment_batch_size: 50")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvCompanyID, "emp-env")
	t.Setenv(EnvStorageDriver, "sqlite")
	t.Setenv(EnvDSN, "file:razao.db")
	t.Setenv(EnvRedisAddr, "redis:6379")
	t.Setenv(EnvStrict, "true")
	t.Setenv(EnvLogLevel, "debug")

	cfg := Default("emp-1")
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, "emp-env", cfg.CompanyID)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "file:razao.db", cfg.Storage.DSN)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
	assert.True(t, cfg.Ledger.Strict)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestApplyEnv_InvalidStrict(t *testing.T) {
	t.Setenv(EnvStrict, "sometimes")
	assert.Error(t, ApplyEnv(Default("")))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadEnvFile(filepath.Join(dir, ".env")), "missing file is fine")

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RAZAO_COMPANY_ID=emp-dotenv\n"), 0o644))
	t.Setenv(EnvCompanyID, "")
	require.NoError(t, os.Unsetenv(EnvCompanyID))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "emp-dotenv", os.Getenv(EnvCompanyID))
}
