package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("APP_ENV", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.App.StorageDriver)
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, 15*time.Second, cfg.HTTP.RequestTimeout)
	assert.Empty(t, cfg.Telemetry.Endpoint)
}

func TestLoad_DriverInvalido(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mysql")
	cfg, err := Load()
	assert.ErrorContains(t, err, "STORAGE_DRIVER")
	assert.Nil(t, cfg)
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_MAX_CONNS", "7")
	t.Setenv("IDEMPOTENCY_TTL_MINUTES", "30")
	t.Setenv("MIGRATIONS_AUTO", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.App.StorageDriver)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 7, cfg.DB.MaxConns)
	assert.Equal(t, 30*time.Minute, cfg.Idempotency.TTL)
	assert.True(t, cfg.App.MigrationsAuto)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
}

func TestLoad_ProductionExigeSecreto(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_CatalogoExigeTenant(t *testing.T) {
	t.Setenv("CATALOG_FILE", "catalogo.csv")
	t.Setenv("CATALOG_TENANT_ID", "")
	_, err := Load()
	assert.ErrorContains(t, err, "CATALOG_TENANT_ID")

	t.Setenv("CATALOG_TENANT_ID", "tenant-1")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "utf-8", cfg.Catalog.Encoding)
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/ledger?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
