package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "DB_DRIVER", "DATABASE_DSN", "TOKEN_TTL", "COURIER_CACHE_TTL", "REDIS_ADDR", "AMQP_URL", "ADMIN_EMAIL", "ADMIN_PASSWORD"} {
		t.Setenv(k, "")
	}

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.CourierCacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.AdminEmail)
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	// godotenv never overrides variables that exist, even empty ones
	t.Setenv("PORT", "")
	t.Setenv("COURIER_CACHE_TTL", "")
	os.Unsetenv("PORT")
	os.Unsetenv("COURIER_CACHE_TTL")
	t.Setenv("TOKEN_TTL", "90")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nCOURIER_CACHE_TTL=1m\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, time.Minute, cfg.CourierCacheTTL)
	assert.Equal(t, 90*time.Second, cfg.TokenTTL)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "oracle")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("duration", func(t *testing.T) {
		t.Setenv("TOKEN_TTL", "soon")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("admin without password", func(t *testing.T) {
		t.Setenv("ADMIN_EMAIL", "root@example.com")
		t.Setenv("ADMIN_PASSWORD", "")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestOpenDB_Memory(t *testing.T) {
	db, err := OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.True(t, db.Migrator().HasTable("orders"))
	assert.True(t, db.Migrator().HasTable("courier_reviews"))
	assert.True(t, db.Migrator().HasTable("favorite_orders"))
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, ":memory:", sqliteDSN(":memory:"))
	assert.Equal(t, "x.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", sqliteDSN("x.db"))
	assert.Equal(t, "x.db?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", sqliteDSN("x.db?mode=rwc"))
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewLogger("loud")
	assert.Error(t, err)
}
