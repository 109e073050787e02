package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"CPQ_APP_NAME":                    os.Getenv("CPQ_APP_NAME"),
		"CPQ_APP_ENV":                     os.Getenv("CPQ_APP_ENV"),
		"CPQ_APP_PORT":                    os.Getenv("CPQ_APP_PORT"),
		"CPQ_DATABASE_HOST":               os.Getenv("CPQ_DATABASE_HOST"),
		"CPQ_DATABASE_PORT":               os.Getenv("CPQ_DATABASE_PORT"),
		"CPQ_DATABASE_USER":               os.Getenv("CPQ_DATABASE_USER"),
		"CPQ_DATABASE_PASSWORD":           os.Getenv("CPQ_DATABASE_PASSWORD"),
		"CPQ_DATABASE_DBNAME":             os.Getenv("CPQ_DATABASE_DBNAME"),
		"CPQ_DATABASE_SSLMODE":            os.Getenv("CPQ_DATABASE_SSLMODE"),
		"CPQ_DATABASE_MAX_OPEN_CONNS":     os.Getenv("CPQ_DATABASE_MAX_OPEN_CONNS"),
		"CPQ_DATABASE_MAX_IDLE_CONNS":     os.Getenv("CPQ_DATABASE_MAX_IDLE_CONNS"),
		"CPQ_ODOO_URL":                    os.Getenv("CPQ_ODOO_URL"),
		"CPQ_ODOO_USERNAME":               os.Getenv("CPQ_ODOO_USERNAME"),
		"CPQ_ODOO_PASSWORD":               os.Getenv("CPQ_ODOO_PASSWORD"),
		"CPQ_WEBHOOK_JWT_SECRET":          os.Getenv("CPQ_WEBHOOK_JWT_SECRET"),
		"CPQ_WEBHOOK_IDEMPOTENCY_BACKEND": os.Getenv("CPQ_WEBHOOK_IDEMPOTENCY_BACKEND"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "cpq-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "cpq", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, "http://localhost:8069", cfg.Odoo.URL)
		assert.Equal(t, 10, cfg.Odoo.AuthRetries)
		assert.Equal(t, "memory", cfg.Webhook.IdempotencyBackend)
	})

	t.Run("loads values from environment variables with CPQ prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("CPQ_APP_NAME", "test-app")
		os.Setenv("CPQ_APP_PORT", "9000")
		os.Setenv("CPQ_DATABASE_HOST", "testdb.local")
		os.Setenv("CPQ_DATABASE_PORT", "5433")
		os.Setenv("CPQ_ODOO_URL", "https://odoo.example.com")
		os.Setenv("CPQ_ODOO_USERNAME", "api@example.com")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "https://odoo.example.com", cfg.Odoo.URL)
		assert.Equal(t, "api@example.com", cfg.Odoo.Username)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("CPQ_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("CPQ_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown idempotency backend", func(t *testing.T) {
		clearEnv()
		os.Setenv("CPQ_WEBHOOK_IDEMPOTENCY_BACKEND", "memcached")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "idempotency_backend")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"CPQ_APP_ENV":            os.Getenv("CPQ_APP_ENV"),
		"CPQ_DATABASE_PASSWORD":  os.Getenv("CPQ_DATABASE_PASSWORD"),
		"CPQ_DATABASE_SSLMODE":   os.Getenv("CPQ_DATABASE_SSLMODE"),
		"CPQ_WEBHOOK_JWT_SECRET": os.Getenv("CPQ_WEBHOOK_JWT_SECRET"),
		"CPQ_ODOO_USERNAME":      os.Getenv("CPQ_ODOO_USERNAME"),
		"CPQ_ODOO_PASSWORD":      os.Getenv("CPQ_ODOO_PASSWORD"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	setValidProductionBase := func() {
		os.Setenv("CPQ_APP_ENV", "production")
		os.Setenv("CPQ_DATABASE_PASSWORD", "secure-password")
		os.Setenv("CPQ_DATABASE_SSLMODE", "require")
		os.Setenv("CPQ_WEBHOOK_JWT_SECRET", "this-is-a-very-secure-webhook-secret-32chars")
		os.Setenv("CPQ_ODOO_USERNAME", "api@example.com")
		os.Setenv("CPQ_ODOO_PASSWORD", "odoo-api-key")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("CPQ_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("CPQ_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("requires webhook.jwt_secret in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("CPQ_WEBHOOK_JWT_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "webhook.jwt_secret is required in production")
	})

	t.Run("requires webhook.jwt_secret at least 32 characters", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("CPQ_WEBHOOK_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt_secret must be at least 32 characters")
	})

	t.Run("requires odoo credentials in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("CPQ_ODOO_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "odoo.username and odoo.password are required")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.local", Port: 6380}
	assert.Equal(t, "redis.local:6380", cfg.Addr())
}
