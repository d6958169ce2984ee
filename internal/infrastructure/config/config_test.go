package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"PANCAKE_APP_NAME":                os.Getenv("PANCAKE_APP_NAME"),
		"PANCAKE_APP_ENV":                 os.Getenv("PANCAKE_APP_ENV"),
		"PANCAKE_DATABASE_HOST":           os.Getenv("PANCAKE_DATABASE_HOST"),
		"PANCAKE_DATABASE_PORT":           os.Getenv("PANCAKE_DATABASE_PORT"),
		"PANCAKE_DATABASE_USER":           os.Getenv("PANCAKE_DATABASE_USER"),
		"PANCAKE_DATABASE_PASSWORD":       os.Getenv("PANCAKE_DATABASE_PASSWORD"),
		"PANCAKE_DATABASE_DBNAME":         os.Getenv("PANCAKE_DATABASE_DBNAME"),
		"PANCAKE_DATABASE_SSLMODE":        os.Getenv("PANCAKE_DATABASE_SSLMODE"),
		"PANCAKE_DATABASE_MAX_OPEN_CONNS": os.Getenv("PANCAKE_DATABASE_MAX_OPEN_CONNS"),
		"PANCAKE_DATABASE_MAX_IDLE_CONNS": os.Getenv("PANCAKE_DATABASE_MAX_IDLE_CONNS"),
		"PANCAKE_PANCAKE_API_KEY":         os.Getenv("PANCAKE_PANCAKE_API_KEY"),
		"PANCAKE_PANCAKE_BASE_URL":        os.Getenv("PANCAKE_PANCAKE_BASE_URL"),
		"PANCAKE_PANCAKE_RETRY_ATTEMPTS":  os.Getenv("PANCAKE_PANCAKE_RETRY_ATTEMPTS"),
		"PANCAKE_SYNC_INTERVAL":           os.Getenv("PANCAKE_SYNC_INTERVAL"),
		"PANCAKE_SYNC_ORDER_PAGE_SIZE":    os.Getenv("PANCAKE_SYNC_ORDER_PAGE_SIZE"),
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

		assert.Equal(t, "pancake-sync", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "pancake_sync", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "https://pos.pages.fm/api/v1", cfg.Pancake.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.Pancake.Timeout)
		assert.Equal(t, 3, cfg.Pancake.RetryAttempts)
		assert.Equal(t, 30*time.Minute, cfg.Sync.Interval)
		assert.Equal(t, 100*time.Millisecond, cfg.Sync.PagePause)
		assert.Equal(t, 100, cfg.Sync.CategoryPageSize)
		assert.Equal(t, 30, cfg.Sync.ProductPageSize)
		assert.Equal(t, 50, cfg.Sync.CustomerPageSize)
		assert.Equal(t, 100, cfg.Sync.OrderPageSize)
	})

	t.Run("loads values from environment variables with PANCAKE prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("PANCAKE_APP_NAME", "test-app")
		os.Setenv("PANCAKE_APP_ENV", "testing")
		os.Setenv("PANCAKE_DATABASE_HOST", "testdb.local")
		os.Setenv("PANCAKE_DATABASE_PORT", "5433")
		os.Setenv("PANCAKE_DATABASE_USER", "testuser")
		os.Setenv("PANCAKE_DATABASE_PASSWORD", "testpass")
		os.Setenv("PANCAKE_DATABASE_DBNAME", "testdb")
		os.Setenv("PANCAKE_DATABASE_SSLMODE", "require")
		os.Setenv("PANCAKE_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("PANCAKE_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("PANCAKE_PANCAKE_BASE_URL", "https://pos.example.test/api/v1")
		os.Setenv("PANCAKE_SYNC_INTERVAL", "15m")
		os.Setenv("PANCAKE_SYNC_ORDER_PAGE_SIZE", "250")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "https://pos.example.test/api/v1", cfg.Pancake.BaseURL)
		assert.Equal(t, 15*time.Minute, cfg.Sync.Interval)
		assert.Equal(t, 250, cfg.Sync.OrderPageSize)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("PANCAKE_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("PANCAKE_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("PANCAKE_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv()
		os.Setenv("PANCAKE_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("validates retry attempts", func(t *testing.T) {
		clearEnv()
		os.Setenv("PANCAKE_PANCAKE_RETRY_ATTEMPTS", "-2")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry_attempts must be at least 1")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"PANCAKE_APP_ENV":           os.Getenv("PANCAKE_APP_ENV"),
		"PANCAKE_PANCAKE_API_KEY":   os.Getenv("PANCAKE_PANCAKE_API_KEY"),
		"PANCAKE_DATABASE_PASSWORD": os.Getenv("PANCAKE_DATABASE_PASSWORD"),
		"PANCAKE_DATABASE_SSLMODE":  os.Getenv("PANCAKE_DATABASE_SSLMODE"),
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

	t.Run("requires pancake.api_key in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("PANCAKE_APP_ENV", "production")
		os.Setenv("PANCAKE_DATABASE_PASSWORD", "secure-password")
		os.Setenv("PANCAKE_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pancake.api_key is required in production")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("PANCAKE_APP_ENV", "production")
		os.Setenv("PANCAKE_PANCAKE_API_KEY", "prod-api-key")
		os.Setenv("PANCAKE_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("PANCAKE_APP_ENV", "production")
		os.Setenv("PANCAKE_PANCAKE_API_KEY", "prod-api-key")
		os.Setenv("PANCAKE_DATABASE_PASSWORD", "secure-password")
		os.Setenv("PANCAKE_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		os.Setenv("PANCAKE_APP_ENV", "production")
		os.Setenv("PANCAKE_PANCAKE_API_KEY", "prod-api-key")
		os.Setenv("PANCAKE_DATABASE_PASSWORD", "secure-password")
		os.Setenv("PANCAKE_DATABASE_SSLMODE", "require")

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

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}
