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
		"CASAOPS_APP_NAME":                os.Getenv("CASAOPS_APP_NAME"),
		"CASAOPS_APP_ENV":                 os.Getenv("CASAOPS_APP_ENV"),
		"CASAOPS_APP_PORT":                os.Getenv("CASAOPS_APP_PORT"),
		"CASAOPS_DATABASE_HOST":           os.Getenv("CASAOPS_DATABASE_HOST"),
		"CASAOPS_DATABASE_PORT":           os.Getenv("CASAOPS_DATABASE_PORT"),
		"CASAOPS_DATABASE_USER":           os.Getenv("CASAOPS_DATABASE_USER"),
		"CASAOPS_DATABASE_PASSWORD":       os.Getenv("CASAOPS_DATABASE_PASSWORD"),
		"CASAOPS_DATABASE_DBNAME":         os.Getenv("CASAOPS_DATABASE_DBNAME"),
		"CASAOPS_DATABASE_SSLMODE":        os.Getenv("CASAOPS_DATABASE_SSLMODE"),
		"CASAOPS_DATABASE_MAX_OPEN_CONNS": os.Getenv("CASAOPS_DATABASE_MAX_OPEN_CONNS"),
		"CASAOPS_DATABASE_MAX_IDLE_CONNS": os.Getenv("CASAOPS_DATABASE_MAX_IDLE_CONNS"),
		"CASAOPS_AUTH_JWT_SECRET":         os.Getenv("CASAOPS_AUTH_JWT_SECRET"),
		"CASAOPS_NOTIFICATION_CHANNEL":    os.Getenv("CASAOPS_NOTIFICATION_CHANNEL"),
		"APP_ENV":                         os.Getenv("APP_ENV"),
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

		assert.Equal(t, "casaops-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "casaops", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "log", cfg.Notification.Channel)
		assert.Equal(t, "stub", cfg.Storage.Provider)
		assert.Equal(t, "0 2 * * *", cfg.Scheduler.DailyCronSchedule)
		assert.Equal(t, 3, cfg.Billing.DueSoonLeadDays)
	})

	t.Run("loads values from environment variables with CASAOPS prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("CASAOPS_APP_NAME", "test-app")
		os.Setenv("CASAOPS_APP_ENV", "testing")
		os.Setenv("CASAOPS_APP_PORT", "9000")
		os.Setenv("CASAOPS_DATABASE_HOST", "testdb.local")
		os.Setenv("CASAOPS_DATABASE_PORT", "5433")
		os.Setenv("CASAOPS_DATABASE_USER", "testuser")
		os.Setenv("CASAOPS_DATABASE_PASSWORD", "testpass")
		os.Setenv("CASAOPS_DATABASE_DBNAME", "testdb")
		os.Setenv("CASAOPS_DATABASE_SSLMODE", "require")
		os.Setenv("CASAOPS_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("CASAOPS_DATABASE_MAX_IDLE_CONNS", "10")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("CASAOPS_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("CASAOPS_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("CASAOPS_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv()
		os.Setenv("CASAOPS_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("requires webhook URL when channel is webhook", func(t *testing.T) {
		clearEnv()
		os.Setenv("CASAOPS_NOTIFICATION_CHANNEL", "webhook")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "notification.webhook_url is required")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"CASAOPS_APP_ENV":              os.Getenv("CASAOPS_APP_ENV"),
		"CASAOPS_AUTH_JWT_SECRET":      os.Getenv("CASAOPS_AUTH_JWT_SECRET"),
		"CASAOPS_AUTH_DEV_ORG_HEADER":  os.Getenv("CASAOPS_AUTH_DEV_ORG_HEADER"),
		"CASAOPS_DATABASE_PASSWORD":    os.Getenv("CASAOPS_DATABASE_PASSWORD"),
		"CASAOPS_DATABASE_SSLMODE":     os.Getenv("CASAOPS_DATABASE_SSLMODE"),
		"CASAOPS_STORAGE_PROVIDER":     os.Getenv("CASAOPS_STORAGE_PROVIDER"),
		"CASAOPS_STORAGE_BUCKET":       os.Getenv("CASAOPS_STORAGE_BUCKET"),
		"CASAOPS_STORAGE_ACCESS_KEY":   os.Getenv("CASAOPS_STORAGE_ACCESS_KEY"),
		"CASAOPS_STORAGE_SECRET_KEY":   os.Getenv("CASAOPS_STORAGE_SECRET_KEY"),
		"CASAOPS_SWAGGER_ENABLED":      os.Getenv("CASAOPS_SWAGGER_ENABLED"),
		"CASAOPS_SWAGGER_REQUIRE_AUTH": os.Getenv("CASAOPS_SWAGGER_REQUIRE_AUTH"),
		"CASAOPS_SWAGGER_ALLOWED_IPS":  os.Getenv("CASAOPS_SWAGGER_ALLOWED_IPS"),
		"APP_ENV":                      os.Getenv("APP_ENV"),
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

	// Helper to set valid production base config
	setValidProductionBase := func() {
		os.Setenv("CASAOPS_APP_ENV", "production")
		os.Setenv("CASAOPS_AUTH_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("CASAOPS_DATABASE_PASSWORD", "secure-password")
		os.Setenv("CASAOPS_DATABASE_SSLMODE", "require")
		os.Setenv("CASAOPS_STORAGE_PROVIDER", "s3")
		os.Setenv("CASAOPS_STORAGE_BUCKET", "casaops-artifacts")
		os.Setenv("CASAOPS_SWAGGER_ENABLED", "false") // Disabled by default for security
	}

	t.Run("requires auth.jwt_secret in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("CASAOPS_APP_ENV", "production")
		os.Setenv("CASAOPS_DATABASE_PASSWORD", "secure-password")
		os.Setenv("CASAOPS_DATABASE_SSLMODE", "require")
		os.Setenv("CASAOPS_STORAGE_PROVIDER", "s3")
		os.Setenv("CASAOPS_SWAGGER_ENABLED", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.jwt_secret is required in production")
	})

	t.Run("requires auth.jwt_secret at least 32 characters in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("CASAOPS_APP_ENV", "production")
		os.Setenv("CASAOPS_AUTH_JWT_SECRET", "short-secret")
		os.Setenv("CASAOPS_DATABASE_PASSWORD", "secure-password")
		os.Setenv("CASAOPS_DATABASE_SSLMODE", "require")
		os.Setenv("CASAOPS_STORAGE_PROVIDER", "s3")
		os.Setenv("CASAOPS_SWAGGER_ENABLED", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.jwt_secret must be at least 32 characters")
	})

	t.Run("rejects dev org header in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("CASAOPS_AUTH_DEV_ORG_HEADER", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.dev_org_header must be false in production")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("CASAOPS_APP_ENV", "production")
		os.Setenv("CASAOPS_AUTH_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("CASAOPS_DATABASE_SSLMODE", "require")
		os.Setenv("CASAOPS_STORAGE_PROVIDER", "s3")
		os.Setenv("CASAOPS_SWAGGER_ENABLED", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("CASAOPS_APP_ENV", "production")
		os.Setenv("CASAOPS_AUTH_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("CASAOPS_DATABASE_PASSWORD", "secure-password")
		os.Setenv("CASAOPS_DATABASE_SSLMODE", "disable")
		os.Setenv("CASAOPS_STORAGE_PROVIDER", "s3")
		os.Setenv("CASAOPS_SWAGGER_ENABLED", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects stub storage in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("CASAOPS_STORAGE_PROVIDER", "stub")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.provider cannot be 'stub' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("fails if swagger enabled without protection in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("CASAOPS_SWAGGER_ENABLED", "true")
		os.Setenv("CASAOPS_SWAGGER_REQUIRE_AUTH", "false")
		// No IP whitelist set

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger endpoint must be disabled, require authentication, or have IP restriction")
	})

	t.Run("passes with swagger enabled and require_auth in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("CASAOPS_SWAGGER_ENABLED", "true")
		os.Setenv("CASAOPS_SWAGGER_REQUIRE_AUTH", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Swagger.Enabled)
		assert.True(t, cfg.Swagger.RequireAuth)
	})

	t.Run("passes with swagger disabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("CASAOPS_SWAGGER_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.Swagger.Enabled)
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
