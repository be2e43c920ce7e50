package config_test

import (
	"testing"

	"github.com/clinova/beacon/internal/config"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Run("missing environment", func(t *testing.T) {
		conf, err := config.ConfigFromEnv()
		require.ErrorIs(t, err, config.ErrMissingRequiredValue)
		require.Empty(t, conf)
	})

	t.Run("invalid environment", func(t *testing.T) {
		t.Setenv("BEACON_ENVIRONMENT", "prod")
		conf, err := config.ConfigFromEnv()
		require.ErrorIs(t, err, config.ErrInvalidValue)
		require.Empty(t, conf)
	})

	t.Run("development requires nothing else", func(t *testing.T) {
		t.Setenv("BEACON_ENVIRONMENT", "development")
		conf, err := config.ConfigFromEnv()
		require.NoError(t, err)
		require.True(t, conf.IsDevelopment())
		require.False(t, conf.IsProduction())
		require.False(t, conf.IsStaging())
		require.Equal(t, "development", conf.Environment())
		require.Equal(t, "8080", conf.Port())
	})

	t.Run("production requires all values", func(t *testing.T) {
		t.Setenv("BEACON_ENVIRONMENT", "production")

		conf, err := config.ConfigFromEnv()
		require.ErrorIs(t, err, config.ErrMissingRequiredValue)
		require.Empty(t, conf)

		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USERNAME", "beacon")
		t.Setenv("DB_PASSWORD", "hunter2")
		t.Setenv("SENTRY_DSN", "https://sentry.example.com/1")
		t.Setenv("CLINIC_API_URL", "https://api.example.com")
		t.Setenv("CLINIC_API_KEY", "key")

		conf, err = config.ConfigFromEnv()
		require.NoError(t, err)
		require.True(t, conf.IsProduction())
		require.Equal(t, "localhost", conf.DBHost())
		require.Equal(t, "beacon", conf.DBUsername())
		require.Equal(t, "hunter2", conf.DBPassword())
		require.Equal(t, "https://sentry.example.com/1", conf.SentryDSN())
		require.Equal(t, "https://api.example.com", conf.ClinicAPIURL())
		require.Equal(t, "key", conf.ClinicAPIKey())
	})

	t.Run("custom port", func(t *testing.T) {
		t.Setenv("BEACON_ENVIRONMENT", "development")
		t.Setenv("PORT", "3000")
		conf, err := config.ConfigFromEnv()
		require.NoError(t, err)
		require.Equal(t, "3000", conf.Port())
	})

	t.Run("non-sensitive string redacts secrets", func(t *testing.T) {
		t.Setenv("BEACON_ENVIRONMENT", "development")
		t.Setenv("DB_PASSWORD", "hunter2")
		t.Setenv("CLINIC_API_KEY", "secret-key")
		conf, err := config.ConfigFromEnv()
		require.NoError(t, err)
		require.NotContains(t, conf.NonSensitiveString(), "hunter2")
		require.NotContains(t, conf.NonSensitiveString(), "secret-key")
	})
}
