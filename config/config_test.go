package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()

	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("APP_URL", "https://blog.example.com")
	t.Setenv("IMAGE_SIGNING_SECRET", "s3cret")
	t.Setenv("UPLOADS_DB_URL", "uploads.db")
}

func TestNew_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/uploads", cfg.App.UploadsPrefix)
	assert.Equal(t, DriverSQLite, cfg.UploadsDB.Driver)
	assert.Equal(t, 8*time.Second, cfg.Cache.CPUTimeout)
	assert.False(t, cfg.Kafka.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestNew_MissingSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("IMAGE_SIGNING_SECRET", "")

	_, err := New()
	require.Error(t, err)
}

func TestNew_Validate(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		setRequired(t)
		t.Setenv("UPLOADS_DB_DRIVER", "mysql")

		_, err := New()
		require.Error(t, err)
	})

	t.Run("app url with path", func(t *testing.T) {
		setRequired(t)
		t.Setenv("APP_URL", "https://blog.example.com/blog")

		_, err := New()
		require.Error(t, err)
	})

	t.Run("app url not absolute", func(t *testing.T) {
		setRequired(t)
		t.Setenv("APP_URL", "blog.example.com")

		_, err := New()
		require.Error(t, err)
	})

	t.Run("app url trailing slash", func(t *testing.T) {
		setRequired(t)
		t.Setenv("APP_URL", "https://blog.example.com/")

		_, err := New()
		require.NoError(t, err)
	})

	t.Run("kafka without brokers", func(t *testing.T) {
		setRequired(t)
		t.Setenv("KAFKA_ENABLED", "true")

		_, err := New()
		require.Error(t, err)
	})

	t.Run("kafka brokers list", func(t *testing.T) {
		setRequired(t)
		t.Setenv("KAFKA_ENABLED", "true")
		t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

		cfg, err := New()
		require.NoError(t, err)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	})
}
