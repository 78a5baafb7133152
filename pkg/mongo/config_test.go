package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mongokeeper/pkg/config"
	"github.com/dmitrymomot/mongokeeper/pkg/logger"
)

func TestEnvConfig_Settings(t *testing.T) {
	t.Parallel()

	t.Run("empty config yields no settings", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, EnvConfig{}.Settings())
	})

	t.Run("populated fields only", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		reconnect := false
		delay := 250 * time.Millisecond

		s := EnvConfig{
			Host:                  "db",
			Port:                  27018,
			MaxConnectAttempts:    &attempts,
			ConnectRetryDelay:     &delay,
			ReconnectOnDisconnect: &reconnect,
			AppName:               "orders-api",
		}.Settings()

		assert.Equal(t, Settings{
			KeyHost:                  "db",
			KeyPort:                  27018,
			KeyMaxConnectAttempts:    0,
			KeyConnectRetryDelay:     250 * time.Millisecond,
			KeyReconnectOnDisconnect: false,
			KeyDriverOptions:         map[string]any{"appName": "orders-api"},
		}, s)
	})
}

func TestSettingsFromEnv(t *testing.T) {
	config.ResetCache()
	t.Cleanup(config.ResetCache)

	t.Setenv("MONGO_HOST", "env-host")
	t.Setenv("MONGO_PORT", "27020")
	t.Setenv("MONGO_DATABASE", "envdb")
	t.Setenv("MONGO_MAX_CONNECT_ATTEMPTS", "7")
	t.Setenv("MONGO_CONNECT_RETRY_DELAY", "1500ms")
	t.Setenv("MONGO_RECONNECT_ON_DISCONNECT", "false")
	t.Setenv("MONGO_MAX_POOL_SIZE", "15")

	s, err := SettingsFromEnv()
	require.NoError(t, err)

	r := NewResolver(logger.Discard())
	cfg := r.Resolve(s)

	assert.Equal(t, "env-host", cfg.Host)
	assert.Equal(t, 27020, cfg.Port)
	assert.Equal(t, "envdb", cfg.Database)
	assert.Equal(t, 7, cfg.MaxConnectAttempts)
	assert.Equal(t, 1500*time.Millisecond, cfg.ConnectRetryDelay)
	assert.False(t, cfg.ReconnectOnDisconnect)
	assert.Equal(t, uint64(15), cfg.DriverOptions["maxPoolSize"])
	assert.Equal(t, "mongodb://env-host:27020/envdb", r.ConnectionString())
}

func TestSettingsFromFile(t *testing.T) {
	t.Run("mongo section", func(t *testing.T) {
		t.Setenv("TEST_MONGO_FILE_HOST", "yaml-host")

		s, err := SettingsFromFile("testdata/mongo.yaml")
		require.NoError(t, err)

		r := NewResolver(logger.Discard())
		cfg := r.Resolve(s)

		assert.Equal(t, "yaml-host", cfg.Host)
		assert.Equal(t, 27018, cfg.Port)
		assert.Equal(t, "orders", cfg.Database)
		assert.Equal(t, 3, cfg.MaxConnectAttempts)
		assert.Equal(t, 250*time.Millisecond, cfg.ConnectRetryDelay)
		assert.False(t, cfg.ReconnectOnDisconnect)
		assert.Equal(t, "orders-api", cfg.DriverOptions["appName"])
		assert.Equal(t, 20, cfg.DriverOptions["maxPoolSize"])
		assert.Equal(t, true, cfg.DriverOptions["retryWrites"])
	})

	t.Run("document root", func(t *testing.T) {
		s, err := SettingsFromFile("testdata/flat.yaml")
		require.NoError(t, err)

		r := NewResolver(logger.Discard())
		cfg := r.Resolve(s)
		assert.Equal(t, 1, cfg.MaxConnectAttempts)
		assert.Equal(t, "mongodb://replica-a,replica-b/shop?replicaSet=rs0", r.ConnectionString())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := SettingsFromFile("testdata/absent.yaml")
		assert.ErrorIs(t, err, config.ErrReadingFile)
	})
}
