package mongo

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mongokeeper/pkg/logger"
)

func newCapturingResolver() (*Resolver, *bytes.Buffer) {
	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithTextFormatter(),
		logger.WithLevel(slog.LevelDebug),
	)
	return NewResolver(log), &buf
}

func TestResolver_Defaults(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	cfg := r.Config()

	assert.Equal(t, "mongodb", cfg.Protocol)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 27017, cfg.Port)
	assert.Equal(t, "test", cfg.Database)
	assert.Equal(t, 0, cfg.MaxConnectAttempts)
	assert.Equal(t, 5*time.Second, cfg.ConnectRetryDelay)
	assert.True(t, cfg.ReconnectOnDisconnect)
	assert.Equal(t, map[string]any{
		"connectTimeoutMS":         10000,
		"serverSelectionTimeoutMS": 30000,
		"retryWrites":              true,
		"retryReads":               true,
	}, cfg.DriverOptions)
	assert.Equal(t, "mongodb://localhost:27017/test", r.ConnectionString())
	assert.NotNil(t, r.Logger())
}

func TestResolver_Merge(t *testing.T) {
	t.Parallel()

	t.Run("explicit settings win over stored values", func(t *testing.T) {
		t.Parallel()
		r, _ := newCapturingResolver()

		r.Merge(Settings{KeyHost: "first", KeyDatabase: "db1"})
		cfg := r.Resolve(Settings{KeyHost: "second"})

		assert.Equal(t, "second", cfg.Host)
		assert.Equal(t, "db1", cfg.Database)
		assert.Equal(t, 27017, cfg.Port)
	})

	t.Run("derives the connection string", func(t *testing.T) {
		t.Parallel()
		r, _ := newCapturingResolver()

		r.Merge(Settings{KeyHost: "unknown", KeyPort: 27018, KeyDatabase: "test1"})
		assert.Equal(t, "mongodb://unknown:27018/test1", r.ConnectionString())

		r.Merge(Settings{KeyProtocol: "mongodb+srv"})
		assert.Equal(t, "mongodb+srv://unknown:27018/test1", r.ConnectionString())
	})

	t.Run("explicit connection string is used verbatim", func(t *testing.T) {
		t.Parallel()
		r, _ := newCapturingResolver()

		r.Merge(URI("mongodb://user:pass@db:27017/app?authSource=admin"))
		assert.Equal(t, "mongodb://user:pass@db:27017/app?authSource=admin", r.ConnectionString())

		r.Merge(Settings{KeyMaxConnectAttempts: 2})
		assert.Equal(t, "mongodb://user:pass@db:27017/app?authSource=admin", r.ConnectionString())
	})

	t.Run("changing url inputs drops an explicit connection string", func(t *testing.T) {
		t.Parallel()
		r, _ := newCapturingResolver()

		r.Merge(URI("mongodb://db:27017/app"))
		r.Merge(Settings{KeyHost: "other"})
		assert.Equal(t, "mongodb://other:27017/test", r.ConnectionString())
		assert.Empty(t, r.Config().ConnectionString)

		r.Merge(Settings{KeyHost: "third", KeyConnectionString: "mongodb://pinned/app"})
		assert.Equal(t, "mongodb://pinned/app", r.ConnectionString())
	})

	t.Run("invalid values are ignored with a warning", func(t *testing.T) {
		t.Parallel()
		r, buf := newCapturingResolver()

		r.Merge(Settings{
			KeyMaxConnectAttempts:    "tooMany",
			KeyPort:                  70000,
			KeyHost:                  "",
			KeyConnectRetryDelay:     -1,
			KeyReconnectOnDisconnect: "sometimes",
			KeyDriverOptions:         []string{"nope"},
			KeyLogger:                "stdout",
		})

		assert.Equal(t, DefaultConfig(), r.Config())
		out := buf.String()
		assert.Contains(t, out, "invalid mongo config value")
		assert.Contains(t, out, "config.maxConnectAttempts should be a number, ignoring")
		assert.Contains(t, out, "config.port should be a port number, ignoring")
		assert.Contains(t, out, "config.host should be a non-empty string, ignoring")
		assert.Contains(t, out, "config.reconnectOnDisconnect should be a boolean, ignoring")
		assert.Contains(t, out, "config.driverOptions should be a map, ignoring")
		assert.Contains(t, out, "config.logger")
	})

	t.Run("unknown keys are reported", func(t *testing.T) {
		t.Parallel()
		r, buf := newCapturingResolver()

		r.Merge(Settings{"poolSize": 10})
		assert.Contains(t, buf.String(), "unknown mongo config key")
		assert.Contains(t, buf.String(), "poolSize")
		assert.Equal(t, DefaultConfig(), r.Config())
	})

	t.Run("accepts loosely typed values", func(t *testing.T) {
		t.Parallel()
		r, _ := newCapturingResolver()

		cfg := r.Resolve(Settings{
			KeyPort:                  "27019",
			KeyMaxConnectAttempts:    float64(4),
			KeyConnectRetryDelay:     250,
			KeyReconnectOnDisconnect: "false",
		})
		assert.Equal(t, 27019, cfg.Port)
		assert.Equal(t, 4, cfg.MaxConnectAttempts)
		assert.Equal(t, 250*time.Millisecond, cfg.ConnectRetryDelay)
		assert.False(t, cfg.ReconnectOnDisconnect)

		cfg = r.Resolve(Settings{KeyConnectRetryDelay: 2 * time.Second})
		assert.Equal(t, 2*time.Second, cfg.ConnectRetryDelay)
	})

	t.Run("driver options merge key by key", func(t *testing.T) {
		t.Parallel()
		r, _ := newCapturingResolver()

		r.Merge(Settings{KeyDriverOptions: map[string]any{"retryWrites": false}})
		r.Merge(Settings{KeyDriverOptions: Settings{"appName": "orders"}})

		opts := r.Config().DriverOptions
		assert.Equal(t, false, opts["retryWrites"])
		assert.Equal(t, true, opts["retryReads"])
		assert.Equal(t, "orders", opts["appName"])
		assert.Equal(t, 10000, opts["connectTimeoutMS"])
	})

	t.Run("logger is installed before other keys are checked", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(logger.Discard())

		var buf bytes.Buffer
		r.Merge(Settings{
			KeyLogger: logger.New(logger.WithOutput(&buf)),
			KeyPort:   "not-a-port",
		})
		assert.Contains(t, buf.String(), "config.port should be a port number, ignoring")
	})
}

func TestResolver_Reset(t *testing.T) {
	t.Parallel()

	r, _ := newCapturingResolver()
	installed := r.Logger()

	r.Merge(Settings{KeyHost: "unknown", KeyPort: 27018, KeyDatabase: "test1"})
	require.Equal(t, "mongodb://unknown:27018/test1", r.ConnectionString())

	r.Reset()
	assert.Equal(t, DefaultConfig(), r.Config())
	assert.Equal(t, "mongodb://localhost:27017/test", r.ConnectionString())
	assert.Same(t, installed, r.Logger())
}

func TestResolver_ConfigIsACopy(t *testing.T) {
	t.Parallel()

	r := NewResolver(logger.Discard())
	cfg := r.Config()
	cfg.DriverOptions["retryWrites"] = false
	cfg.Host = "mutated"

	assert.Equal(t, true, r.Config().DriverOptions["retryWrites"])
	assert.Equal(t, "localhost", r.Config().Host)
}
