package mongo

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/mongokeeper/pkg/logger"
)

func TestDecodeDriverOptions(t *testing.T) {
	t.Parallel()

	t.Run("known keys are applied", func(t *testing.T) {
		t.Parallel()
		do, err := decodeDriverOptions(map[string]any{
			"appName":                  "orders-api",
			"replicaSet":               "rs0",
			"connectTimeoutMS":         10000,
			"serverSelectionTimeoutMS": "30000",
			"heartbeatFrequencyMS":     500,
			"maxIdleTimeMS":            60000,
			"maxPoolSize":              20,
			"minPoolSize":              uint64(2),
			"retryWrites":              false,
			"retryReads":               "true",
			"directConnection":         true,
		})
		require.NoError(t, err)
		assert.Empty(t, do.unknownKeys())

		opts := options.Client()
		do.apply(opts)

		require.NotNil(t, opts.AppName)
		assert.Equal(t, "orders-api", *opts.AppName)
		require.NotNil(t, opts.ReplicaSet)
		assert.Equal(t, "rs0", *opts.ReplicaSet)
		assert.Equal(t, 10*time.Second, *opts.ConnectTimeout)
		assert.Equal(t, 30*time.Second, *opts.ServerSelectionTimeout)
		assert.Equal(t, 500*time.Millisecond, *opts.HeartbeatInterval)
		assert.Equal(t, time.Minute, *opts.MaxConnIdleTime)
		assert.Equal(t, uint64(20), *opts.MaxPoolSize)
		assert.Equal(t, uint64(2), *opts.MinPoolSize)
		assert.False(t, *opts.RetryWrites)
		assert.True(t, *opts.RetryReads)
		assert.True(t, *opts.Direct)
	})

	t.Run("unknown keys are collected", func(t *testing.T) {
		t.Parallel()
		do, err := decodeDriverOptions(map[string]any{
			"useUnifiedTopology": true,
			"appName":            "x",
			"autoIndex":          false,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"autoIndex", "useUnifiedTopology"}, do.unknownKeys())
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		do, err := decodeDriverOptions(nil)
		require.NoError(t, err)

		opts := options.Client()
		do.apply(opts)
		assert.Nil(t, opts.AppName)
		assert.Nil(t, opts.MaxPoolSize)
	})

	t.Run("wrong types fail", func(t *testing.T) {
		t.Parallel()
		_, err := decodeDriverOptions(map[string]any{"maxPoolSize": "lots"})
		assert.Error(t, err)
	})
}

func TestDisconnectMonitor(t *testing.T) {
	t.Parallel()

	topologyChanged := func(m *disconnectMonitor, kinds ...string) {
		servers := make([]event.ServerDescription, 0, len(kinds))
		for _, kind := range kinds {
			servers = append(servers, event.ServerDescription{Kind: kind})
		}
		m.serverMonitor().TopologyDescriptionChanged(&event.TopologyDescriptionChangedEvent{
			NewDescription: event.TopologyDescription{Kind: "ReplicaSetWithPrimary", Servers: servers},
		})
	}
	lose := func(m *disconnectMonitor) {
		topologyChanged(m, "Unknown")
	}

	t.Run("ignores failures before it is armed", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		m := &disconnectMonitor{}
		m.observe(func() { calls.Add(1) })

		lose(m)
		time.Sleep(20 * time.Millisecond)
		assert.Zero(t, calls.Load())
	})

	t.Run("fires once after being armed", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		m := &disconnectMonitor{}
		m.observe(func() { calls.Add(1) })
		m.arm()

		lose(m)
		lose(m)
		lose(m)

		require.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("late observer still hears about an earlier loss", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		m := &disconnectMonitor{}
		m.arm()
		lose(m)

		m.observe(func() { calls.Add(1) })
		require.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)
	})

	t.Run("survives losing part of a replica set", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		m := &disconnectMonitor{}
		m.observe(func() { calls.Add(1) })
		m.arm()

		topologyChanged(m, "RSPrimary", "Unknown", "RSSecondary")
		topologyChanged(m, "Unknown", "RSSecondary", "RSSecondary")
		topologyChanged(m, "Unknown", "RSPrimary", "RSArbiter")
		time.Sleep(20 * time.Millisecond)
		assert.Zero(t, calls.Load())

		topologyChanged(m, "Unknown", "Unknown", "RSArbiter")
		require.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)
	})

	t.Run("never fires after detach", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		m := &disconnectMonitor{}
		m.observe(func() { calls.Add(1) })
		m.arm()
		m.detach()

		lose(m)
		m.observe(func() { calls.Add(1) })
		time.Sleep(20 * time.Millisecond)
		assert.Zero(t, calls.Load())
	})
}

func TestMongoDriver_Connect(t *testing.T) {
	t.Parallel()

	d := NewDriver(logger.Discard())

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		c, err := d.Connect(ctx, "mongodb://localhost:1/test", map[string]any{
			"serverSelectionTimeoutMS": 100,
			"connectTimeoutMS":         100,
		})
		assert.Nil(t, c)
		assert.ErrorIs(t, err, ErrFailedToConnectToMongo)
	})

	t.Run("malformed url", func(t *testing.T) {
		t.Parallel()
		c, err := d.Connect(context.Background(), "not-a-mongo-url", nil)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, ErrFailedToConnectToMongo)
	})

	t.Run("invalid driver options", func(t *testing.T) {
		t.Parallel()
		c, err := d.Connect(context.Background(), "mongodb://localhost:1/test", map[string]any{"maxPoolSize": "lots"})
		assert.Nil(t, c)
		assert.ErrorIs(t, err, ErrInvalidDriverOptions)
	})
}

func TestTopologyLost(t *testing.T) {
	t.Parallel()

	servers := func(kinds ...string) event.TopologyDescription {
		td := event.TopologyDescription{}
		for _, kind := range kinds {
			td.Servers = append(td.Servers, event.ServerDescription{Kind: kind})
		}
		return td
	}

	for _, kind := range []string{"Standalone", "RSPrimary", "RSSecondary", "Mongos", "LoadBalancer"} {
		assert.False(t, topologyLost(servers("Unknown", kind)), kind)
	}
	assert.True(t, topologyLost(servers()))
	assert.True(t, topologyLost(servers("Unknown")))
	assert.True(t, topologyLost(servers("Unknown", "RSGhost", "RSArbiter", "RSOther")))
}
