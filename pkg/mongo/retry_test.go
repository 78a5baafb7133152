package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldAttempt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		attempt     int
		maxAttempts int
		want        bool
	}{
		{"unbounded first", 0, 0, true},
		{"unbounded many", 1000, 0, true},
		{"below limit", 2, 3, true},
		{"at limit", 3, 3, false},
		{"above limit", 4, 3, false},
		{"single attempt left", 0, 1, true},
		{"single attempt used", 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ShouldAttempt(tt.attempt, tt.maxAttempts))
		})
	}
}

func TestRetryPolicy(t *testing.T) {
	t.Parallel()

	t.Run("from config", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.MaxConnectAttempts = 4
		cfg.ConnectRetryDelay = 3 * time.Second

		p := PolicyFor(cfg)
		assert.Equal(t, RetryPolicy{MaxAttempts: 4, Delay: 3 * time.Second}, p)
		assert.Equal(t, 3*time.Second, p.NextDelay())
		assert.False(t, p.Exhausted(3))
		assert.True(t, p.Exhausted(4))
	})

	t.Run("negative delay waits zero", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, time.Duration(0), RetryPolicy{Delay: -time.Second}.NextDelay())
	})

	t.Run("backoff stops once exhausted", func(t *testing.T) {
		t.Parallel()
		p := RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}

		attempts := 0
		err := retry.Do(context.Background(), p.backoff(func() int { return attempts }), func(context.Context) error {
			attempts++
			return retry.RetryableError(errors.New("down"))
		})
		require.EqualError(t, err, "down")
		assert.Equal(t, 3, attempts)
	})

	t.Run("backoff never stops when unbounded", func(t *testing.T) {
		t.Parallel()
		p := RetryPolicy{MaxAttempts: 0, Delay: 0}

		attempts := 0
		err := retry.Do(context.Background(), p.backoff(func() int { return attempts }), func(context.Context) error {
			attempts++
			if attempts < 50 {
				return retry.RetryableError(errors.New("down"))
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 50, attempts)
	})

	t.Run("backoff delay is interrupted by cancellation", func(t *testing.T) {
		t.Parallel()
		p := RetryPolicy{Delay: time.Hour}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := retry.Do(ctx, p.backoff(func() int { return 1 }), func(context.Context) error {
			return retry.RetryableError(errors.New("down"))
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})
}
