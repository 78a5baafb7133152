package logger

import (
	"log/slog"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Attempt records the connection attempt number under the key "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// MaxAttempts records the attempt limit under the key "max_attempts". Zero means unbounded.
func MaxAttempts(n int) slog.Attr {
	return slog.Int("max_attempts", n)
}

// RetryDelay records the delay before the next attempt under the key "retry_delay".
func RetryDelay(d time.Duration) slog.Attr {
	return slog.Duration("retry_delay", d)
}

// State records a lifecycle state under the key "state".
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// Transition records a state change as "from" and "to" under the key "transition".
func Transition(from, to, event string) slog.Attr {
	return Group("transition",
		slog.String("from", from),
		slog.String("to", to),
		slog.String("event", event),
	)
}

// SequenceID records the connect sequence identifier under the key "sequence_id".
// If id is empty, it returns an empty Attr.
func SequenceID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("sequence_id", id)
}

// ConfigKey records a configuration option name under the key "config_key".
func ConfigKey(name string) slog.Attr {
	return slog.String("config_key", name)
}
