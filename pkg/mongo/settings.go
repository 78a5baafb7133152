package mongo

import (
	"context"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	"dario.cat/mergo"

	"github.com/dmitrymomot/mongokeeper/pkg/logger"
)

// Recognized Settings keys.
const (
	KeyProtocol              = "protocol"
	KeyHost                  = "host"
	KeyPort                  = "port"
	KeyDatabase              = "database"
	KeyConnectionString      = "connectionString"
	KeyMaxConnectAttempts    = "maxConnectAttempts"
	KeyConnectRetryDelay     = "connectRetryDelay" // milliseconds, or a time.Duration
	KeyReconnectOnDisconnect = "reconnectOnDisconnect"
	KeyDriverOptions         = "driverOptions"
	KeyLogger                = "logger"
)

// Settings is a partial configuration keyed by option name. Values are
// untyped because they come from code, YAML files or the environment;
// they are validated when merged.
type Settings map[string]any

// URI is shorthand for Settings{KeyConnectionString: uri}.
func URI(uri string) Settings {
	return Settings{KeyConnectionString: uri}
}

// mergeOrder fixes the order keys are applied in. The logger goes first so
// warnings about the other keys reach it.
var mergeOrder = []string{
	KeyLogger,
	KeyProtocol,
	KeyHost,
	KeyPort,
	KeyDatabase,
	KeyConnectionString,
	KeyMaxConnectAttempts,
	KeyConnectRetryDelay,
	KeyReconnectOnDisconnect,
	KeyDriverOptions,
}

// Resolver owns the stored configuration and the logging slot.
// Merge precedence is: explicit settings > previously stored > defaults.
type Resolver struct {
	mu      sync.RWMutex
	cfg     Config
	derived string // cached derived connection string, empty when stale
	log     Logger
}

// NewResolver creates a resolver holding the factory defaults.
func NewResolver(log Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{cfg: DefaultConfig(), log: log}
}

// Config returns a copy of the stored configuration.
func (r *Resolver) Config() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg.clone()
}

// Logger returns the installed logger.
func (r *Resolver) Logger() Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.log
}

// Reset restores the factory defaults. The installed logger is kept.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = DefaultConfig()
	r.derived = ""
}

// ConnectionString returns the explicit connection string if one is set,
// otherwise <protocol>://<host>:<port>/<database>. The derived value is
// cached until one of its inputs changes.
func (r *Resolver) ConnectionString() string {
	r.mu.RLock()
	if s := r.cfg.ConnectionString; s != "" {
		r.mu.RUnlock()
		return s
	}
	if r.derived != "" {
		s := r.derived
		r.mu.RUnlock()
		return s
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg.ConnectionString != "" {
		return r.cfg.ConnectionString
	}
	if r.derived == "" {
		r.derived = r.cfg.derivedConnectionString()
	}
	return r.derived
}

// Resolve merges s into the stored configuration and returns the result.
func (r *Resolver) Resolve(s Settings) Config {
	r.Merge(s)
	return r.Config()
}

// Merge validates s and merges it into the stored configuration. Invalid
// values are logged as warnings and the previous value is kept.
func (r *Resolver) Merge(s Settings) {
	if len(s) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := context.Background()
	next := r.cfg.clone()
	urlChanged := false

	for _, key := range mergeOrder {
		v, ok := s[key]
		if !ok {
			continue
		}
		if w := r.apply(&next, key, v); w != nil {
			r.log.WarnContext(ctx, "invalid mongo config value",
				logger.ConfigKey(w.Key),
				logger.Error(w),
			)
			continue
		}
		switch key {
		case KeyProtocol, KeyHost, KeyPort, KeyDatabase:
			urlChanged = true
		}
	}

	for _, key := range slices.Sorted(maps.Keys(s)) {
		if !slices.Contains(mergeOrder, key) {
			r.log.WarnContext(ctx, "unknown mongo config key", logger.ConfigKey(key))
		}
	}

	// An explicit connection string only survives URL input changes when the
	// same settings supply it again.
	if urlChanged {
		r.derived = ""
		if _, explicit := s[KeyConnectionString]; !explicit {
			next.ConnectionString = ""
		}
	}

	r.cfg = next
}

// apply validates a single value and stores it in cfg.
// The caller must hold r.mu.
func (r *Resolver) apply(cfg *Config, key string, v any) *ValidationWarning {
	reject := func(reason string) *ValidationWarning {
		return &ValidationWarning{Key: key, Value: v, Reason: reason}
	}

	switch key {
	case KeyLogger:
		l, ok := v.(Logger)
		if !ok || l == nil {
			return reject("should implement Debug/Info/Warn/Error logging")
		}
		r.log = l

	case KeyProtocol, KeyHost, KeyDatabase:
		str, ok := v.(string)
		if !ok || str == "" {
			return reject("should be a non-empty string")
		}
		switch key {
		case KeyProtocol:
			cfg.Protocol = str
		case KeyHost:
			cfg.Host = str
		case KeyDatabase:
			cfg.Database = str
		}

	case KeyConnectionString:
		str, ok := v.(string)
		if !ok {
			return reject("should be a string")
		}
		cfg.ConnectionString = str

	case KeyPort:
		port, ok := asInt(v)
		if !ok {
			if str, isStr := v.(string); isStr {
				port, ok = parseInt(str)
			}
		}
		if !ok || port < 1 || port > math.MaxUint16 {
			return reject("should be a port number")
		}
		cfg.Port = port

	case KeyMaxConnectAttempts:
		n, ok := asInt(v)
		if !ok || n < 0 {
			return reject("should be a number")
		}
		cfg.MaxConnectAttempts = n

	case KeyConnectRetryDelay:
		d, ok := asDelay(v)
		if !ok || d < 0 {
			return reject("should be a number")
		}
		cfg.ConnectRetryDelay = d

	case KeyReconnectOnDisconnect:
		b, ok := asBool(v)
		if !ok {
			return reject("should be a boolean")
		}
		cfg.ReconnectOnDisconnect = b

	case KeyDriverOptions:
		opts, ok := v.(map[string]any)
		if !ok {
			if s, isSettings := v.(Settings); isSettings {
				opts, ok = map[string]any(s), true
			}
		}
		if !ok {
			return reject("should be a map")
		}
		merged := maps.Clone(cfg.DriverOptions)
		if merged == nil {
			merged = map[string]any{}
		}
		if err := mergo.Merge(&merged, opts, mergo.WithOverride); err != nil {
			return reject(err.Error())
		}
		cfg.DriverOptions = merged
	}

	return nil
}

// asInt accepts any integer kind, and floats holding a whole number.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float32:
		return wholeFloat(float64(n))
	case float64:
		return wholeFloat(n)
	}
	return 0, false
}

func wholeFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// asDelay accepts a time.Duration or a number of milliseconds.
func asDelay(v any) (time.Duration, bool) {
	switch d := v.(type) {
	case time.Duration:
		return d, true
	case float32:
		return floatMillis(float64(d))
	case float64:
		return floatMillis(d)
	}
	if ms, ok := asInt(v); ok {
		return time.Duration(ms) * time.Millisecond, true
	}
	return 0, false
}

func floatMillis(f float64) (time.Duration, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return time.Duration(f * float64(time.Millisecond)), true
}

// asBool accepts a bool or a string understood by strconv.ParseBool.
func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	}
	return false, false
}
