package mongo

import (
	"context"
	"maps"
	"strconv"
	"time"

	"github.com/dmitrymomot/mongokeeper/pkg/config"
)

// Logger is the logging capability used by the manager. *slog.Logger satisfies it.
type Logger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// Config is the resolved connection configuration.
type Config struct {
	Protocol string
	Host     string
	Port     int
	Database string // default database returned by Manager.DB

	// ConnectionString, when set, is used verbatim and Protocol/Host/Port/Database
	// are not used to build the URL.
	ConnectionString string

	MaxConnectAttempts    int           // 0 means never give up
	ConnectRetryDelay     time.Duration // fixed wait after each failed attempt
	ReconnectOnDisconnect bool

	// DriverOptions are passed through to the driver. See the driverOptions type
	// for the recognized keys.
	DriverOptions map[string]any
}

// DefaultConfig returns the factory defaults.
func DefaultConfig() Config {
	return Config{
		Protocol:              "mongodb",
		Host:                  "localhost",
		Port:                  27017,
		Database:              "test",
		MaxConnectAttempts:    0,
		ConnectRetryDelay:     5 * time.Second,
		ReconnectOnDisconnect: true,
		DriverOptions: map[string]any{
			"connectTimeoutMS":         10000,
			"serverSelectionTimeoutMS": 30000,
			"retryWrites":              true,
			"retryReads":               true,
		},
	}
}

func (c Config) clone() Config {
	c.DriverOptions = maps.Clone(c.DriverOptions)
	return c
}

func (c Config) derivedConnectionString() string {
	return c.Protocol + "://" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.Database
}

// EnvConfig reads connection settings from the environment.
// Unset variables are left out of the resulting Settings, so stored values and
// defaults still apply.
type EnvConfig struct {
	ConnectionString      string         `env:"MONGODB_URL"`
	Protocol              string         `env:"MONGO_PROTOCOL"`
	Host                  string         `env:"MONGO_HOST"`
	Port                  int            `env:"MONGO_PORT"`
	Database              string         `env:"MONGO_DATABASE"`
	MaxConnectAttempts    *int           `env:"MONGO_MAX_CONNECT_ATTEMPTS"`
	ConnectRetryDelay     *time.Duration `env:"MONGO_CONNECT_RETRY_DELAY"`
	ReconnectOnDisconnect *bool          `env:"MONGO_RECONNECT_ON_DISCONNECT"`
	AppName               string         `env:"MONGO_APP_NAME"`
	MaxPoolSize           uint64         `env:"MONGO_MAX_POOL_SIZE"`
}

// Settings converts the populated fields into Settings.
func (e EnvConfig) Settings() Settings {
	s := Settings{}
	setString := func(key, v string) {
		if v != "" {
			s[key] = v
		}
	}
	setString(KeyConnectionString, e.ConnectionString)
	setString(KeyProtocol, e.Protocol)
	setString(KeyHost, e.Host)
	setString(KeyDatabase, e.Database)
	if e.Port != 0 {
		s[KeyPort] = e.Port
	}
	if e.MaxConnectAttempts != nil {
		s[KeyMaxConnectAttempts] = *e.MaxConnectAttempts
	}
	if e.ConnectRetryDelay != nil {
		s[KeyConnectRetryDelay] = *e.ConnectRetryDelay
	}
	if e.ReconnectOnDisconnect != nil {
		s[KeyReconnectOnDisconnect] = *e.ReconnectOnDisconnect
	}

	driver := map[string]any{}
	if e.AppName != "" {
		driver["appName"] = e.AppName
	}
	if e.MaxPoolSize != 0 {
		driver["maxPoolSize"] = e.MaxPoolSize
	}
	if len(driver) > 0 {
		s[KeyDriverOptions] = driver
	}
	return s
}

// SettingsFromEnv loads EnvConfig (after the default .env file) and converts it.
func SettingsFromEnv() (Settings, error) {
	var e EnvConfig
	if err := config.Load(&e); err != nil {
		return nil, err
	}
	return e.Settings(), nil
}

// SettingsFromFile reads a YAML file. Options are taken from its "mongo"
// block when present, otherwise from the document root.
func SettingsFromFile(path string) (Settings, error) {
	doc, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if section := config.Section(doc, "mongo"); section != nil {
		return Settings(section), nil
	}
	return Settings(doc), nil
}
