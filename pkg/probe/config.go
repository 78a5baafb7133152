package probe

import "time"

type Config struct {
	Addr            string        `env:"PROBE_ADDR" envDefault:":8081"`          // Addr is the address the probe server listens on.
	ReadTimeout     time.Duration `env:"PROBE_READ_TIMEOUT" envDefault:"5s"`     // ReadTimeout is the maximum duration for reading a request.
	WriteTimeout    time.Duration `env:"PROBE_WRITE_TIMEOUT" envDefault:"10s"`   // WriteTimeout bounds the response, health checks included.
	ShutdownTimeout time.Duration `env:"PROBE_SHUTDOWN_TIMEOUT" envDefault:"5s"` // ShutdownTimeout is the time allowed for graceful shutdown.
	CheckTimeout    time.Duration `env:"PROBE_CHECK_TIMEOUT" envDefault:"2s"`    // CheckTimeout bounds each readiness check.
}

// NewFromConfig creates a Server from cfg. Zero values keep the defaults.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	configOpts := make([]Option, 0, 4)

	if cfg.Addr != "" {
		configOpts = append(configOpts, WithAddr(cfg.Addr))
	}
	if cfg.ReadTimeout > 0 {
		configOpts = append(configOpts, WithReadTimeout(cfg.ReadTimeout))
	}
	if cfg.WriteTimeout > 0 {
		configOpts = append(configOpts, WithWriteTimeout(cfg.WriteTimeout))
	}
	if cfg.ShutdownTimeout > 0 {
		configOpts = append(configOpts, WithShutdownTimeout(cfg.ShutdownTimeout))
	}

	return New(append(configOpts, opts...)...)
}
