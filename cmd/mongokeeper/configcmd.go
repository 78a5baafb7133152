package main

import (
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/mongokeeper/pkg/logger"
)

type resolvedConfig struct {
	ConnectionString      string         `yaml:"connectionString"`
	Database              string         `yaml:"database"`
	MaxConnectAttempts    int            `yaml:"maxConnectAttempts"`
	ConnectRetryDelayMS   int64          `yaml:"connectRetryDelay"`
	ReconnectOnDisconnect bool           `yaml:"reconnectOnDisconnect"`
	DriverOptions         map[string]any `yaml:"driverOptions"`
}

func configCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved settings as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := flags.manager(logger.New(logger.WithOutput(cmd.ErrOrStderr())))
			if err != nil {
				return err
			}

			cfg := m.Config()
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(resolvedConfig{
				ConnectionString:      redact(m.ConnectionString()),
				Database:              cfg.Database,
				MaxConnectAttempts:    cfg.MaxConnectAttempts,
				ConnectRetryDelayMS:   cfg.ConnectRetryDelay.Milliseconds(),
				ReconnectOnDisconnect: cfg.ReconnectOnDisconnect,
				DriverOptions:         cfg.DriverOptions,
			})
		},
	}
}

// redact hides the password of a connection string.
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	return u.Redacted()
}
