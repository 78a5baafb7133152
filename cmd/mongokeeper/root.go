package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mongokeeper/pkg/logger"
	"github.com/dmitrymomot/mongokeeper/pkg/mongo"
)

type globalFlags struct {
	configPath string
	debug      bool
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "mongokeeper",
		Short: "Keep a MongoDB connection alive and report its health",
		Long: `mongokeeper connects to MongoDB with retries, reconnects when the connection
drops and serves liveness/readiness probes for it.

Settings come from an optional YAML file (--config) and from MONGO_* environment
variables, the environment taking precedence.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML file with mongo settings")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "log at debug level")

	root.AddCommand(
		serveCmd(flags),
		pingCmd(flags),
		configCmd(flags),
	)
	return root
}

func (f *globalFlags) logger() *slog.Logger {
	if f.debug {
		return logger.New(logger.WithDevelopment("mongokeeper"))
	}
	return logger.New(logger.WithProduction("mongokeeper"))
}

// settings layers the config file under the environment.
func (f *globalFlags) settings() ([]mongo.Settings, error) {
	var layers []mongo.Settings
	if f.configPath != "" {
		s, err := mongo.SettingsFromFile(f.configPath)
		if err != nil {
			return nil, err
		}
		layers = append(layers, s)
	}
	env, err := mongo.SettingsFromEnv()
	if err != nil {
		return nil, err
	}
	return append(layers, env), nil
}

func (f *globalFlags) manager(log *slog.Logger, extra ...mongo.Settings) (*mongo.Manager, error) {
	layers, err := f.settings()
	if err != nil {
		return nil, err
	}
	opts := []mongo.Option{mongo.WithLogger(log.With(logger.Component("mongo")))}
	for _, s := range append(layers, extra...) {
		opts = append(opts, mongo.WithSettings(s))
	}
	return mongo.New(opts...), nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
