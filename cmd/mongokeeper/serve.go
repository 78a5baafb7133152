package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/mongokeeper/pkg/config"
	"github.com/dmitrymomot/mongokeeper/pkg/logger"
	"github.com/dmitrymomot/mongokeeper/pkg/mongo"
	"github.com/dmitrymomot/mongokeeper/pkg/probe"
)

const closeTimeout = 10 * time.Second

type status struct {
	State    mongo.State `json:"state"`
	Attempts int         `json:"attempts"`
	Database string      `json:"database"`
}

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect and serve health probes until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := flags.logger()
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			var probeCfg probe.Config
			if err := config.Load(&probeCfg); err != nil {
				return err
			}

			m, err := flags.manager(log)
			if err != nil {
				return err
			}

			// Readiness stays NOT_READY until the first sequence finishes.
			m.ConnectCallback(nil, func(_ *mongodriver.Client, err error) {
				if err != nil {
					log.ErrorContext(ctx, "mongo is unavailable", logger.Error(err))
				}
			})

			srv := probe.NewFromConfig(probeCfg, probe.WithLogger(log.With(logger.Component("probe"))))
			runErr := srv.Run(ctx, probe.Handler(probe.Routes{
				Ready:        []probe.Check{mongo.Healthcheck(m)},
				CheckTimeout: probeCfg.CheckTimeout,
				Logger:       log,
				Status: func() any {
					return status{
						State:    m.State(),
						Attempts: m.Attempts(),
						Database: m.Config().Database,
					}
				},
			}))

			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
			defer cancel()
			if err := m.Close(closeCtx, false); err != nil {
				log.ErrorContext(closeCtx, "failed to close mongo connection", logger.Error(err))
			}
			return runErr
		},
	}
}
