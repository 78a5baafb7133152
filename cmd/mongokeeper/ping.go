package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mongokeeper/pkg/mongo"
)

func pingCmd(flags *globalFlags) *cobra.Command {
	var (
		attempts int
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Connect once, ping the server and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := flags.logger()
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			m, err := flags.manager(log, mongo.Settings{
				mongo.KeyMaxConnectAttempts:    attempts,
				mongo.KeyReconnectOnDisconnect: false,
			})
			if err != nil {
				return err
			}
			defer m.Close(context.WithoutCancel(ctx), true)

			if _, err := m.Connect(ctx, nil); err != nil {
				return err
			}
			if err := m.Healthcheck(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", redact(m.ConnectionString()))
			return nil
		},
	}
	cmd.Flags().IntVar(&attempts, "attempts", 1, "connect attempts before giving up (0 retries forever)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline")
	return cmd
}
