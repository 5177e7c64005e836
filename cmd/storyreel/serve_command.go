package main

import (
	"github.com/spf13/cobra"

	"storyreel/internal/api"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP with websocket progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			p, jnl, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			defer jnl.Close()

			server := api.NewServer(cfg, p, jnl, logger)
			return server.ListenAndServe(cmd.Context())
		},
	}
}
