package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScenesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "Manage per-scene artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newScenesDeleteCommand(ctx))
	cmd.AddCommand(newScenesClearRendersCommand(ctx))
	return cmd
}

func newScenesDeleteCommand(ctx *commandContext) *cobra.Command {
	var purgeAudio bool

	cmd := &cobra.Command{
		Use:   "delete <selection>",
		Short: "Delete artifacts for selected scenes (e.g. 3, 1,4,7 or 10-15)",
		Long: `Delete removes the selected scenes' artifacts so the next run regenerates
them. Speech audio is kept unless --purge-audio is given; synthesized audio is
the most expensive artifact and a content edit rarely needs it redone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, jnl, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			defer jnl.Close()

			deleted, err := p.DeleteScenes(args[0], !purgeAudio)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared artifacts for %d scene(s): %v\n", len(deleted), deleted)
			if !purgeAudio {
				fmt.Fprintln(cmd.OutOrStdout(), "speech audio kept; pass --purge-audio to force re-synthesis")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&purgeAudio, "purge-audio", false, "Also delete synthesized speech audio")
	return cmd
}

func newScenesClearRendersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-renders",
		Short: "Delete every composed clip, keeping images, audio and timing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, jnl, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			defer jnl.Close()

			cleared, err := p.ClearRenders()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d rendered clip(s)\n", len(cleared))
			return nil
		},
	}
}
