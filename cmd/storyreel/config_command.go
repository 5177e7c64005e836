package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storyreel/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a commented sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			if _, statErr := os.Stat(path); statErr == nil {
				return fmt.Errorf("config already exists at %s", path)
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote sample config to %s\n", path)
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			width, height := cfg.Canvas()
			fmt.Fprintf(out, "project dir:   %s\n", cfg.Paths.ProjectDir)
			fmt.Fprintf(out, "music dir:     %s\n", cfg.Paths.MusicDir)
			fmt.Fprintf(out, "log dir:       %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "api bind:      %s\n", cfg.Paths.APIBind)
			fmt.Fprintf(out, "canvas:        %dx%d (%s)\n", width, height, cfg.Render.Orientation)
			fmt.Fprintf(out, "captions:      enabled=%v mode=%s\n", cfg.Captions.Enabled, cfg.Captions.Mode)
			fmt.Fprintf(out, "voice mode:    %s\n", cfg.Voice.Mode)
			fmt.Fprintf(out, "tts keys:      %d configured\n", len(cfg.Voice.APIKeys))
			fmt.Fprintf(out, "image model:   %s\n", cfg.Images.Model)
			fmt.Fprintf(out, "music mood:    %s\n", cfg.Music.Mood)
			fmt.Fprintf(out, "concurrency:   network=%d local=%d\n",
				cfg.Workflow.NetworkConcurrency, cfg.Workflow.LocalConcurrency)
			return nil
		},
	}
}
