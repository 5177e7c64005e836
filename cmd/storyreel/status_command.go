package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-scene artifact state for the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, jnl, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			defer jnl.Close()

			status, err := p.Status()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if status.SceneCount == 0 {
				fmt.Fprintln(out, "no project; submit a script with 'storyreel run'")
				return nil
			}

			rows := make([][]string, 0, len(status.Scenes))
			for _, scene := range status.Scenes {
				rows = append(rows, []string{
					strconv.Itoa(scene.Scene),
					string(scene.State),
					scene.Spoken,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Scene", "State", "Spoken"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d scenes, %d pending\n", status.SceneCount, len(status.Pending))
			fmt.Fprintf(out, "missing images: %s\n", formatScenes(status.MissingImages))
			fmt.Fprintf(out, "missing audio: %s\n", formatScenes(status.MissingAudio))
			fmt.Fprintf(out, "missing timing: %s\n", formatScenes(status.MissingTiming))
			fmt.Fprintf(out, "missing clips: %s\n", formatScenes(status.MissingClips))
			return nil
		},
	}
}

func formatScenes(scenes []int) string {
	if len(scenes) == 0 {
		return "none"
	}
	parts := make([]string, len(scenes))
	for i, scene := range scenes {
		parts[i] = strconv.Itoa(scene)
	}
	return strings.Join(parts, ", ")
}
