package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, jnl, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			defer jnl.Close()

			runs, err := jnl.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "no recorded runs")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				result := run.OutputPath
				if run.Error != "" {
					result = "error: " + run.Error
				} else if result == "" && run.FinishedAt.IsZero() {
					result = "(in progress)"
				}
				rows = append(rows, []string{
					run.StartedAt.Local().Format(time.DateTime),
					run.MergeKind,
					strconv.Itoa(run.SceneCount),
					strconv.Itoa(run.CompletedCount),
					strconv.Itoa(run.FailedCount),
					result,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Merge", "Scenes", "Done", "Failed", "Result"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of runs to show")
	return cmd
}
