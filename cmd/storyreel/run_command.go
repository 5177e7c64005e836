package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/batch"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var resume bool

	cmd := &cobra.Command{
		Use:   "run [script-file]",
		Short: "Merge a script and render every pending scene",
		Long: `Run merges the submitted script into the project, regenerates whatever
artifacts the merge invalidated, processes pending scenes and assembles the
final video. The script is read from the given file, or from stdin when no
file is named. One line per scene: spoken text, then "||", then the image
prompt. A line starting with a scene number patches that scene in place.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			submission, err := readSubmission(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			p, jnl, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			defer jnl.Close()

			out := cmd.OutOrStdout()
			result, err := p.Run(cmd.Context(), submission, resume, progressPrinter(out))
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\n%d of %d scenes complete", len(result.Completed), result.SceneCount)
			if len(result.Failed) > 0 {
				fmt.Fprintf(out, ", %d failed", len(result.Failed))
				for idx, sceneErr := range result.Failed {
					fmt.Fprintf(out, "\n  scene %d: %v", idx, sceneErr)
				}
			}
			fmt.Fprintf(out, "\noutput: %s\n", result.Output)
			return nil
		},
	}

	cmd.Flags().BoolVar(&resume, "resume", false, "Extend the existing project instead of starting over")
	return cmd
}

func readSubmission(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read script file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read script from stdin: %w", err)
	}
	return string(data), nil
}

func progressPrinter(out io.Writer) batch.ReportFunc {
	overwrite := isTerminal(out)
	return func(rec batch.Progress) {
		line := fmt.Sprintf("[%3d%%] %s (%s)", rec.Percent, rec.Message, rec.Elapsed)
		if overwrite {
			fmt.Fprintf(out, "\r%s", line+strings.Repeat(" ", 8))
			return
		}
		fmt.Fprintln(out, line)
	}
}
