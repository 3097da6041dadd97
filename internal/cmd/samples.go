package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/snsindex/internal/analysis"
)

// NewSamplesCommand creates and returns the samples subcommand
func NewSamplesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples <run-dir>",
		Short: "List the sample ids of a run",
		Long: `Print one sample id per line, in the order they first appear in the
run's raw fastq sample sheet. Prints nothing when the sheet is missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRun(cmd, args, func(_ *session, run *analysis.Run, w io.Writer) error {
				return listSamplesWithOutput(run, w)
			})
		},
	}

	runFlags(cmd)
	return cmd
}

func listSamplesWithOutput(run *analysis.Run, w io.Writer) error {
	for _, id := range run.SampleIDs() {
		if _, err := fmt.Fprintln(w, id); err != nil {
			return err
		}
	}
	return nil
}
