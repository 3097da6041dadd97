package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/snsindex/internal/analysis"
	"github.com/harrison/snsindex/internal/filelock"
	"github.com/harrison/snsindex/internal/report"
)

// NewReportCommand creates and returns the report subcommand
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <run-dir>",
		Short: "Render a Markdown or HTML report of a run",
		Long: `Index a run, resolve each sample's configured outputs and render the
result as Markdown, or as a standalone HTML page with --html.

If no output file is specified, the report is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			html, _ := cmd.Flags().GetBool("html")
			out, _ := cmd.Flags().GetString("out")

			return withRun(cmd, args, func(s *session, run *analysis.Run, w io.Writer) error {
				if err := resolveAllOutputs(run, s.cfg.AnalysisOutputIndex); err != nil {
					return err
				}
				return reportWithOutput(cmd, run, html, out, w)
			})
		},
	}

	runFlags(cmd)
	cmd.Flags().Bool("html", false, "Render HTML instead of Markdown")
	cmd.Flags().String("out", "", "Output file path (stdout if not specified)")

	return cmd
}

func reportWithOutput(cmd *cobra.Command, run *analysis.Run, html bool, out string, w io.Writer) error {
	manifest := report.NewManifest(run)

	var data []byte
	if html {
		doc, err := manifest.HTMLDocument()
		if err != nil {
			return err
		}
		data = doc
	} else {
		data = []byte(manifest.Markdown())
	}

	if out == "" {
		_, err := w.Write(data)
		return err
	}

	if err := filelock.WriteFile(cmd.Context(), out, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(w, "Report written to %s\n", out)
	return nil
}
