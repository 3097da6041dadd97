package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/snsindex/internal/analysis"
	"github.com/harrison/snsindex/internal/config"
	"github.com/harrison/snsindex/internal/report"
	"github.com/harrison/snsindex/internal/store"
)

// NewIndexCommand creates and returns the index subcommand
func NewIndexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <run-dir>",
		Short: "Index a run output directory and print a summary",
		Long: `Resolve every configured stage directory, the run-level files and the
sample list of a run output directory.

Examples:
  # Print a summary
  snsindex index /data/runs/NS500-001

  # Resolve per-sample outputs and write a JSON manifest
  snsindex index /data/runs/NS500-001 --outputs --out manifest.json

  # Record a snapshot and report changes since the last one
  snsindex index /data/runs/NS500-001 --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			format, _ := cmd.Flags().GetString("format")
			save, _ := cmd.Flags().GetBool("save")
			outputs, _ := cmd.Flags().GetBool("outputs")

			return withRun(cmd, args, func(s *session, run *analysis.Run, w io.Writer) error {
				return indexWithOutput(cmd, s, run, indexOptions{
					out:     out,
					format:  format,
					save:    save,
					outputs: outputs,
				}, w)
			})
		},
	}

	runFlags(cmd)
	cmd.Flags().String("out", "", "Write a manifest to this file")
	cmd.Flags().String("format", "", "Manifest format: yaml or json (default: from --out extension)")
	cmd.Flags().Bool("save", false, "Record a snapshot in the history database")
	cmd.Flags().Bool("outputs", false, "Resolve every stage's file_patterns for each sample")

	return cmd
}

type indexOptions struct {
	out     string
	format  string
	save    bool
	outputs bool
}

// indexWithOutput prints the run summary and performs the optional manifest,
// snapshot and per-sample steps (for testing)
func indexWithOutput(cmd *cobra.Command, s *session, run *analysis.Run, opts indexOptions, w io.Writer) error {
	if opts.outputs {
		if err := resolveAllOutputs(run, s.cfg.AnalysisOutputIndex); err != nil {
			return err
		}
	}

	manifest := report.NewManifest(run)
	manifest.Summary(w, report.ColorEnabled(w))

	errOut := cmd.ErrOrStderr()
	for _, warning := range manifest.Warnings() {
		fmt.Fprintln(errOut)
		warning.Display(errOut, report.ColorEnabled(errOut))
	}

	if opts.out != "" {
		format := report.FormatForPath(opts.out)
		if opts.format != "" {
			var err error
			if format, err = report.ParseFormat(opts.format); err != nil {
				return err
			}
		}
		if err := manifest.WriteFile(cmd.Context(), opts.out, format); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nManifest written to %s\n", opts.out)
	}

	if opts.save {
		return saveSnapshot(cmd, s.cfg, run, w)
	}
	return nil
}

// resolveAllOutputs resolves the configured file patterns for every sample.
func resolveAllOutputs(run *analysis.Run, index config.OutputIndex) error {
	for _, sample := range run.Samples() {
		if _, err := sample.ResolveStageOutputs(index); err != nil {
			return fmt.Errorf("failed to resolve outputs for %s: %w", sample.ID, err)
		}
	}
	return nil
}

// saveSnapshot records the run and reports whether it changed since the
// previous snapshot of the same run id.
func saveSnapshot(cmd *cobra.Command, cfg *config.Config, run *analysis.Run, w io.Writer) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	previous, err := st.LatestSnapshot(ctx, run.ID)
	if err != nil && !errors.Is(err, store.ErrSnapshotNotFound) {
		return fmt.Errorf("failed to load previous snapshot: %w", err)
	}

	snap := store.SnapshotFromRun(run)
	if err := st.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	fmt.Fprintf(w, "\nSnapshot %s saved\n", snap.ID)
	switch {
	case previous == nil:
		fmt.Fprintln(w, "First snapshot for this run")
	case store.SameContents(previous, snap):
		fmt.Fprintf(w, "Unchanged since snapshot %s\n", previous.ID)
	default:
		fmt.Fprintf(w, "Changed since snapshot %s (-previous +current):\n%s", previous.ID, store.Diff(previous, snap))
	}
	return nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	dbPath, err := config.ResolvePath(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return st, nil
}
