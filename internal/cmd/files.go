package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/snsindex/internal/analysis"
	"github.com/harrison/snsindex/internal/config"
)

// NewFilesCommand creates and returns the files subcommand
func NewFilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files <run-dir>",
		Short: "List one sample's output files in a stage directory",
		Long: `Search the resolved directory of a stage, including subdirectories, for
files whose names match both the pattern and the sample id prefix.

Without --pattern the stage's configured file_patterns are used.

Examples:
  snsindex files /data/runs/NS500-001 --sample S1 --stage BAM-BWA --pattern "*.bam"
  snsindex files /data/runs/NS500-001 --sample S1 --stage VCF-GATK-HC`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sampleID, _ := cmd.Flags().GetString("sample")
			stage, _ := cmd.Flags().GetString("stage")
			pattern, _ := cmd.Flags().GetString("pattern")

			return withRun(cmd, args, func(s *session, run *analysis.Run, w io.Writer) error {
				return listFilesWithOutput(run, s.cfg.AnalysisOutputIndex, sampleID, stage, pattern, w)
			})
		},
	}

	runFlags(cmd)
	cmd.Flags().String("sample", "", "Sample id (required)")
	cmd.Flags().String("stage", "", "Stage role from the output index (required)")
	cmd.Flags().String("pattern", "", "File name glob (default: the stage's file_patterns)")
	cmd.MarkFlagRequired("sample")
	cmd.MarkFlagRequired("stage")

	return cmd
}

// listFilesWithOutput prints the matching paths, one per line (for testing)
func listFilesWithOutput(run *analysis.Run, index config.OutputIndex, sampleID, stage, pattern string, w io.Writer) error {
	sample, ok := run.Sample(sampleID)
	if !ok {
		return fmt.Errorf("sample %q not found in run %s", sampleID, run.ID)
	}

	var patterns []string
	if pattern != "" {
		patterns = []string{pattern}
	} else {
		attrs, ok := index[stage]
		if !ok {
			return fmt.Errorf("stage %q is not in the output index; pass --pattern", stage)
		}
		if len(attrs.FilePatterns) == 0 {
			return fmt.Errorf("stage %q has no file_patterns; pass --pattern", stage)
		}
		patterns = attrs.FilePatterns
	}

	seen := make(map[string]bool)
	for _, p := range patterns {
		files, err := sample.ResolveOutputFiles(stage, p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s for %s: %w", p, sampleID, err)
		}
		for _, f := range files {
			if seen[f] {
				continue
			}
			seen[f] = true
			fmt.Fprintln(w, f)
		}
	}
	return nil
}
