package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harrison/snsindex/internal/store"
)

// NewHistoryCommand creates and returns the history subcommand
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List snapshots recorded with index --save",
		Long: `List recorded run snapshots, newest first.

Examples:
  snsindex history
  snsindex history --run-id NS500-001 --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run-id")
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			summaries, err := st.ListSnapshots(cmd.Context(), runID, limit)
			if err != nil {
				return fmt.Errorf("failed to list snapshots: %w", err)
			}
			return historyWithOutput(summaries, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("run-id", "", "Only list snapshots of this run")
	cmd.Flags().Int("limit", 20, "Maximum number of snapshots (0 = all)")

	return cmd
}

func historyWithOutput(summaries []store.SnapshotSummary, w io.Writer) error {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No snapshots found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SNAPSHOT\tRUN\tRESULTS\tSAMPLES\tCREATED\tDIR")
	for _, s := range summaries {
		results := s.ResultsID
		if results == "" {
			results = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.RunID, results, s.SampleCount, s.CreatedAt.Local().Format("2006-01-02 15:04:05"), s.RunDir)
	}
	return tw.Flush()
}
