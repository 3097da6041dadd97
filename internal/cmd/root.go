package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/snsindex/internal/analysis"
	"github.com/harrison/snsindex/internal/config"
	"github.com/harrison/snsindex/internal/logger"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for snsindex
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snsindex",
		Short: "Index sns WES pipeline run output directories",
		Long: `snsindex maps the output directory of an sns targeted-sequencing (WES)
pipeline run onto logical roles: stage directories, run-level files and
per-sample outputs.

The run directory is only read, never modified. Configuration is loaded
from .snsindex/config.yaml if present.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to config file (default: .snsindex/config.yaml)")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")
	flags.String("log-dir", "", "Directory for log files, relative to the snsindex home (overrides config)")
	flags.Int("concurrency", 0, "Stage directories resolved in parallel (overrides config)")
	flags.String("db-path", "", "Snapshot database path, relative to the snsindex home (overrides config)")

	cmd.AddCommand(NewIndexCommand())
	cmd.AddCommand(NewSamplesCommand())
	cmd.AddCommand(NewFilesCommand())
	cmd.AddCommand(NewReportCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

// loadConfig reads the config file named by --config, or .snsindex/config.yaml,
// then applies any global flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var logLevelPtr, logDirPtr, dbPathPtr *string
	var concurrencyPtr *int
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		v = strings.ToLower(v)
		logLevelPtr = &v
	}
	if cmd.Flags().Changed("log-dir") {
		v, _ := cmd.Flags().GetString("log-dir")
		logDirPtr = &v
	}
	if cmd.Flags().Changed("concurrency") {
		v, _ := cmd.Flags().GetInt("concurrency")
		concurrencyPtr = &v
	}
	if cmd.Flags().Changed("db-path") {
		v, _ := cmd.Flags().GetString("db-path")
		dbPathPtr = &v
	}
	cfg.MergeWithFlags(logLevelPtr, logDirPtr, concurrencyPtr, dbPathPtr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// session bundles what every subcommand needs to index a run.
type session struct {
	cfg     *config.Config
	console *logger.ConsoleLogger
	fileLog *logger.FileLogger
}

// newSession loads config and opens the loggers. Console records go to errOut
// so command output on stdout stays machine readable.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:     cfg,
		console: logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel),
	}

	if cfg.LogDir != "" {
		logDir, err := config.ResolvePath(cfg.LogDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve log directory: %w", err)
		}
		s.fileLog, err = logger.NewFileLoggerWithDirAndLevel(logDir, cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create file logger: %w", err)
		}
	}
	return s, nil
}

// Close releases the file logger, if any.
func (s *session) Close() error {
	if s.fileLog != nil {
		return s.fileLog.Close()
	}
	return nil
}

// indexRun builds the run rooted at dir. An empty id defaults to the
// directory's base name.
func (s *session) indexRun(dir, id, resultsID string) (*analysis.Run, error) {
	if id == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve run directory: %w", err)
		}
		id = filepath.Base(abs)
	}

	opts := []analysis.RunOption{
		analysis.WithResultsID(resultsID),
		analysis.WithLogger(s.console),
		analysis.WithOutputIndex(s.cfg.AnalysisOutputIndex),
		analysis.WithConcurrency(s.cfg.Concurrency),
	}
	if s.fileLog != nil {
		opts = append(opts, analysis.WithExtraLoggers(s.fileLog))
	}

	run, err := analysis.NewRun(dir, id, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", dir, err)
	}
	return run, nil
}

// runFlags registers the flags shared by commands that index a run.
func runFlags(cmd *cobra.Command) {
	cmd.Flags().String("id", "", "Run id (default: run directory name)")
	cmd.Flags().String("results-id", "", "Timestamped id of the analysis results")
}

// withRun opens a session, indexes args[0] and hands the run to fn.
func withRun(cmd *cobra.Command, args []string, fn func(*session, *analysis.Run, io.Writer) error) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	id, _ := cmd.Flags().GetString("id")
	resultsID, _ := cmd.Flags().GetString("results-id")

	run, err := s.indexRun(args[0], id, resultsID)
	if err != nil {
		return err
	}
	return fn(s, run, cmd.OutOrStdout())
}
