package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// StageAttributes describes one pipeline stage output directory.
// The indexer only needs the role name and Pattern; the remaining fields are
// carried for reporting and per-sample output discovery.
type StageAttributes struct {
	// Pattern is the glob used to find the stage directory under the run root.
	// Empty means the role name itself.
	Pattern string `yaml:"pattern,omitempty"`

	// Description is a human-readable summary of the stage
	Description string `yaml:"description,omitempty"`

	// FilePatterns are the per-sample output globs expected inside the stage directory
	FilePatterns []string `yaml:"file_patterns,omitempty"`
}

// SearchPattern returns the glob used to locate the stage directory for role.
func (a StageAttributes) SearchPattern(role string) string {
	if a.Pattern != "" {
		return a.Pattern
	}
	return role
}

// OutputIndex maps a logical stage role to its matching attributes
type OutputIndex map[string]StageAttributes

// Roles returns the role names in sorted order.
func (idx OutputIndex) Roles() []string {
	roles := make([]string, 0, len(idx))
	for role := range idx {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// Config represents snsindex configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where index logs will be written
	LogDir string `yaml:"log_dir"`

	// Concurrency is the number of stage directories resolved in parallel (0 or 1 = sequential)
	Concurrency int `yaml:"concurrency"`

	// DBPath is the path to the snapshot database
	DBPath string `yaml:"db_path"`

	// AnalysisOutputIndex lists the stage directories expected in a run's output
	AnalysisOutputIndex OutputIndex `yaml:"analysis_output_index"`
}

// DefaultOutputIndex returns the stage directories produced by the sns WES pipeline
func DefaultOutputIndex() OutputIndex {
	return OutputIndex{
		"FASTQ-TRIMMED": {
			Description:  "adapter and quality trimmed reads",
			FilePatterns: []string{"*.fastq.gz"},
		},
		"BAM-BWA": {
			Description:  "BWA-MEM alignments",
			FilePatterns: []string{"*.bam", "*.bai"},
		},
		"BAM-DD": {
			Description:  "deduplicated alignments",
			FilePatterns: []string{"*.dd.bam"},
		},
		"BAM-GATK-RA-RC": {
			Description:  "realigned and recalibrated alignments",
			FilePatterns: []string{"*.bam"},
		},
		"QC-coverage": {
			Description:  "target coverage summaries",
			FilePatterns: []string{"*.sample_summary"},
		},
		"QC-target-reads": {
			Description:  "on-target read counts",
			FilePatterns: []string{"*.txt"},
		},
		"VCF-GATK-HC": {
			Description:  "GATK HaplotypeCaller variant calls",
			FilePatterns: []string{"*.vcf"},
		},
		"VCF-GATK-HC-annot": {
			Description:  "annotated HaplotypeCaller variants",
			FilePatterns: []string{"*.txt"},
		},
		"VCF-LoFreq": {
			Description:  "LoFreq variant calls",
			FilePatterns: []string{"*.vcf"},
		},
		"VCF-LoFreq-annot": {
			Description:  "annotated LoFreq variants",
			FilePatterns: []string{"*.txt"},
		},
	}
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:            "info",
		LogDir:              "logs",
		Concurrency:         1,
		DBPath:              "index.db",
		AnalysisOutputIndex: DefaultOutputIndex(),
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlCfg Config
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Detect which keys were present so explicit zero values still apply
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if _, exists := rawMap["concurrency"]; exists {
		cfg.Concurrency = yamlCfg.Concurrency
	}
	if _, exists := rawMap["db_path"]; exists {
		cfg.DBPath = yamlCfg.DBPath
	}
	// A supplied index replaces the default one wholesale; stage lists are
	// pipeline specific and merging them would invent stages.
	if section, exists := rawMap["analysis_output_index"]; exists && section != nil {
		cfg.AnalysisOutputIndex = yamlCfg.AnalysisOutputIndex
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .snsindex/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ".snsindex", "config.yaml")
	return LoadConfig(configPath)
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel *string, logDir *string, concurrency *int, dbPath *string) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if concurrency != nil {
		c.Concurrency = *concurrency
	}
	if dbPath != nil {
		c.DBPath = *dbPath
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0, got %d", c.Concurrency)
	}

	if len(c.AnalysisOutputIndex) == 0 {
		return fmt.Errorf("analysis_output_index cannot be empty")
	}

	for role, attrs := range c.AnalysisOutputIndex {
		if role == "" {
			return fmt.Errorf("analysis_output_index contains an empty role name")
		}
		if _, err := filepath.Match(attrs.SearchPattern(role), ""); err != nil {
			return fmt.Errorf("analysis_output_index[%s]: invalid pattern %q: %w", role, attrs.SearchPattern(role), err)
		}
		for _, p := range attrs.FilePatterns {
			if _, err := filepath.Match(p, ""); err != nil {
				return fmt.Errorf("analysis_output_index[%s]: invalid file pattern %q: %w", role, p, err)
			}
		}
	}

	return nil
}
