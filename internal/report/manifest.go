// Package report turns an indexed run into files and text for people and
// downstream tools: a YAML or JSON manifest, a Markdown/HTML report and a
// terminal summary.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harrison/snsindex/internal/analysis"
	"github.com/harrison/snsindex/internal/filelock"
)

// Format selects the manifest encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" or "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid format '%s': format must be 'yaml' or 'json'", s)
	}
}

// RoleEntry is one role and the paths resolved for it.
type RoleEntry struct {
	Role  string   `yaml:"role" json:"role"`
	Paths []string `yaml:"paths" json:"paths"`
}

// SampleEntry lists a sample and any outputs resolved on it.
type SampleEntry struct {
	ID      string      `yaml:"id" json:"id"`
	Outputs []RoleEntry `yaml:"outputs,omitempty" json:"outputs,omitempty"`
}

// Manifest is the serializable index of a run.
type Manifest struct {
	RunID     string        `yaml:"run_id" json:"run_id"`
	ResultsID string        `yaml:"results_id,omitempty" json:"results_id,omitempty"`
	RunDir    string        `yaml:"run_dir" json:"run_dir"`
	StageDirs []RoleEntry   `yaml:"stage_dirs" json:"stage_dirs"`
	Files     []RoleEntry   `yaml:"files" json:"files"`
	Samples   []SampleEntry `yaml:"samples" json:"samples"`
}

// NewManifest copies run into a Manifest. Every role is listed, resolved or
// not, in sorted order; samples keep sample sheet order.
func NewManifest(run *analysis.Run) *Manifest {
	m := &Manifest{
		RunID:     run.ID,
		ResultsID: run.ResultsID,
		RunDir:    run.Dir,
		StageDirs: roleEntries(run.DirRoles(), run.Dirs),
		Files:     roleEntries(run.FileRoles(), run.Files),
		Samples:   make([]SampleEntry, 0, len(run.Samples())),
	}

	for _, s := range run.Samples() {
		entry := SampleEntry{ID: s.ID}
		for _, role := range s.FileRoles() {
			if paths := s.Files(role); len(paths) > 0 {
				entry.Outputs = append(entry.Outputs, RoleEntry{Role: role, Paths: paths})
			}
		}
		m.Samples = append(m.Samples, entry)
	}
	return m
}

func roleEntries(roles []string, lookup func(string) []string) []RoleEntry {
	entries := make([]RoleEntry, 0, len(roles))
	for _, role := range roles {
		entries = append(entries, RoleEntry{Role: role, Paths: lookup(role)})
	}
	return entries
}

// Encode writes the manifest to w in the given format.
func (m *Manifest) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(m); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(m); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// Marshal returns the encoded manifest.
func (m *Manifest) Marshal(format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Encode(&buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the manifest to path while holding path's lock file.
func (m *Manifest) WriteFile(ctx context.Context, path string, format Format) error {
	data, err := m.Marshal(format)
	if err != nil {
		return err
	}
	if err := filelock.WriteFile(ctx, path, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// DecodeManifest reads a manifest written by Encode.
func DecodeManifest(r io.Reader, format Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return &m, nil
}

// FormatForPath guesses the format from a file extension, defaulting to YAML.
func FormatForPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}
