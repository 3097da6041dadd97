package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/snsindex/internal/analysis"
)

// Warning is a user-facing problem with an indexed run.
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Roles      []string // Affected roles (optional)
	Suggestion string   // Action to take (optional)
}

// Display writes the warning, in yellow when useColor is set.
func (w Warning) Display(out io.Writer, useColor bool) {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Roles) > 0 {
		if len(w.Roles) == 1 {
			b.WriteString("    Affected role:\n")
		} else {
			b.WriteString("    Affected roles:\n")
		}
		for i, role := range w.Roles {
			fmt.Fprintf(&b, "      %d. %s\n", i+1, role)
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	yellow := color.New(color.FgYellow)
	if useColor {
		yellow.EnableColor()
	} else {
		yellow.DisableColor()
	}
	yellow.Fprint(out, b.String())
}

// Warnings lists problems a person should look at before trusting the index:
// missing foundational run files and a run without samples.
func (m *Manifest) Warnings() []Warning {
	found := make(map[string]bool, len(m.Files))
	for _, f := range m.Files {
		found[f.Role] = len(f.Paths) > 0
	}

	var missing []string
	for _, role := range analysis.RequiredRunFileRoles() {
		if !found[role] {
			missing = append(missing, role)
		}
	}

	var warnings []Warning
	if len(missing) > 0 {
		warnings = append(warnings, Warning{
			Title:      "Required run files not found",
			Message:    fmt.Sprintf("No match directly under %s", m.RunDir),
			Roles:      missing,
			Suggestion: "Check that the directory is a finished sns run output",
		})
	}
	if len(m.Samples) == 0 {
		warnings = append(warnings, Warning{
			Title:   "No samples found",
			Message: "Per-sample outputs cannot be resolved",
		})
	}
	return warnings
}
