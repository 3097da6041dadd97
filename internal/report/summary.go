package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorEnabled reports whether w is a terminal that should get colour output.
func ColorEnabled(w io.Writer) bool {
	if color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Summary prints a short overview of the manifest: counts plus one line per
// stage directory and run file, found roles in green and missing in yellow.
func (m *Manifest) Summary(w io.Writer, useColor bool) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	bold := color.New(color.Bold)
	if useColor {
		green.EnableColor()
		yellow.EnableColor()
		bold.EnableColor()
	} else {
		green.DisableColor()
		yellow.DisableColor()
		bold.DisableColor()
	}

	foundStages := countResolved(m.StageDirs)
	foundFiles := countResolved(m.Files)

	bold.Fprintf(w, "Run %s\n", m.RunID)
	if m.ResultsID != "" {
		fmt.Fprintf(w, "Results: %s\n", m.ResultsID)
	}
	fmt.Fprintf(w, "Location: %s\n", m.RunDir)
	fmt.Fprintf(w, "Stage dirs: %d/%d found\n", foundStages, len(m.StageDirs))
	fmt.Fprintf(w, "Run files: %d/%d found\n", foundFiles, len(m.Files))
	fmt.Fprintf(w, "Samples: %d\n", len(m.Samples))

	for _, section := range []struct {
		title   string
		entries []RoleEntry
	}{
		{"Stage directories", m.StageDirs},
		{"Run files", m.Files},
	} {
		fmt.Fprintf(w, "\n%s:\n", section.title)
		for _, e := range section.entries {
			if len(e.Paths) == 0 {
				yellow.Fprintf(w, "  - %-22s not found\n", e.Role)
				continue
			}
			green.Fprintf(w, "  + %-22s %s\n", e.Role, relativeTo(m.RunDir, e.Paths[0]))
		}
	}
}

func countResolved(entries []RoleEntry) int {
	n := 0
	for _, e := range entries {
		if len(e.Paths) > 0 {
			n++
		}
	}
	return n
}
