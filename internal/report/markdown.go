package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const missing = "_not found_"

// Markdown renders the manifest as a Markdown report with one table per
// section.
func (m *Manifest) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run %s\n\n", escapeCell(m.RunID))
	if m.ResultsID != "" {
		fmt.Fprintf(&b, "- **Results:** %s\n", escapeCell(m.ResultsID))
	}
	fmt.Fprintf(&b, "- **Location:** `%s`\n", m.RunDir)
	fmt.Fprintf(&b, "- **Samples:** %d\n\n", len(m.Samples))

	b.WriteString("## Stage directories\n\n")
	writeRoleTable(&b, m.RunDir, m.StageDirs)

	b.WriteString("## Run files\n\n")
	writeRoleTable(&b, m.RunDir, m.Files)

	b.WriteString("## Samples\n\n")
	if len(m.Samples) == 0 {
		b.WriteString("No samples found.\n")
		return b.String()
	}
	b.WriteString("| Sample | Resolved outputs |\n")
	b.WriteString("|---|---|\n")
	for _, s := range m.Samples {
		n := 0
		for _, out := range s.Outputs {
			n += len(out.Paths)
		}
		fmt.Fprintf(&b, "| %s | %d |\n", escapeCell(s.ID), n)
	}
	b.WriteString("\n")

	for _, s := range m.Samples {
		if len(s.Outputs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", escapeCell(s.ID))
		writeRoleTable(&b, m.RunDir, s.Outputs)
	}

	return b.String()
}

// writeRoleTable prints paths relative to root where possible.
func writeRoleTable(b *strings.Builder, root string, entries []RoleEntry) {
	if len(entries) == 0 {
		b.WriteString("None configured.\n\n")
		return
	}
	b.WriteString("| Role | Path |\n")
	b.WriteString("|---|---|\n")
	for _, e := range entries {
		if len(e.Paths) == 0 {
			fmt.Fprintf(b, "| %s | %s |\n", escapeCell(e.Role), missing)
			continue
		}
		cells := make([]string, 0, len(e.Paths))
		for _, p := range e.Paths {
			cells = append(cells, "`"+relativeTo(root, p)+"`")
		}
		fmt.Fprintf(b, "| %s | %s |\n", escapeCell(e.Role), strings.Join(cells, ", "))
	}
	b.WriteString("\n")
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// escapeCell keeps pipes and markup in ids from breaking table layout.
func escapeCell(s string) string {
	r := strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`")
	return r.Replace(s)
}

// RenderHTML converts Markdown to an HTML fragment with GFM tables enabled.
func RenderHTML(markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// HTMLDocument wraps the rendered report in a standalone page.
func (m *Manifest) HTMLDocument() ([]byte, error) {
	body, err := RenderHTML(m.Markdown())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>Run %s</title>\n", htmlEscape(m.RunID))
	buf.WriteString("</head>\n<body>\n")
	buf.Write(body)
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
