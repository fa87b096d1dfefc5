package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "2", Dark: "2"}
	colorError   = lipgloss.AdaptiveColor{Light: "1", Dark: "1"}
	colorPrimary = lipgloss.AdaptiveColor{Light: "5", Dark: "5"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "8", Dark: "8"}
	colorWarning = lipgloss.AdaptiveColor{Light: "3", Dark: "3"}

	styleTitle   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Underline(true)
	styleHeader  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
)

func formatTitle(s string) string   { return styleTitle.Render(s) }
func formatSuccess(s string) string { return styleSuccess.Render("✔ " + s) }
func formatError(s string) string   { return styleError.Render("✘ " + s) }
func formatWarning(s string) string { return styleWarning.Render("⚠ " + s) }

// column is one table column; width 0 means unpadded.
type column struct {
	Header string
	Width  int
}

// renderTable lays rows out in fixed-width columns, truncating long cells.
func renderTable(cols []column, rows [][]string) string {
	var b strings.Builder
	cell := func(s string, w int) string {
		if w == 0 {
			return s
		}
		if r := []rune(s); len(r) > w {
			s = string(r[:w-1]) + "…"
		}
		if pad := w - lipgloss.Width(s); pad > 0 {
			s += strings.Repeat(" ", pad)
		}
		return s
	}

	hdr := make([]string, len(cols))
	for i, c := range cols {
		hdr[i] = cell(c.Header, c.Width)
	}
	b.WriteString(styleHeader.Render(strings.Join(hdr, "  ")))
	b.WriteString("\n")
	for i, row := range rows {
		parts := make([]string, len(cols))
		for j := range cols {
			v := ""
			if j < len(row) {
				v = row[j]
			}
			parts[j] = cell(v, cols[j].Width)
		}
		line := strings.Join(parts, "  ")
		if i%2 == 1 {
			line = lipgloss.NewStyle().Faint(true).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func formatSize(n *int64) string {
	if n == nil {
		return "-"
	}
	switch {
	case *n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(*n)/(1<<20))
	case *n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(*n)/(1<<10))
	}
	return fmt.Sprintf("%d B", *n)
}
