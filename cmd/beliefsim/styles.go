package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorAccent = lipgloss.Color("#2196F3")
	colorMuted  = lipgloss.Color("#8a8f98")
	colorBorder = lipgloss.Color("#4a5363")

	titleStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(colorMuted).Width(24)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// printTitle writes a bold section heading.
func printTitle(w io.Writer, s string) {
	fmt.Fprintln(w, titleStyle.Render(s))
}

// printField writes an aligned "label  value" line.
func printField(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %s%v\n", labelStyle.Render(label), value)
}

// renderTable draws rows under headers with a rounded border.
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

// beliefBar renders v in [0, 1] as a fixed-width bar.
func beliefBar(v float64, width int) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	n := int(v*float64(width) + 0.5)
	return strings.Repeat("█", n) + mutedStyle.Render(strings.Repeat("░", width-n))
}
