package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})
}

// renderStats renders the statistics map in display order.
func renderStats(title string, stats types.RunStats) string {
	t := newTable("Metric", "Value")
	for _, entry := range stats.Entries() {
		t.Row(entry.Key, types.FormatStatValue(entry.Value))
	}

	return TitleStyle.Render(title) + "\n" + t.Render()
}

// renderStrategies lists the built-in strategies with their descriptions.
func renderStrategies() (string, error) {
	t := newTable("Name", "Description")

	for _, name := range strategy.Names() {
		s, err := strategy.New(name)
		if err != nil {
			return "", err
		}

		t.Row(name, s.Description())
	}

	return t.Render(), nil
}
