package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// InstanceColumns is the layout for the instance listing.
var InstanceColumns = []TableColumn{
	{Title: "Idx", Width: 4},
	{Title: "Instance ID", Width: 20},
	{Title: "State", Width: 11},
	{Title: "Type", Width: 12},
	{Title: "Public DNS", Width: 44},
	{Title: "Launched", Width: 17},
}

// NewTable creates a Bubbles table with the shared styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(string(ColorMuted))).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(string(ColorPrimary)))
	s.Cell = s.Cell.
		Foreground(lipgloss.Color(string(ColorPrimary)))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(string(ColorPrimary))).
		Background(lipgloss.Color(string(ColorMuted))).
		Bold(false)

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string for CLI output.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}
	return NewTable(columns, tableRows).View()
}

// RenderInstanceTable renders the instance listing. Each row is expected in
// InstanceColumns order.
func RenderInstanceTable(rows [][]string) string {
	if len(rows) == 0 {
		return lipgloss.NewStyle().Foreground(ColorMuted).Render("No instances")
	}
	return RenderSimpleTable(InstanceColumns, rows)
}
