// Package ui contains the terminal output helpers shared by the commands:
// a small ANSI palette, status symbols, phase lines for the long-running
// launch steps, and the instance table.
package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors, kept to plain ANSI codes so they degrade sensibly on
// basic terminals and over SSH.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)
