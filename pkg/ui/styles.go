package ui

import "github.com/charmbracelet/lipgloss"

var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	neonRed     = lipgloss.Color("#FF3131")
	dimWhite    = lipgloss.Color("#B0B0B0")

	cyanStyle    = lipgloss.NewStyle().Foreground(neonCyan)
	yellowStyle  = lipgloss.NewStyle().Foreground(neonYellow)
	redStyle     = lipgloss.NewStyle().Foreground(neonRed)
	greenStyle   = lipgloss.NewStyle().Foreground(neonGreen)
	magentaStyle = lipgloss.NewStyle().Foreground(neonMagenta)
	dimStyle     = lipgloss.NewStyle().Foreground(dimWhite).Faint(true)

	logoStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	numberStyle = cellStyle.Foreground(neonYellow).Align(lipgloss.Right)

	tableBorderStyle = lipgloss.NewStyle().Foreground(neonMagenta)
)

// Colour helpers for inline text
var (
	Cyan    = cyanStyle.Render
	Yellow  = yellowStyle.Render
	Red     = redStyle.Render
	Green   = greenStyle.Render
	Magenta = magentaStyle.Render
	Dim     = dimStyle.Render
)
