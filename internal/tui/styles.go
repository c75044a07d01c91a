package tui

import "github.com/charmbracelet/lipgloss"

// --- UI Styles ---
var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8942E1"))
	subtleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	dividerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	rowStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	cursorLineStyle = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("#2A2B3D"))
	markStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#3AC4BA"))
	matchStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	noteStyle       = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3AC4BA")).
			Padding(0, 1)
	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#8942E1")).
			Padding(0, 1)
	menuSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color("#8942E1"))
)
