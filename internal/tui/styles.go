package tui

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle is used for screen titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")). // Purple
			MarginBottom(1)

	// SelectedItemStyle is used for the highlighted task row.
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")). // Light purple
				Bold(true)

	// NormalItemStyle is used for non-selected task rows.
	NormalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Light gray

	// ImportedMarkStyle marks tasks already persisted locally.
	ImportedMarkStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("78")) // Green

	// DoneStyle dims completed tasks.
	DoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Dark gray
			Strikethrough(true)

	// ErrorStyle is used for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// HelpStyle is used for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Dark gray
			MarginTop(1)
)
