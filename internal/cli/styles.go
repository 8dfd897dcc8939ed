package cli

import "github.com/charmbracelet/lipgloss"

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	TakenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	DueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	DangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)
