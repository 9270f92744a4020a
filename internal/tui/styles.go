package tui

import "github.com/charmbracelet/lipgloss"

// styles contains all lipgloss styles used by the TUI.
var styles = struct {
	// Layout styles
	Container lipgloss.Style
	Divider   lipgloss.Style

	// Header styles
	Title   lipgloss.Style
	Version lipgloss.Style

	// Phase badges
	PhaseReady    lipgloss.Style
	PhaseBusy     lipgloss.Style
	PhaseLogin    lipgloss.Style
	PhaseQuitting lipgloss.Style

	// Loader
	Spinner    lipgloss.Style
	StatusText lipgloss.Style
	Subtext    lipgloss.Style

	// Login
	Prompt lipgloss.Style

	// Balance cards
	Card        lipgloss.Style
	CardTitle   lipgloss.Style
	Amount      lipgloss.Style
	Pending     lipgloss.Style
	Placeholder lipgloss.Style

	// Event log
	Event   lipgloss.Style
	Request lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style

	Footer lipgloss.Style
}{
	Container: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	Version: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	PhaseReady: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	PhaseBusy: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")),

	PhaseLogin: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("214")),

	PhaseQuitting: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("196")),

	Spinner: lipgloss.NewStyle().
		Foreground(lipgloss.Color("63")),

	StatusText: lipgloss.NewStyle().
		Bold(true),

	Subtext: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Prompt: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")),

	Card: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1),

	CardTitle: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")),

	Amount: lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")),

	Pending: lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")),

	Placeholder: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Event: lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")),

	Request: lipgloss.NewStyle().
		Foreground(lipgloss.Color("177")),

	Warning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),
}
