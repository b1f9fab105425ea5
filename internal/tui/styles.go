package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Primary   = lipgloss.Color("#4ECDC4")
	Secondary = lipgloss.Color("#6C757D")
	Text      = lipgloss.Color("#FFFFFF")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")

	// Item states
	Pending = lipgloss.Color("#FFE66D") // added locally, not synced yet
	Done    = lipgloss.Color("#95E1A3")
	Failure = lipgloss.Color("#FF6B6B")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(Border)

	IDStyle = lipgloss.NewStyle().
		Foreground(Secondary).
		Width(4).
		Align(lipgloss.Right)

	ItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	PendingStyle = lipgloss.NewStyle().
			Foreground(Pending)

	DetailStyle = lipgloss.NewStyle().
			Foreground(TextMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Done).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Failure).
			Bold(true)

	// Countdown box
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)
