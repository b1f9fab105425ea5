package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"
)

// Init starts the timer
func (m Countdown) Init() tea.Cmd {
	return m.timer.Init()
}

// Update handles key presses and timer ticks
func (m Countdown) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := msg.Width - 8
		if width > 60 {
			width = 60
		}
		if width > 10 {
			m.progress.Width = width
		}
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.outcome = OutcomeStopped
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			return m, m.timer.Toggle()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case timer.TickMsg, timer.StartStopMsg:
		var cmd tea.Cmd
		m.timer, cmd = m.timer.Update(msg)
		return m, cmd

	case timer.TimeoutMsg:
		if msg.ID != m.timer.ID() {
			return m, nil
		}
		m.outcome = OutcomeFinished
		return m, tea.Quit
	}

	return m, nil
}
