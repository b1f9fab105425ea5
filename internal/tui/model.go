// Package tui holds the terminal views of mtc: the countdown run by "mtc do"
// and the styled listings printed by "mtc show".
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/mtc/internal/logger"
)

// Outcome is how a countdown ended
type Outcome int

const (
	OutcomeRunning Outcome = iota
	OutcomeFinished
	OutcomeStopped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFinished:
		return "finished"
	case OutcomeStopped:
		return "stopped"
	default:
		return "running"
	}
}

// Countdown is the bubbletea model behind "mtc do"
type Countdown struct {
	title    string
	total    time.Duration
	timer    timer.Model
	progress progress.Model
	help     help.Model
	keys     keyMap
	outcome  Outcome
}

// NewCountdown creates a countdown of total for the named task
func NewCountdown(title string, total time.Duration) Countdown {
	return Countdown{
		title:    title,
		total:    total,
		timer:    timer.NewWithInterval(total, time.Second),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:     help.New(),
		keys:     keys,
	}
}

// Remaining returns the time left
func (m Countdown) Remaining() time.Duration { return m.timer.Timeout }

// Outcome reports how the countdown ended
func (m Countdown) Outcome() Outcome { return m.outcome }

// Percent returns the elapsed share of the countdown in [0, 1]
func (m Countdown) Percent() float64 {
	if m.total <= 0 {
		return 1
	}
	p := 1 - float64(m.timer.Timeout)/float64(m.total)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// RunCountdown shows the countdown until it runs out, the user stops it or
// ctx ends
func RunCountdown(ctx context.Context, title string, total time.Duration) (Outcome, error) {
	if total <= 0 {
		return OutcomeStopped, fmt.Errorf("task %q has no duration", title)
	}
	logger.Info("Countdown started", logger.F("task", title), logger.F("duration", total.String()))

	final, err := tea.NewProgram(NewCountdown(title, total), tea.WithContext(ctx)).Run()
	if err != nil {
		return OutcomeStopped, fmt.Errorf("countdown failed: %w", err)
	}

	outcome := final.(Countdown).Outcome()
	logger.Info("Countdown ended", logger.F("task", title), logger.F("outcome", outcome.String()))
	return outcome, nil
}
