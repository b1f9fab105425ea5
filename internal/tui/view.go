package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the countdown
func (m Countdown) View() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(truncate(m.title, 50)) + "\n\n")

	remaining := m.timer.View()
	switch {
	case m.outcome == OutcomeFinished:
		remaining = SuccessStyle.Render("done")
	case !m.timer.Running():
		remaining += " " + PendingStyle.Render("(paused)")
	}
	b.WriteString(fmt.Sprintf("%s left of %s\n\n", remaining, m.total))
	b.WriteString(m.progress.ViewAs(m.Percent()) + "\n\n")
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return ModalStyle.Render(b.String()) + "\n"
}

// Row is one listed item
type Row struct {
	ID      int
	Text    string
	Detail  string
	Pending bool // added since the last sync
}

// RenderSection renders a titled list of rows
func RenderSection(title string, rows []Row) string {
	var b strings.Builder
	b.WriteString(SectionStyle.Render(title) + "\n")

	if len(rows) == 0 {
		b.WriteString(DetailStyle.Render("     nothing here") + "\n")
		return b.String()
	}

	for _, r := range rows {
		text := r.Text
		if r.Pending {
			text = PendingStyle.Render("+ " + text)
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			IDStyle.Render(fmt.Sprintf("%d", r.ID)),
			ItemStyle.Render(text),
		)
		if r.Detail != "" {
			line += DetailStyle.Render(r.Detail)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// RenderHeader renders the listing header with the id generation ids are
// valid for
func RenderHeader(title string, generation int64) string {
	return HeaderStyle.Render(title) + " " + DetailStyle.Render(fmt.Sprintf("(ids @%d)", generation)) + "\n"
}
