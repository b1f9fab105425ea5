package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/mtc/internal/model"
	"github.com/existflow/mtc/internal/tui"
)

const (
	scopeToday = "today"
	scopeWeek  = "week"
	scopeMonth = "month"

	monthDays = 30
)

var showCmd = &cobra.Command{
	Use:     "show [todos|tasks|events|today|week|month|<weekday>]",
	Aliases: []string{"ls", "list"},
	Short:   "List items",
	Long: `List items with their ids. Ids change with every sync, so use them
before the next 'mtc sync'.

Examples:
  mtc show            # what is on today
  mtc show tasks      # every task
  mtc show week       # the next seven days
  mtc show month      # events of the next 30 days
  mtc show friday     # what is on next Friday`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	scope := scopeToday
	if len(args) == 1 {
		scope = strings.ToLower(args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, tui.RenderHeader("mtc "+scope, sess.generation(cmd.Context())))
	if err := render(out, scope, sess.today); err != nil {
		return err
	}
	sess.markListed(cmd.Context())
	return nil
}

func render(out io.Writer, scope string, today model.Date) error {
	items := sess.items

	if kind, err := parseKind(scope); err == nil {
		switch kind {
		case kindTodo:
			fmt.Fprint(out, tui.RenderSection("Todos", todoRows(items.Todos.Items())))
		case kindTask:
			fmt.Fprint(out, tui.RenderSection("Tasks", taskRows(items.Tasks.Items())))
		case kindEvent:
			fmt.Fprint(out, tui.RenderSection("Events", eventRows(items.Events.Items())))
		}
		return nil
	}

	switch scope {
	case scopeToday:
		renderDay(out, today, "today")
	case scopeWeek:
		for i := 0; i < 7; i++ {
			day := today.AddDays(i)
			fmt.Fprint(out, tui.RenderSection(dayTitle(day), dayRows(day)))
		}
	case scopeMonth:
		until := today.AddDays(monthDays)
		var events []model.Event
		for _, e := range items.Events.Items() {
			if !e.Date.Before(today) && !e.Date.After(until) {
				events = append(events, e)
			}
		}
		fmt.Fprint(out, tui.RenderSection("Events until "+until.String(), eventRows(events)))
	default:
		wd, err := model.ParseWeekday(scope)
		if err != nil {
			return fmt.Errorf("unknown listing %q", scope)
		}
		day := model.NextOccurrence(wd, today)
		renderDay(out, day, "on "+dayTitle(day))
	}
	return nil
}

// renderDay prints the three lists for one date
func renderDay(out io.Writer, day model.Date, suffix string) {
	items := sess.items
	fmt.Fprint(out, tui.RenderSection("Todos "+suffix, todoRows(items.Todos.ItemsForDate(day))))
	fmt.Fprint(out, tui.RenderSection("Tasks "+suffix, taskRows(items.Tasks.ItemsForDate(day))))
	fmt.Fprint(out, tui.RenderSection("Events "+suffix, eventRows(items.Events.ItemsForDate(day))))
}

// dayRows merges the three kinds for one date into a single section
func dayRows(day model.Date) []tui.Row {
	items := sess.items
	var rows []tui.Row
	for _, r := range todoRows(items.Todos.ItemsForDate(day)) {
		r.Detail = "todo"
		rows = append(rows, r)
	}
	for _, r := range taskRows(items.Tasks.ItemsForDate(day)) {
		r.Detail = "task " + r.Detail
		rows = append(rows, r)
	}
	for _, r := range eventRows(items.Events.ItemsForDate(day)) {
		r.Detail = "event"
		rows = append(rows, r)
	}
	return rows
}

func dayTitle(day model.Date) string {
	return fmt.Sprintf("%s %s", day.Weekday(), day)
}

type listed[T any] interface {
	Less(other T) bool
	ID() int
	State() model.State
}

// sortedRows orders items for display; ids stay attached to their items
func sortedRows[T listed[T]](items []T, detail func(T) (string, string)) []tui.Row {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Less(items[j]) })
	rows := make([]tui.Row, 0, len(items))
	for _, item := range items {
		text, extra := detail(item)
		rows = append(rows, tui.Row{
			ID:      item.ID(),
			Text:    text,
			Detail:  extra,
			Pending: item.State() == model.StateNew,
		})
	}
	return rows
}

func todoRows(todos []model.Todo) []tui.Row {
	return sortedRows(todos, func(t model.Todo) (string, string) {
		if t.Weekday == nil {
			return t.Body, ""
		}
		return t.Body, model.ShortWeekday(*t.Weekday)
	})
}

func taskRows(tasks []model.Task) []tui.Row {
	return sortedRows(tasks, func(t model.Task) (string, string) {
		return t.Body, fmt.Sprintf("%d min, %s", t.Duration, t.Weekdays)
	})
}

func eventRows(events []model.Event) []tui.Row {
	return sortedRows(events, func(e model.Event) (string, string) {
		return e.Body, e.Date.String()
	})
}
