package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/mtc/internal/container"
	"github.com/existflow/mtc/internal/logger"
	"github.com/existflow/mtc/internal/model"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change an item",
	Long: `Change an item by its id. Words after the id replace the body; flags
replace the schedule. The edited item gets a new id at the end of its list.

Examples:
  mtc set todo 2 --weekday any
  mtc set task 0 --duration 45
  mtc set event 1 dentist, bring x-rays --date 2026-11-04`,
}

var setTodoCmd = &cobra.Command{
	Use:   "todo <id> [body...]",
	Short: "Change a todo",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSetTodo,
}

var setTaskCmd = &cobra.Command{
	Use:   "task <id> [body...]",
	Short: "Change a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSetTask,
}

var setEventCmd = &cobra.Command{
	Use:   "event <id> [body...]",
	Short: "Change an event",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSetEvent,
}

var (
	setWeekday  string
	setWeekdays string
	setDuration string
	setDate     string
)

func init() {
	setTodoCmd.Flags().StringVarP(&setWeekday, "weekday", "w", "", "Only on this weekday, 'any' for every day")
	setTaskCmd.Flags().StringVarP(&setWeekdays, "weekdays", "w", "", "Comma separated weekdays, 'daily' for every day")
	setTaskCmd.Flags().StringVarP(&setDuration, "duration", "d", "", "Duration in minutes or as 1h30m")
	setEventCmd.Flags().StringVarP(&setDate, "date", "d", "", "Date: YYYY-MM-DD, today, tomorrow, +N or a weekday")

	for _, c := range []*cobra.Command{setTodoCmd, setTaskCmd, setEventCmd} {
		addGenerationFlag(c)
		setCmd.AddCommand(c)
	}
}

// replace swaps the item at id for the result of edit. Items are values, so
// an edit is a removal of the old one plus an addition of the new one.
func replace[T container.Item[T]](c *container.Container[T], id int, edit func(T) (T, error)) (int, T, error) {
	var zero T
	old, ok := c.GetByID(id)
	if !ok {
		return 0, zero, fmt.Errorf("id %d: %w", id, container.ErrNotFound)
	}
	updated, err := edit(old)
	if err != nil {
		return 0, zero, err
	}
	if updated.ContentEquals(old) {
		return id, old, nil
	}
	if err := c.MarkRemoved(id); err != nil {
		return 0, zero, err
	}
	return c.Add(updated), updated, nil
}

// prepareSet parses the id and the optional new body
func prepareSet(cmd *cobra.Command, args []string) (int, string, error) {
	id, err := parseID(args[0])
	if err != nil {
		return 0, "", err
	}
	if err := sess.checkGeneration(cmd); err != nil {
		return 0, "", err
	}
	body := ""
	if len(args) > 1 {
		if body, err = joinBody(args[1:]); err != nil {
			return 0, "", err
		}
	}
	return id, body, nil
}

func reportSet(cmd *cobra.Command, kind string, oldID, newID int, item fmt.Stringer) {
	out := cmd.OutOrStdout()
	if oldID == newID {
		fmt.Fprintf(out, "Nothing changed for %s %d\n", kind, oldID)
		return
	}
	sess.changed()
	logger.Info("Item changed", logger.F("kind", kind), logger.F("old_id", oldID), logger.F("new_id", newID))
	fmt.Fprintf(out, "✓ Changed %s, now %s\n", kind, item)
}

func runSetTodo(cmd *cobra.Command, args []string) error {
	id, body, err := prepareSet(cmd, args)
	if err != nil {
		return err
	}
	newID, todo, err := replace(sess.items.Todos, id, func(t model.Todo) (model.Todo, error) {
		updated := model.NewTodo(t.Body, t.Weekday)
		if body != "" {
			updated.Body = body
		}
		if cmd.Flags().Changed("weekday") {
			wd, err := parseOptionalWeekday(setWeekday)
			if err != nil {
				return t, err
			}
			updated.Weekday = wd
		}
		return updated, nil
	})
	if err != nil {
		return fmt.Errorf("todo %w", err)
	}
	reportSet(cmd, kindTodo, id, newID, todo)
	return nil
}

func runSetTask(cmd *cobra.Command, args []string) error {
	id, body, err := prepareSet(cmd, args)
	if err != nil {
		return err
	}
	newID, task, err := replace(sess.items.Tasks, id, func(t model.Task) (model.Task, error) {
		updated := model.NewTask(t.Body, t.Duration, t.Weekdays)
		if body != "" {
			updated.Body = body
		}
		if cmd.Flags().Changed("duration") {
			d, err := parseDuration(setDuration)
			if err != nil {
				return t, err
			}
			updated.Duration = d
		}
		if cmd.Flags().Changed("weekdays") {
			mask, err := parseWeekdays(setWeekdays)
			if err != nil {
				return t, err
			}
			updated.Weekdays = mask
		}
		return updated, nil
	})
	if err != nil {
		return fmt.Errorf("task %w", err)
	}
	reportSet(cmd, kindTask, id, newID, task)
	return nil
}

func runSetEvent(cmd *cobra.Command, args []string) error {
	id, body, err := prepareSet(cmd, args)
	if err != nil {
		return err
	}
	newID, event, err := replace(sess.items.Events, id, func(e model.Event) (model.Event, error) {
		updated := model.NewEvent(e.Body, e.Date)
		if body != "" {
			updated.Body = body
		}
		if cmd.Flags().Changed("date") {
			date, err := parseDate(setDate, sess.today)
			if err != nil {
				return e, err
			}
			updated.Date = date
		}
		return updated, nil
	})
	if err != nil {
		return fmt.Errorf("event %w", err)
	}
	reportSet(cmd, kindEvent, id, newID, event)
	return nil
}
