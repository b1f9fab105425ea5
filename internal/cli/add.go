package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/mtc/internal/logger"
	"github.com/existflow/mtc/internal/model"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a todo, task or event",
	Long: `Add a new item. It is pushed to the remote on the next 'mtc sync'.

Examples:
  mtc add todo water the plants --weekday sat
  mtc add task practice piano --duration 30 --weekdays mon,wed,fri
  mtc add event dentist --date 2026-11-03
  mtc add event call grandma --date tomorrow`,
}

var addTodoCmd = &cobra.Command{
	Use:   "todo <body...>",
	Short: "Add a todo, optionally on one weekday",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAddTodo,
}

var addTaskCmd = &cobra.Command{
	Use:   "task <body...>",
	Short: "Add a task with a duration",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAddTask,
}

var addEventCmd = &cobra.Command{
	Use:   "event <body...>",
	Short: "Add an event on a date",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAddEvent,
}

var (
	addWeekday  string
	addWeekdays string
	addDuration string
	addDate     string
)

func init() {
	addTodoCmd.Flags().StringVarP(&addWeekday, "weekday", "w", "", "Only on this weekday (e.g. mon)")
	addTaskCmd.Flags().StringVarP(&addWeekdays, "weekdays", "w", "", "Comma separated weekdays, every day when empty")
	addTaskCmd.Flags().StringVarP(&addDuration, "duration", "d", "", "Duration in minutes or as 1h30m")
	addEventCmd.Flags().StringVarP(&addDate, "date", "d", "", "Date: YYYY-MM-DD, today, tomorrow, +N or a weekday")

	_ = addTaskCmd.MarkFlagRequired("duration")
	_ = addEventCmd.MarkFlagRequired("date")

	addCmd.AddCommand(addTodoCmd)
	addCmd.AddCommand(addTaskCmd)
	addCmd.AddCommand(addEventCmd)
}

func runAddTodo(cmd *cobra.Command, args []string) error {
	body, err := joinBody(args)
	if err != nil {
		return err
	}
	weekday, err := parseOptionalWeekday(addWeekday)
	if err != nil {
		return err
	}

	id := sess.items.Todos.Add(model.NewTodo(body, weekday))
	sess.changed()
	logger.Info("Todo added", logger.F("id", id))

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added todo %d: %q\n", id, body)
	return nil
}

func runAddTask(cmd *cobra.Command, args []string) error {
	body, err := joinBody(args)
	if err != nil {
		return err
	}
	duration, err := parseDuration(addDuration)
	if err != nil {
		return err
	}
	weekdays, err := parseWeekdays(addWeekdays)
	if err != nil {
		return err
	}

	id := sess.items.Tasks.Add(model.NewTask(body, duration, weekdays))
	sess.changed()
	logger.Info("Task added", logger.F("id", id))

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added task %d: %q (%d min, %s)\n", id, body, duration, weekdays)
	return nil
}

func runAddEvent(cmd *cobra.Command, args []string) error {
	body, err := joinBody(args)
	if err != nil {
		return err
	}
	date, err := parseDate(addDate, sess.today)
	if err != nil {
		return err
	}

	id := sess.items.Events.Add(model.NewEvent(body, date))
	sess.changed()
	logger.Info("Event added", logger.F("id", id))

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added event %d: %q on %s\n", id, body, date)
	return nil
}
