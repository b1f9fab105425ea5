package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/mtc/internal/container"
	"github.com/existflow/mtc/internal/tui"
)

var doCmd = &cobra.Command{
	Use:   "do <task id>",
	Short: "Run a countdown for a task",
	Long: `Start a countdown for the task's duration.

Keys: space pauses, q stops.

Examples:
  mtc do 2`,
	Args: cobra.ExactArgs(1),
	RunE: runDo,
}

func init() {
	addGenerationFlag(doCmd)
}

func runDo(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := sess.checkGeneration(cmd); err != nil {
		return err
	}

	task, ok := sess.items.Tasks.GetByID(id)
	if !ok {
		return fmt.Errorf("task id %d: %w", id, container.ErrNotFound)
	}
	// the countdown can take hours; other commands may run meanwhile
	if err := sess.detach(); err != nil {
		return err
	}

	outcome, err := tui.RunCountdown(cmd.Context(), task.Body, task.Length())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch outcome {
	case tui.OutcomeFinished:
		fmt.Fprintf(out, "✓ Done: %q (%d min)\n", task.Body, task.Duration)
	default:
		fmt.Fprintf(out, "Stopped %q\n", task.Body)
	}
	return nil
}
