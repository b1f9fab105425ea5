package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/mtc/internal/logger"
)

var removeCmd = &cobra.Command{
	Use:     "remove <todo|task|event> <id>",
	Aliases: []string{"rm"},
	Short:   "Remove an item",
	Long: `Remove an item by its id. The removal reaches the remote on the next
'mtc sync'; other ids stay as they are until then.

Ids are renumbered when a sync drops items. The command is refused when that
happened after the last 'mtc show'; --generation checks against a given
listing instead.

Examples:
  mtc remove todo 3
  mtc rm event 0 --generation 12`,
	Args: cobra.ExactArgs(2),
	RunE: runRemove,
}

func init() {
	addGenerationFlag(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	if err := sess.checkGeneration(cmd); err != nil {
		return err
	}

	body, err := removeItem(kind, id)
	if err != nil {
		return fmt.Errorf("%s %w", kind, err)
	}
	sess.changed()
	logger.Info("Item removed", logger.F("kind", kind), logger.F("id", id))

	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Removed %s %d: %q\n", kind, id, body)
	return nil
}

// removeItem marks the item removed and returns its body
func removeItem(kind string, id int) (string, error) {
	items := sess.items
	switch kind {
	case kindTodo:
		t, _ := items.Todos.GetByID(id)
		return t.Body, items.Todos.MarkRemoved(id)
	case kindTask:
		t, _ := items.Tasks.GetByID(id)
		return t.Body, items.Tasks.MarkRemoved(id)
	default:
		e, _ := items.Events.GetByID(id)
		return e.Body, items.Events.MarkRemoved(id)
	}
}
