package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/mtc/internal/config"
	"github.com/existflow/mtc/internal/container"
	"github.com/existflow/mtc/internal/logger"
	"github.com/existflow/mtc/internal/model"
	"github.com/existflow/mtc/internal/store"
	"github.com/existflow/mtc/internal/sync"
	"github.com/existflow/mtc/internal/tui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the lists with the remote",
	Long: `Reconcile the local lists with the remote copy. Local additions and
removals are pushed, remote ones are pulled. Every sync renumbers the ids.

Commands:
  mtc sync              # Merge with the remote
  mtc sync self         # Only compact and renumber the local lists
  mtc sync overwrite    # Replace the remote with the local lists
  mtc sync status       # Show configuration and recent runs
  mtc sync watch        # Merge periodically until interrupted`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSyncMode(cmd, sync.ModeMerge)
	},
}

var syncSelfCmd = &cobra.Command{
	Use:   "self",
	Short: "Compact and renumber the local lists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSyncMode(cmd, sync.ModeSelf)
	},
}

var syncOverwriteCmd = &cobra.Command{
	Use:   "overwrite",
	Short: "Replace the remote with the local lists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSyncMode(cmd, sync.ModeOverwrite)
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync configuration and recent runs",
	Args:  cobra.NoArgs,
	RunE:  runSyncStatus,
}

var syncWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Merge with the remote periodically",
	Args:  cobra.NoArgs,
	RunE:  runSyncWatch,
}

var watchInterval time.Duration

func init() {
	syncWatchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Minute, "Time between syncs")

	syncCmd.AddCommand(syncSelfCmd)
	syncCmd.AddCommand(syncOverwriteCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncWatchCmd)
}

// newTransport connects to the configured remote
func newTransport(ctx context.Context, cfg config.SyncConfig) (sync.Transport, error) {
	switch cfg.Transport {
	case config.TransportHTTP:
		t, err := sync.NewHTTPTransport(cfg.ServerURL, cfg.Token)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		opts, err := sync.SSHOptionsFromConfig(cfg, promptSecret)
		if err != nil {
			return nil, err
		}
		t, err := sync.DialSSH(ctx, opts)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

func newCodec(cfg config.SyncConfig) (sync.Codec, error) {
	if !cfg.Encrypt {
		return sync.Plain{}, nil
	}
	p, err := passphrase()
	if err != nil {
		return nil, err
	}
	sealed, err := sync.NewSealed(p)
	if err != nil {
		return nil, err
	}
	return sealed, nil
}

// newRunner builds a runner for mode. The returned close func releases the
// transport.
func newRunner(ctx context.Context, mode sync.Mode) (*sync.Runner, func(), error) {
	journal, err := sess.db()
	if err != nil {
		logger.Warn("Sync runs will not be recorded", logger.F("error", err))
		journal = nil
	}
	runner := &sync.Runner{Journal: journal, Persist: sess.persist}
	if mode == sync.ModeSelf {
		return runner, func() {}, nil
	}

	codec, err := newCodec(sess.cfg.Sync)
	if err != nil {
		return nil, nil, err
	}
	transport, err := newTransport(ctx, sess.cfg.Sync)
	if err != nil {
		return nil, nil, err
	}
	runner.Codec = codec
	runner.Transport = transport
	return runner, func() { _ = transport.Close() }, nil
}

func runSyncMode(cmd *cobra.Command, mode sync.Mode) error {
	out := cmd.OutOrStdout()
	switch mode {
	case sync.ModeOverwrite:
		fmt.Fprintln(out, "⚠️  Replacing the remote with the local lists...")
	case sync.ModeMerge:
		fmt.Fprintln(out, "🔄 Synchronizing...")
	}

	runner, closeRunner, err := newRunner(cmd.Context(), mode)
	if err != nil {
		return err
	}
	defer closeRunner()

	report, err := runner.Run(cmd.Context(), sess.items, mode)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	// the runner saved every list it finished
	sess.dirty = false

	printReport(out, mode, report)
	return nil
}

func printReport(out io.Writer, mode sync.Mode, r container.Report) {
	switch mode {
	case sync.ModeSelf:
		fmt.Fprintln(out, tui.SuccessStyle.Render("✓ Lists compacted"))
	case sync.ModeOverwrite:
		fmt.Fprintf(out, "%s Pushed: %d\n", tui.SuccessStyle.Render("✓ Remote replaced!"), r.Pushed)
	default:
		fmt.Fprintf(out, "%s Pushed: %d, Pulled: %d, Removed remotely: %d, Dropped locally: %d\n",
			tui.SuccessStyle.Render("✓ Sync complete!"), r.Pushed, r.Pulled, r.RemovedRemote, r.DroppedLocal)
	}
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := sess.cfg.Sync

	fmt.Fprintf(out, "Transport:  %s\n", cfg.Transport)
	switch cfg.Transport {
	case config.TransportHTTP:
		fmt.Fprintf(out, "Server:     %s\n", cfg.ServerURL)
	default:
		fmt.Fprintf(out, "Server:     %s@%s:%s\n", cfg.Username, cfg.Address, cfg.ServerPath)
	}
	fmt.Fprintf(out, "Encrypted:  %v\n", cfg.Encrypt)
	fmt.Fprintf(out, "Generation: %d\n", sess.generation(cmd.Context()))

	journal, err := sess.db()
	if err != nil {
		return err
	}
	runs, err := journal.RecentRuns(cmd.Context(), 10)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	if len(runs) == 0 {
		fmt.Fprintln(out, tui.DetailStyle.Render("No sync yet. Run 'mtc sync overwrite' once to create the remote."))
		return nil
	}
	fmt.Fprintln(out, tui.HeaderStyle.Render("Recent runs"))
	for _, r := range runs {
		status := tui.SuccessStyle.Render(r.Status)
		if r.Error != "" {
			status = tui.ErrorStyle.Render(r.Status)
		}
		fmt.Fprintf(out, "  %s  %-9s %s  ↑%d ↓%d\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), r.Mode, status, r.Pushed, r.Pulled)
		if r.Error != "" {
			fmt.Fprintf(out, "  %s\n", tui.DetailStyle.Render(r.Error))
		}
	}
	return nil
}

func runSyncWatch(cmd *cobra.Command, args []string) error {
	runner, closeRunner, err := newRunner(cmd.Context(), sync.ModeMerge)
	if err != nil {
		return err
	}
	defer closeRunner()

	// Every tick locks and reloads the lists itself
	if err := sess.detach(); err != nil {
		return err
	}

	dir := sess.cfg.DataDir
	out := cmd.OutOrStdout()
	w := &sync.Watcher{
		Interval: watchInterval,
		Sync: func(ctx context.Context) (container.Report, error) {
			return syncTick(ctx, runner, dir)
		},
		OnSync: func(r container.Report) {
			if r.Changed() {
				fmt.Fprintf(out, "%s ↑%d ↓%d\n", time.Now().Format("15:04"), r.Pushed, r.Pulled)
			}
		},
	}

	fmt.Fprintf(out, "Watching every %s, press Ctrl+C to stop\n", watchInterval)
	return w.Run(cmd.Context())
}

// syncTick merges the lists in dir while holding the data dir lock, so a
// command run in between cannot be overwritten by the save
func syncTick(ctx context.Context, base *sync.Runner, dir string) (container.Report, error) {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	lock, err := store.LockDir(lockCtx, dir)
	if err != nil {
		return container.Report{}, err
	}
	defer lock.Unlock()

	items, err := store.Load(dir)
	if err != nil {
		return container.Report{}, err
	}
	items.Events.RemoveExpired(model.Today())

	tick := *base
	tick.Persist = func() error { return store.Save(dir, items) }
	return tick.Run(ctx, items, sync.ModeMerge)
}
