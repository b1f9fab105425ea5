package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/existflow/mtc/internal/container"
	"github.com/existflow/mtc/internal/db"
	"github.com/existflow/mtc/internal/logger"
	"github.com/existflow/mtc/internal/store"
)

// Mode defines how the sync should be performed
type Mode int

const (
	ModeMerge     Mode = iota // Reconcile with the remote
	ModeOverwrite             // Replace the remote with the local lists
	ModeSelf                  // Normalize the local lists, no remote involved
)

func (m Mode) String() string {
	switch m {
	case ModeOverwrite:
		return "overwrite"
	case ModeSelf:
		return "self"
	default:
		return "merge"
	}
}

// Runner syncs the three lists of one client
type Runner struct {
	Transport Transport // unused by ModeSelf
	Codec     Codec     // Plain when nil
	Journal   *db.DB    // optional run history and id generation

	// Persist saves the local lists. It runs after every list that finished,
	// so a later failure cannot lose the renumbering of an earlier one.
	Persist func() error
}

type step struct {
	name string
	run  func(ctx context.Context) (container.Report, error)
}

// Run executes one sync and records it in the journal
func (r *Runner) Run(ctx context.Context, items *store.Items, mode Mode) (container.Report, error) {
	run := db.Run{ID: uuid.NewString(), Mode: mode.String(), StartedAt: time.Now()}
	log := logger.WithFields(logger.F("run", run.ID), logger.F("mode", mode.String()))
	log.Info("Sync started")

	// Ids only move when Removed items are compacted away, locally marked
	// or dropped because the remote no longer has them. Pulled items are
	// appended after the existing ones.
	renumbers := items.HasRemoved()
	report, completed, err := r.execute(ctx, items, mode, log)

	if completed > 0 && (renumbers || report.DroppedLocal > 0) {
		r.bumpGeneration(ctx, log)
	}

	run.FinishedAt = time.Now()
	run.Pushed, run.Pulled = report.Pushed, report.Pulled
	run.RemovedRemote, run.DroppedLocal = report.RemovedRemote, report.DroppedLocal
	if err != nil {
		run.Status, run.Error = db.StatusFailed, err.Error()
		log.Error("Sync failed", logger.F("error", err), logger.F("completed", completed))
	} else {
		run.Status = db.StatusOK
		log.Info("Sync finished",
			logger.F("pushed", report.Pushed),
			logger.F("pulled", report.Pulled),
			logger.F("removed_remote", report.RemovedRemote),
			logger.F("dropped_local", report.DroppedLocal),
		)
	}
	r.record(run, log)

	return report, err
}

func (r *Runner) execute(ctx context.Context, items *store.Items, mode Mode, log *logger.Logger) (container.Report, int, error) {
	if mode == ModeSelf {
		items.SyncSelf()
		if err := r.persist(); err != nil {
			return container.Report{}, 0, err
		}
		return container.Report{}, 1, nil
	}

	if r.Transport == nil {
		return container.Report{}, 0, errors.New("no sync transport configured")
	}

	overwrite := mode == ModeOverwrite
	steps := []step{
		{store.TodosFile, func(ctx context.Context) (container.Report, error) {
			return SyncRemote(ctx, r.Transport, r.Codec, items.Todos, store.TodosFile, overwrite)
		}},
		{store.TasksFile, func(ctx context.Context) (container.Report, error) {
			return SyncRemote(ctx, r.Transport, r.Codec, items.Tasks, store.TasksFile, overwrite)
		}},
		{store.EventsFile, func(ctx context.Context) (container.Report, error) {
			return SyncRemote(ctx, r.Transport, r.Codec, items.Events, store.EventsFile, overwrite)
		}},
	}

	var total container.Report
	for i, s := range steps {
		report, err := s.run(ctx)
		if err != nil {
			return total, i, fmt.Errorf("%s: %w", s.name, err)
		}
		if err := r.persist(); err != nil {
			return total, i, err
		}
		total = total.Add(report)
		log.Debug("List synced",
			logger.F("list", s.name),
			logger.F("pushed", report.Pushed),
			logger.F("pulled", report.Pulled),
		)
	}
	return total, len(steps), nil
}

func (r *Runner) persist() error {
	if r.Persist == nil {
		return nil
	}
	if err := r.Persist(); err != nil {
		return fmt.Errorf("failed to save local lists: %w", err)
	}
	return nil
}

func (r *Runner) bumpGeneration(ctx context.Context, log *logger.Logger) {
	if r.Journal == nil {
		return
	}
	gen, err := r.Journal.BumpGeneration(ctx)
	if err != nil {
		log.Warn("Failed to bump id generation", logger.F("error", err))
		return
	}
	log.Debug("Id generation bumped", logger.F("generation", gen))
}

// record uses a fresh context so a cancelled run is still written down
func (r *Runner) record(run db.Run, log *logger.Logger) {
	if r.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Journal.RecordRun(ctx, run); err != nil {
		log.Warn("Failed to record sync run", logger.F("error", err))
	}
}
