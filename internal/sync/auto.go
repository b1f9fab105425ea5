package sync

import (
	"context"
	"errors"
	"time"

	"github.com/existflow/mtc/internal/container"
	"github.com/existflow/mtc/internal/logger"
)

// MinWatchInterval keeps a watcher from hammering the remote
const MinWatchInterval = 10 * time.Second

// Watcher runs a sync periodically until its context ends
type Watcher struct {
	Interval time.Duration
	Sync     func(ctx context.Context) (container.Report, error)
	OnSync   func(report container.Report) // called after every successful run
}

// Run syncs once immediately, then on every tick. Failed runs are logged and
// retried on the next tick.
func (w *Watcher) Run(ctx context.Context) error {
	if w.Sync == nil {
		return errors.New("watcher has nothing to sync")
	}
	interval := w.Interval
	if interval < MinWatchInterval {
		interval = MinWatchInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Watching remote", logger.F("interval", interval.String()))
	for {
		w.tick(ctx)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			logger.Info("Watch stopped")
			return nil
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	report, err := w.Sync(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("Periodic sync failed", logger.F("error", err))
		}
		return
	}
	if w.OnSync != nil {
		w.OnSync(report)
	}
}
