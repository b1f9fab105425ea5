package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/mtc/internal/config"
	"github.com/existflow/mtc/internal/db"
	"github.com/existflow/mtc/internal/logger"
	"github.com/existflow/mtc/internal/model"
	"github.com/existflow/mtc/internal/store"
)

// lockTimeout bounds how long a command waits for another mtc process,
// such as a running 'mtc sync watch' tick
var lockTimeout = 30 * time.Second

// session holds the lists for the duration of one command. The data dir stays
// locked from load to save.
type session struct {
	cfg     *config.Config
	today   model.Date
	items   *store.Items
	dirty   bool
	journal *db.DB
	lock    *store.Lock
}

func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	lock, err := store.LockDir(lockCtx, cfg.DataDir)
	if err != nil {
		return nil, err
	}

	items, err := store.Load(cfg.DataDir)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	s := &session{cfg: cfg, today: model.Today(), items: items, lock: lock}
	if n := items.Events.RemoveExpired(s.today); n > 0 {
		logger.Info("Expired events removed", logger.F("count", n))
		s.dirty = true
	}
	return s, nil
}

// changed marks the lists for saving once the command succeeds
func (s *session) changed() { s.dirty = true }

func (s *session) save() error {
	if !s.dirty {
		return nil
	}
	if err := s.persist(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// detach saves pending changes and releases the data dir for commands that
// keep running without touching the lists again
func (s *session) detach() error {
	if err := s.save(); err != nil {
		return err
	}
	return s.lock.Unlock()
}

// persist writes the lists right away
func (s *session) persist() error {
	if err := store.Save(s.cfg.DataDir, s.items); err != nil {
		return err
	}
	logger.Debug("Lists saved", logger.F("dir", s.cfg.DataDir))
	return nil
}

// db opens the journal on first use
func (s *session) db() (*db.DB, error) {
	if s.journal != nil {
		return s.journal, nil
	}
	journal, err := db.OpenIn(s.cfg.DataDir)
	if err != nil {
		return nil, err
	}
	s.journal = journal
	return journal, nil
}

// generation returns the current id generation, or -1 when the journal is
// unavailable
func (s *session) generation(ctx context.Context) int64 {
	journal, err := s.db()
	if err != nil {
		logger.Warn("Journal unavailable", logger.F("error", err))
		return -1
	}
	gen, err := journal.Generation(ctx)
	if err != nil {
		logger.Warn("Failed to read id generation", logger.F("error", err))
		return -1
	}
	return gen
}

// markListed remembers that the user has seen the ids of the current
// generation
func (s *session) markListed(ctx context.Context) {
	journal, err := s.db()
	if err != nil {
		return
	}
	gen, err := journal.Generation(ctx)
	if err == nil {
		err = journal.MarkListed(ctx, gen)
	}
	if err != nil {
		logger.Warn("Failed to mark listed ids", logger.F("error", err))
	}
}

// checkGeneration rejects ids that were listed before the last sync
// renumbered the lists. --generation names the listing explicitly; without it
// the last 'mtc show' counts.
func (s *session) checkGeneration(cmd *cobra.Command) error {
	ctx := cmd.Context()
	journal, err := s.db()

	if cmd.Flags().Changed("generation") {
		want, ferr := cmd.Flags().GetInt64("generation")
		if ferr != nil {
			return ferr
		}
		if err != nil {
			return fmt.Errorf("cannot check id generation: %w", err)
		}
		return journal.CheckGeneration(ctx, want)
	}

	if err != nil {
		logger.Warn("Id generation not checked", logger.F("error", err))
		return nil
	}
	listed, ok, err := journal.ListedGeneration(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return journal.CheckGeneration(ctx, listed)
}

func (s *session) release() {
	if s.journal != nil {
		_ = s.journal.Close()
		s.journal = nil
	}
	if err := s.lock.Unlock(); err != nil {
		logger.Warn("Failed to unlock data dir", logger.F("error", err))
	}
}

func addGenerationFlag(cmd *cobra.Command) {
	cmd.Flags().Int64("generation", 0, "Ids were listed at this generation (shown by 'mtc show'); default is the last listing")
}
