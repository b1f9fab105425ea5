package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrGenerationMismatch means an id was read before the last sync renumbered
// the items
var ErrGenerationMismatch = errors.New("ids changed since they were listed")

// Run statuses
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// timeLayout has a fixed width so the text columns sort chronologically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded sync attempt
type Run struct {
	ID            string
	Mode          string
	Status        string
	Pushed        int
	Pulled        int
	RemovedRemote int
	DroppedLocal  int
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// RecordRun stores a finished run
func (db *DB) RecordRun(ctx context.Context, r Run) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, mode, status, pushed, pulled, removed_remote, dropped_local, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Mode, r.Status, r.Pushed, r.Pulled, r.RemovedRemote, r.DroppedLocal,
		sql.NullString{String: r.Error, Valid: r.Error != ""},
		r.StartedAt.UTC().Format(timeLayout), r.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, mode, status, pushed, pulled, removed_remote, dropped_local, error, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var errText sql.NullString
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Mode, &r.Status, &r.Pushed, &r.Pulled,
			&r.RemovedRemote, &r.DroppedLocal, &errText, &started, &finished); err != nil {
			return nil, err
		}
		r.Error = errText.String
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Generation returns the id generation, bumped by every successful sync
func (db *DB) Generation(ctx context.Context) (int64, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = 'generation'`).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to read generation: %w", err)
	}
	return strconv.ParseInt(value, 10, 64)
}

// BumpGeneration increments the id generation and returns the new value
func (db *DB) BumpGeneration(ctx context.Context) (int64, error) {
	_, err := db.ExecContext(ctx, `
		UPDATE sync_state SET value = CAST(CAST(value AS INTEGER) + 1 AS TEXT)
		WHERE key = 'generation'`)
	if err != nil {
		return 0, fmt.Errorf("failed to bump generation: %w", err)
	}
	return db.Generation(ctx)
}

// MarkListed remembers gen as the generation of the ids last shown to the user
func (db *DB) MarkListed(ctx context.Context, gen int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_state (key, value) VALUES ('listed_generation', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, strconv.FormatInt(gen, 10))
	if err != nil {
		return fmt.Errorf("failed to mark listed generation: %w", err)
	}
	return nil
}

// ListedGeneration returns the generation saved by MarkListed. ok is false
// when no ids were shown yet.
func (db *DB) ListedGeneration(ctx context.Context) (gen int64, ok bool, err error) {
	var value string
	err = db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = 'listed_generation'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read listed generation: %w", err)
	}
	gen, err = strconv.ParseInt(value, 10, 64)
	return gen, err == nil, err
}

// CheckGeneration fails with ErrGenerationMismatch unless want is current
func (db *DB) CheckGeneration(ctx context.Context, want int64) error {
	current, err := db.Generation(ctx)
	if err != nil {
		return err
	}
	if current != want {
		return fmt.Errorf("%w: listed at generation %d, now %d; run 'mtc show' again", ErrGenerationMismatch, want, current)
	}
	return nil
}
