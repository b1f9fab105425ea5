package server

import (
	"context"
	"fmt"
)

// migrate runs database migrations
func (s *PostgresStore) migrate(ctx context.Context) error {
	migrations := []string{
		migrationSnapshots,
	}

	for i, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const migrationSnapshots = `
CREATE TABLE IF NOT EXISTS snapshots (
    name TEXT PRIMARY KEY,
    data BYTEA NOT NULL,
    size INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
