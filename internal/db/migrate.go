package db

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order. The index+1 of each entry is stored in
// PRAGMA user_version once it has run, so each step runs exactly once.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			active INTEGER NOT NULL DEFAULT 0 CHECK(active IN (0, 1)),
			created_at TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_single_active ON profiles(active) WHERE active = 1`,

		`CREATE TABLE IF NOT EXISTS audit_entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			action TEXT NOT NULL,
			source TEXT NOT NULL,
			mode TEXT NOT NULL,
			previous_mode TEXT NOT NULL DEFAULT '',
			duration_min INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_entries(created_at)`,

		`CREATE TABLE IF NOT EXISTS feature_flags (
			flag TEXT PRIMARY KEY,
			set_at TEXT NOT NULL
		)`,
	},
	{
		// One row: the record the controller restores on start.
		`CREATE TABLE IF NOT EXISTS running_mode (
			slot INTEGER PRIMARY KEY CHECK(slot = 1),
			record_id TEXT NOT NULL,
			mode TEXT NOT NULL CHECK(mode IN (
				'CLOSED_LOOP', 'CLOSED_LOOP_LGS', 'OPEN_LOOP',
				'DISABLED_LOOP', 'SUSPENDED_BY_USER', 'DISCONNECTED_PUMP'
			)),
			started_at TEXT NOT NULL,
			expires_at TEXT,
			action TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		)`,
	},
}

// SchemaVersion is the user_version a fully migrated database reports.
var SchemaVersion = len(migrations)

// Migrate applies every migration the database has not seen yet. Each step
// runs in its own transaction together with its user_version bump.
func Migrate(db *sql.DB) error {
	ctx := context.Background()

	var version int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", version, len(migrations))
	}

	uow := NewSQLiteUnitOfWork(db)
	for i := version; i < len(migrations); i++ {
		step := migrations[i]
		err := uow.WithinTx(ctx, func(ctx context.Context, tx DBTX) error {
			for _, stmt := range step {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			// PRAGMA does not accept bound parameters.
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, i+1))
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
