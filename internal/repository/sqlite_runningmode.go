package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/loopmode/internal/db"
	"github.com/alexanderramin/loopmode/internal/domain"
)

// SQLiteRunningModeRepo persists the current running mode in a single row.
type SQLiteRunningModeRepo struct {
	db db.DBTX
}

func NewSQLiteRunningModeRepo(conn db.DBTX) *SQLiteRunningModeRepo {
	return &SQLiteRunningModeRepo{db: conn}
}

func (r *SQLiteRunningModeRepo) Load(ctx context.Context) (*domain.RunningModeRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT record_id, mode, started_at, expires_at, action, source FROM running_mode WHERE slot = 1`)

	var (
		rec            domain.RunningModeRecord
		mode, started  string
		expires        sql.NullString
		action, source string
	)
	if err := row.Scan(&rec.ID, &mode, &started, &expires, &action, &source); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("running mode: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning running mode: %w", err)
	}

	var err error
	rec.Mode = domain.Mode(mode)
	rec.Action = domain.Action(action)
	rec.Source = domain.Source(source)
	if rec.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if rec.ExpiresAt, err = parseNullableTime(expires); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SQLiteRunningModeRepo) Save(ctx context.Context, rec *domain.RunningModeRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO running_mode (slot, record_id, mode, started_at, expires_at, action, source, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			record_id = excluded.record_id,
			mode = excluded.mode,
			started_at = excluded.started_at,
			expires_at = excluded.expires_at,
			action = excluded.action,
			source = excluded.source,
			updated_at = excluded.updated_at`,
		rec.ID, string(rec.Mode), formatTime(rec.StartedAt), nullableTime(rec.ExpiresAt),
		string(rec.Action), string(rec.Source), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("saving running mode: %w", err)
	}
	return nil
}
