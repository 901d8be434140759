package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/loopmode/internal/db"
	"github.com/alexanderramin/loopmode/internal/domain"
)

// SQLiteAuditRepo implements AuditRepo using a SQLite database.
type SQLiteAuditRepo struct {
	db db.DBTX
}

func NewSQLiteAuditRepo(conn db.DBTX) *SQLiteAuditRepo {
	return &SQLiteAuditRepo{db: conn}
}

func (r *SQLiteAuditRepo) Append(ctx context.Context, e *domain.AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, action, source, mode, previous_mode, duration_min, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Action), string(e.Source), string(e.Mode), string(e.PreviousMode),
		e.DurationMinutes, formatTime(e.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

func (r *SQLiteAuditRepo) ListRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, action, source, mode, previous_mode, duration_min, created_at
		FROM audit_entries ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditEntry
	for rows.Next() {
		var (
			e                          domain.AuditEntry
			action, source, mode, prev string
			created                    string
		)
		if err := rows.Scan(&e.ID, &action, &source, &mode, &prev, &e.DurationMinutes, &created); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Action = domain.Action(action)
		e.Source = domain.Source(source)
		e.Mode = domain.Mode(mode)
		e.PreviousMode = domain.Mode(prev)
		if e.Timestamp, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
