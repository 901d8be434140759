package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/loopmode/internal/db"
	"github.com/alexanderramin/loopmode/internal/domain"
)

// SQLiteFeatureFlagRepo implements FeatureFlagRepo using a SQLite database.
type SQLiteFeatureFlagRepo struct {
	db db.DBTX
}

func NewSQLiteFeatureFlagRepo(conn db.DBTX) *SQLiteFeatureFlagRepo {
	return &SQLiteFeatureFlagRepo{db: conn}
}

func (r *SQLiteFeatureFlagRepo) SetOnce(ctx context.Context, flag domain.FeatureFlag, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO feature_flags (flag, set_at) VALUES (?, ?)`,
		string(flag), formatTime(at))
	if err != nil {
		return false, fmt.Errorf("setting feature flag %s: %w", flag, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("setting feature flag %s: %w", flag, err)
	}
	return n == 1, nil
}

func (r *SQLiteFeatureFlagRepo) IsSet(ctx context.Context, flag domain.FeatureFlag) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feature_flags WHERE flag = ?`, string(flag)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("reading feature flag %s: %w", flag, err)
	}
	return n > 0, nil
}

func (r *SQLiteFeatureFlagRepo) List(ctx context.Context) ([]domain.FeatureFlagState, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT flag, set_at FROM feature_flags ORDER BY set_at, flag`)
	if err != nil {
		return nil, fmt.Errorf("listing feature flags: %w", err)
	}
	defer rows.Close()

	var out []domain.FeatureFlagState
	for rows.Next() {
		var flag, setAt string
		if err := rows.Scan(&flag, &setAt); err != nil {
			return nil, fmt.Errorf("scanning feature flag: %w", err)
		}
		t, err := parseTime(setAt)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.FeatureFlagState{Flag: domain.FeatureFlag(flag), SetAt: t})
	}
	return out, rows.Err()
}
