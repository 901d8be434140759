package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/loopmode/internal/domain"
)

// ErrNotFound is wrapped by every repository lookup that matches no row.
var ErrNotFound = errors.New("not found")

type ProfileRepo interface {
	Create(ctx context.Context, p *domain.Profile) error
	GetByName(ctx context.Context, name string) (*domain.Profile, error)
	List(ctx context.Context) ([]*domain.Profile, error)
	// Active returns the active profile, or ErrNotFound when none is active.
	Active(ctx context.Context) (*domain.Profile, error)
	// SetActive deactivates every other profile. Run it inside a unit of work.
	SetActive(ctx context.Context, id string) error
	ClearActive(ctx context.Context) error
}

type AuditRepo interface {
	Append(ctx context.Context, e *domain.AuditEntry) error
	// ListRecent returns up to limit entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
}

type FeatureFlagRepo interface {
	// SetOnce records flag at the given time. It reports false when the flag
	// was already set, in which case the original timestamp is kept.
	SetOnce(ctx context.Context, flag domain.FeatureFlag, at time.Time) (bool, error)
	IsSet(ctx context.Context, flag domain.FeatureFlag) (bool, error)
	List(ctx context.Context) ([]domain.FeatureFlagState, error)
}

type RunningModeRepo interface {
	// Load returns the persisted record, or ErrNotFound before the first save.
	Load(ctx context.Context) (*domain.RunningModeRecord, error)
	Save(ctx context.Context, rec *domain.RunningModeRecord) error
}
