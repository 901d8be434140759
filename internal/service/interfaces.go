package service

import (
	"context"
	"time"

	"github.com/alexanderramin/loopmode/internal/contract"
	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/alexanderramin/loopmode/internal/transition"
)

// LoopService owns the running mode. Reads are lock-free snapshots; every
// change goes through RequestTransition or a scheduled reversion.
type LoopService interface {
	RunningModeRecord(ctx context.Context) domain.RunningModeRecord
	AllowedNextModes(ctx context.Context) transition.Allowed
	Menu(ctx context.Context) contract.ModeMenu
	RequestTransition(ctx context.Context, cmd domain.Command, source domain.Source) (domain.RunningModeRecord, error)
	// Subscribe delivers a ModeChange after every transition. Events are
	// dropped for a subscriber whose buffer is full.
	Subscribe(buffer int) (<-chan domain.ModeChange, func())
}

type ProfileService interface {
	Add(ctx context.Context, name string, activate bool) (*domain.Profile, error)
	Use(ctx context.Context, name string) (*domain.Profile, error)
	List(ctx context.Context) ([]*domain.Profile, error)
	ProfileSource
}

type HistoryService interface {
	Recent(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
	Flags(ctx context.Context) ([]domain.FeatureFlagState, error)
}

// ProfileSource reports the active profile, or nil when there is none.
type ProfileSource interface {
	CurrentProfile(ctx context.Context) (*domain.Profile, error)
}

// PumpSource reports what the connected pump can do.
type PumpSource interface {
	Capabilities(ctx context.Context) domain.PumpCapabilities
}

type AuditLog interface {
	Append(ctx context.Context, e *domain.AuditEntry) error
}

type FeatureFlagStore interface {
	SetOnce(ctx context.Context, flag domain.FeatureFlag, at time.Time) (bool, error)
}

// RecordStore persists the current record across restarts. Load wraps
// repository.ErrNotFound when nothing was saved yet.
type RecordStore interface {
	Load(ctx context.Context) (*domain.RunningModeRecord, error)
	Save(ctx context.Context, rec *domain.RunningModeRecord) error
}

// StaticPump is a PumpSource with fixed capabilities.
type StaticPump domain.PumpCapabilities

func (p StaticPump) Capabilities(context.Context) domain.PumpCapabilities {
	return domain.PumpCapabilities(p)
}
