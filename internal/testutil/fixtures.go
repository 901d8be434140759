package testutil

import (
	"time"

	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/google/uuid"
)

// ProfileOption customises a test profile.
type ProfileOption func(*domain.Profile)

func WithActive() ProfileOption {
	return func(p *domain.Profile) {
		p.Active = true
	}
}

func WithCreatedAt(t time.Time) ProfileOption {
	return func(p *domain.Profile) {
		p.CreatedAt = t
	}
}

func NewTestProfile(name string, opts ...ProfileOption) *domain.Profile {
	p := &domain.Profile{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// RecordOption customises a test running mode record.
type RecordOption func(*domain.RunningModeRecord)

// ExpiringAt bounds the record.
func ExpiringAt(t time.Time) RecordOption {
	return func(r *domain.RunningModeRecord) {
		r.ExpiresAt = &t
	}
}

func WithAction(a domain.Action) RecordOption {
	return func(r *domain.RunningModeRecord) {
		r.Action = a
	}
}

func WithSource(s domain.Source) RecordOption {
	return func(r *domain.RunningModeRecord) {
		r.Source = s
	}
}

func NewTestRecord(mode domain.Mode, startedAt time.Time, opts ...RecordOption) *domain.RunningModeRecord {
	r := &domain.RunningModeRecord{
		ID:        uuid.New().String(),
		Mode:      mode,
		StartedAt: startedAt,
		Source:    domain.SourceCLI,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}
