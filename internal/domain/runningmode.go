package domain

import "time"

// RunningModeRecord is the authoritative running mode. A record is never
// mutated after it becomes current; transitions replace it.
type RunningModeRecord struct {
	ID        string
	Mode      Mode
	StartedAt time.Time
	ExpiresAt *time.Time
	Reasons   string
	Action    Action
	Source    Source
}

// Expired reports whether a bounded record has reached its expiry at now.
func (r RunningModeRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// Remaining returns the time left before expiry, or zero for unbounded or
// expired records.
func (r RunningModeRecord) Remaining(now time.Time) time.Duration {
	if r.ExpiresAt == nil {
		return 0
	}
	if d := r.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// ModeChange is published to subscribers after every transition.
type ModeChange struct {
	Previous RunningModeRecord
	Current  RunningModeRecord
	Action   Action
	Source   Source
}
