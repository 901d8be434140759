package contract

import (
	"strings"
	"time"

	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/alexanderramin/loopmode/internal/transition"
)

// StatusView is the read model for the current running mode.
type StatusView struct {
	Mode      domain.Mode
	Label     string
	StartedAt time.Time
	ExpiresAt *time.Time
	Remaining time.Duration
	Reasons   []string
	Action    domain.Action
	Source    domain.Source
	Allowed   []domain.Mode
	CanResume bool
}

// NewStatusView snapshots rec and the allowed set at now.
func NewStatusView(rec domain.RunningModeRecord, allowed transition.Allowed, now time.Time) StatusView {
	v := StatusView{
		Mode:      rec.Mode,
		Label:     rec.Mode.Label(),
		StartedAt: rec.StartedAt,
		ExpiresAt: rec.ExpiresAt,
		Remaining: rec.Remaining(now),
		Action:    rec.Action,
		Source:    rec.Source,
		Allowed:   allowed.Modes,
		CanResume: allowed.Resume,
	}
	if rec.Reasons != "" {
		v.Reasons = strings.Split(rec.Reasons, "\n")
	}
	return v
}
