// Package transition decides which running modes are reachable from the
// current record and validates individual mode-change commands. It is pure:
// no I/O, no clock, no shared state.
package transition

import (
	"fmt"
	"slices"

	"github.com/alexanderramin/loopmode/internal/config"
	"github.com/alexanderramin/loopmode/internal/domain"
)

// MaxBoundedMinutes caps suspend and disconnect durations (one week).
const MaxBoundedMinutes = 7 * 24 * 60

// Allowed is the set of targets reachable from the current record. Resume is
// reported separately because it is a command, not a resting mode.
type Allowed struct {
	Modes  []domain.Mode
	Resume bool
}

// Contains reports whether m is an allowed resting target.
func (a Allowed) Contains(m domain.Mode) bool {
	return slices.Contains(a.Modes, m)
}

// Empty reports whether nothing at all can be requested.
func (a Allowed) Empty() bool {
	return len(a.Modes) == 0 && !a.Resume
}

// Validated is a command that passed validation, with Resume resolved to a
// concrete target.
type Validated struct {
	From            domain.Mode
	Target          domain.Mode
	DurationMinutes int // zero for unbounded targets
	Action          domain.Action
	Resume          bool
}

// AllowedNextModes computes the reachable set. The current resting mode is
// never offered again.
func AllowedNextModes(current domain.RunningModeRecord, caps domain.PumpCapabilities, cfg config.SystemConfig) Allowed {
	var out Allowed
	out.Resume = current.Mode.TimeBounded()

	for _, m := range domain.AllModes() {
		if m == current.Mode {
			continue
		}
		if offered(m, current.Mode, caps, cfg) {
			out.Modes = append(out.Modes, m)
		}
	}
	return out
}

func offered(m, current domain.Mode, caps domain.PumpCapabilities, cfg config.SystemConfig) bool {
	switch m {
	case domain.ModeSuspendedByUser:
		return current != domain.ModeDisabledLoop
	case domain.ModeDisconnectedPump:
		return cfg.APS && len(DurationOptions(m, caps)) > 0
	default:
		return cfg.Permits(m)
	}
}

// ValidateTransition checks cmd against the allowed set, duration rules and
// pump capabilities.
func ValidateTransition(current domain.RunningModeRecord, cmd domain.Command, caps domain.PumpCapabilities, cfg config.SystemConfig) (Validated, error) {
	allowed := AllowedNextModes(current, caps, cfg)

	v := Validated{
		From:   current.Mode,
		Action: cmd.ResolveAction(current.Mode),
		Resume: cmd.IsResume(),
	}

	if cmd.IsResume() {
		if !allowed.Resume {
			return Validated{}, reject(ErrIllegalTransition, current.Mode, cmd, "nothing to resume from")
		}
		if cmd.Action == domain.ActionReconnect && current.Mode != domain.ModeDisconnectedPump {
			return Validated{}, reject(ErrIllegalTransition, current.Mode, cmd, "pump is not disconnected")
		}
		v.Target = cfg.DefaultMode
		return v, nil
	}

	if cmd.Kind != domain.CommandSetMode || !cmd.Mode.Valid() {
		return Validated{}, reject(ErrIllegalTransition, current.Mode, cmd, "unknown target")
	}
	if !allowed.Contains(cmd.Mode) {
		return Validated{}, reject(ErrIllegalTransition, current.Mode, cmd, "")
	}
	v.Target = cmd.Mode

	props := domain.PropertiesOf(cmd.Mode)
	if !props.RequiresDuration {
		// Disabling is indefinite whatever the caller passed, including the
		// IndefiniteDuration sentinel.
		return v, nil
	}

	minutes := cmd.DurationMinutes
	if minutes <= 0 {
		return Validated{}, reject(ErrMissingDuration, current.Mode, cmd, "a positive duration in minutes is required")
	}
	if minutes > MaxBoundedMinutes {
		return Validated{}, reject(ErrDurationTooLong, current.Mode, cmd, fmt.Sprintf("maximum is %d minutes", MaxBoundedMinutes))
	}
	if props.RequiresPumpCapability == domain.CapabilityTempBasalDuration && !caps.SupportsDuration(minutes) {
		return Validated{}, reject(ErrUnsupportedByPump, current.Mode, cmd, fmt.Sprintf("%d minutes", minutes))
	}

	v.DurationMinutes = minutes
	return v, nil
}
