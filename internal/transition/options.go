package transition

import (
	"strings"

	"github.com/alexanderramin/loopmode/internal/config"
	"github.com/alexanderramin/loopmode/internal/domain"
)

var (
	// SuspendPresets are the suspend durations offered to users, in minutes.
	SuspendPresets = []int{60, 120, 180, 600}

	// DisconnectPresets are the pump disconnect durations, in minutes.
	DisconnectPresets = []int{15, 30, 60, 120, 180}
)

// DurationOptions returns the preset durations for m that the pump can honour.
// Unbounded modes have none.
func DurationOptions(m domain.Mode, caps domain.PumpCapabilities) []int {
	var presets []int
	switch m {
	case domain.ModeSuspendedByUser:
		presets = SuspendPresets
	case domain.ModeDisconnectedPump:
		presets = DisconnectPresets
	default:
		return nil
	}

	needsPump := domain.PropertiesOf(m).RequiresPumpCapability == domain.CapabilityTempBasalDuration
	out := make([]int, 0, len(presets))
	for _, d := range presets {
		if needsPump && !caps.SupportsDuration(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// RestrictionReasons explains why automated modes are limited right now.
// The result is empty when nothing is restricted.
func RestrictionReasons(cfg config.SystemConfig, caps domain.PumpCapabilities, hasProfile bool) string {
	var reasons []string
	if !hasProfile {
		reasons = append(reasons, "No active profile")
	}
	if !cfg.APS {
		reasons = append(reasons, "Automated dosing is not available in this configuration")
	} else {
		if !cfg.ClosedLoop {
			reasons = append(reasons, "Closed loop is disabled by configuration")
		}
		if !cfg.LGS {
			reasons = append(reasons, "Low glucose suspend is disabled by configuration")
		}
		if len(DurationOptions(domain.ModeDisconnectedPump, caps)) == 0 {
			reasons = append(reasons, "Pump cannot run a temp basal long enough to disconnect")
		}
	}
	if !cfg.OpenLoop {
		reasons = append(reasons, "Open loop is disabled by configuration")
	}
	return strings.Join(reasons, "\n")
}
