package domain

import (
	"fmt"
	"strings"
)

// Mode is a resting running mode of the loop. Resume is not a Mode; it is a
// command variant (see Command).
type Mode string

const (
	ModeClosedLoop       Mode = "CLOSED_LOOP"
	ModeClosedLoopLGS    Mode = "CLOSED_LOOP_LGS"
	ModeOpenLoop         Mode = "OPEN_LOOP"
	ModeDisabledLoop     Mode = "DISABLED_LOOP"
	ModeSuspendedByUser  Mode = "SUSPENDED_BY_USER"
	ModeDisconnectedPump Mode = "DISCONNECTED_PUMP"
)

// Capability names a pump feature a mode depends on.
type Capability string

const (
	// CapabilityTempBasalDuration means the pump must be able to run a zero
	// temp basal for the requested duration.
	CapabilityTempBasalDuration Capability = "TEMP_BASAL_DURATION"
)

// ModeProperties are the static facts about a mode.
type ModeProperties struct {
	RequiresDuration       bool
	RequiresPumpCapability Capability // empty when none
	TimeBounded            bool
	Automated              bool
}

var modeOrder = []Mode{
	ModeClosedLoop,
	ModeClosedLoopLGS,
	ModeOpenLoop,
	ModeDisabledLoop,
	ModeSuspendedByUser,
	ModeDisconnectedPump,
}

var modeRegistry = map[Mode]ModeProperties{
	ModeClosedLoop:       {Automated: true},
	ModeClosedLoopLGS:    {Automated: true},
	ModeOpenLoop:         {Automated: true},
	ModeDisabledLoop:     {},
	ModeSuspendedByUser:  {RequiresDuration: true, TimeBounded: true},
	ModeDisconnectedPump: {RequiresDuration: true, TimeBounded: true, RequiresPumpCapability: CapabilityTempBasalDuration},
}

// modeAliases maps short operator names onto modes.
var modeAliases = map[string]Mode{
	"closed":     ModeClosedLoop,
	"lgs":        ModeClosedLoopLGS,
	"open":       ModeOpenLoop,
	"disable":    ModeDisabledLoop,
	"disabled":   ModeDisabledLoop,
	"suspend":    ModeSuspendedByUser,
	"disconnect": ModeDisconnectedPump,
}

// AllModes returns every resting mode in canonical order.
func AllModes() []Mode {
	out := make([]Mode, len(modeOrder))
	copy(out, modeOrder)
	return out
}

// PropertiesOf returns the static properties of m. Unknown values yield the
// zero ModeProperties.
func PropertiesOf(m Mode) ModeProperties {
	return modeRegistry[m]
}

// Valid reports whether m is one of the resting modes.
func (m Mode) Valid() bool {
	_, ok := modeRegistry[m]
	return ok
}

// TimeBounded is shorthand for PropertiesOf(m).TimeBounded.
func (m Mode) TimeBounded() bool {
	return modeRegistry[m].TimeBounded
}

// Automated is shorthand for PropertiesOf(m).Automated.
func (m Mode) Automated() bool {
	return modeRegistry[m].Automated
}

// Label returns a short human-readable name.
func (m Mode) Label() string {
	switch m {
	case ModeClosedLoop:
		return "Closed loop"
	case ModeClosedLoopLGS:
		return "Low glucose suspend"
	case ModeOpenLoop:
		return "Open loop"
	case ModeDisabledLoop:
		return "Loop disabled"
	case ModeSuspendedByUser:
		return "Loop suspended"
	case ModeDisconnectedPump:
		return "Pump disconnected"
	default:
		return string(m)
	}
}

// ParseMode accepts a canonical mode value (any case) or an operator alias.
func ParseMode(s string) (Mode, error) {
	key := strings.TrimSpace(s)
	if m, ok := modeAliases[strings.ToLower(key)]; ok {
		return m, nil
	}
	m := Mode(strings.ToUpper(key))
	if m.Valid() {
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}
