package domain

// PumpCapabilities are read-only facts about the active pump.
type PumpCapabilities struct {
	TempDurationStep15mAllowed bool
	TempDurationStep30mAllowed bool
	MaxTempDurationMinutes     int // 0 means no limit
}

// SupportsDuration reports whether the pump can run a temp basal of the given
// length. Whole hours always work; shorter granularity depends on the step
// flags.
func (c PumpCapabilities) SupportsDuration(minutes int) bool {
	if minutes <= 0 {
		return false
	}
	if c.MaxTempDurationMinutes > 0 && minutes > c.MaxTempDurationMinutes {
		return false
	}
	switch {
	case minutes%60 == 0:
		return true
	case minutes%30 == 0:
		return c.TempDurationStep30mAllowed || c.TempDurationStep15mAllowed
	case minutes%15 == 0:
		return c.TempDurationStep15mAllowed
	default:
		return false
	}
}
