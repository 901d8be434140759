package contract

import (
	"testing"
	"time"

	"github.com/alexanderramin/loopmode/internal/config"
	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/alexanderramin/loopmode/internal/transition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fullSystem = config.SystemConfig{APS: true, ClosedLoop: true, LGS: true, OpenLoop: true, DefaultMode: domain.ModeOpenLoop}
	hourPump   = domain.PumpCapabilities{TempDurationStep30mAllowed: true}
)

func menuFor(mode domain.Mode, cfg config.SystemConfig, caps domain.PumpCapabilities) ModeMenu {
	rec := domain.RunningModeRecord{ID: "r1", Mode: mode, StartedAt: time.Now()}
	return BuildModeMenu(rec, transition.AllowedNextModes(rec, caps, cfg), caps)
}

func labels(opts []MenuOption) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Label
	}
	return out
}

func TestBuildModeMenu_FromOpenLoop(t *testing.T) {
	menu := menuFor(domain.ModeOpenLoop, fullSystem, hourPump)

	require.Len(t, menu.Sections, 3)
	assert.Equal(t, SectionLoop, menu.Sections[0].Title)
	assert.Equal(t, []string{"Closed loop", "Low glucose suspend", "Disable loop"}, labels(menu.Sections[0].Options))
	assert.Equal(t, []string{"Suspend for 1h", "Suspend for 2h", "Suspend for 3h", "Suspend for 10h"}, labels(menu.Sections[1].Options))
	assert.Equal(t,
		[]string{"Disconnect pump for 30m", "Disconnect pump for 1h", "Disconnect pump for 2h", "Disconnect pump for 3h"},
		labels(menu.Sections[2].Options),
		"15 minutes is dropped without the 15m step",
	)

	disable := menu.Sections[0].Options[2].Command
	assert.Equal(t, domain.ModeDisabledLoop, disable.Mode)
	assert.Equal(t, domain.IndefiniteDuration, disable.DurationMinutes)
}

func TestBuildModeMenu_SuspendedOffersResume(t *testing.T) {
	menu := menuFor(domain.ModeSuspendedByUser, fullSystem, hourPump)

	require.Len(t, menu.Sections, 3)
	assert.Equal(t, SectionLoop, menu.Sections[0].Title)
	assert.NotContains(t, labels(menu.Sections[0].Options), "Resume")

	suspend := menu.Sections[1]
	require.Equal(t, SectionSuspend, suspend.Title)
	assert.Equal(t, []string{"Resume"}, labels(suspend.Options), "already suspended, so no presets")
	assert.True(t, suspend.Options[0].Command.IsResume())
}

func TestBuildModeMenu_DisconnectedOffersReconnect(t *testing.T) {
	menu := menuFor(domain.ModeDisconnectedPump, fullSystem, hourPump)

	pump := menu.Sections[len(menu.Sections)-1]
	require.Equal(t, SectionPump, pump.Title)
	assert.Equal(t, []string{"Reconnect pump"}, labels(pump.Options))
	assert.Equal(t, domain.ActionReconnect, pump.Options[0].Command.Action)
}

func TestBuildModeMenu_ManualOnly(t *testing.T) {
	manual := config.SystemConfig{OpenLoop: true, DefaultMode: domain.ModeOpenLoop}
	menu := menuFor(domain.ModeDisabledLoop, manual, hourPump)

	require.Len(t, menu.Sections, 1, "no suspend from disabled, no pump section without APS")
	assert.Equal(t, []string{"Open loop"}, labels(menu.Sections[0].Options))
}

func TestModeMenu_OptionIsOneBased(t *testing.T) {
	menu := menuFor(domain.ModeOpenLoop, fullSystem, hourPump)

	first, ok := menu.Option(1)
	require.True(t, ok)
	assert.Equal(t, "Closed loop", first.Label)

	_, ok = menu.Option(0)
	assert.False(t, ok)
	_, ok = menu.Option(len(menu.Options()) + 1)
	assert.False(t, ok)
}

func TestFormatMinutes(t *testing.T) {
	tests := map[int]string{
		15:                        "15m",
		60:                        "1h",
		90:                        "1h 30m",
		600:                       "10h",
		domain.IndefiniteDuration: "indefinitely",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatMinutes(in), "minutes=%d", in)
	}
}

func TestNewStatusView(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	exp := now.Add(45 * time.Minute)
	rec := domain.RunningModeRecord{
		Mode:      domain.ModeSuspendedByUser,
		StartedAt: now.Add(-15 * time.Minute),
		ExpiresAt: &exp,
		Reasons:   "No active profile\nOpen loop is disabled by configuration",
		Action:    domain.ActionSuspend,
		Source:    domain.SourceCLI,
	}

	v := NewStatusView(rec, transition.Allowed{Resume: true, Modes: []domain.Mode{domain.ModeDisabledLoop}}, now)
	assert.Equal(t, "Loop suspended", v.Label)
	assert.Equal(t, 45*time.Minute, v.Remaining)
	assert.Len(t, v.Reasons, 2)
	assert.True(t, v.CanResume)
}
