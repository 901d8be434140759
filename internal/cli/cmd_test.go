package cli

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alexanderramin/loopmode/internal/config"
	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/alexanderramin/loopmode/internal/repository"
	"github.com/alexanderramin/loopmode/internal/service"
	"github.com/alexanderramin/loopmode/internal/testutil"
	"github.com/alexanderramin/loopmode/internal/transition"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cliStart = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	app   *App
	loop  *service.LoopController
	clock *testutil.ManualClock

	// confirmations counts prompts shown through App.Confirm.
	confirmations int
	answer        bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	env := &testEnv{clock: testutil.NewManualClock(cliStart), answer: true}

	profiles := service.NewProfileService(repository.NewSQLiteProfileRepo(db), testutil.NewTestUoW(db))
	_, err := profiles.Add(context.Background(), "default", true)
	require.NoError(t, err)

	audit := repository.NewSQLiteAuditRepo(db)
	flags := repository.NewSQLiteFeatureFlagRepo(db)
	env.loop = service.NewLoopController(service.LoopDeps{
		System:   config.Default().System,
		Profiles: profiles,
		Pump:     service.StaticPump{TempDurationStep30mAllowed: true},
		Audit:    audit,
		Flags:    flags,
		Records:  repository.NewSQLiteRunningModeRepo(db),
		Clock:    env.clock,
	})
	require.NoError(t, env.loop.Start(context.Background()))
	t.Cleanup(env.loop.Close)

	env.app = &App{
		Loop:          env.loop,
		Profiles:      profiles,
		History:       service.NewHistoryService(audit, flags),
		IsInteractive: func() bool { return true },
		Confirm: func(string, string) (bool, error) {
			env.confirmations++
			return env.answer, nil
		},
		Now: env.clock.Now,
	}
	return env
}

func (e *testEnv) mode(t *testing.T) domain.Mode {
	t.Helper()
	return e.loop.RunningModeRecord(context.Background()).Mode
}

func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// --- status / menu ---

func TestStatusCmd_ShowsDefaultMode(t *testing.T) {
	env := newTestEnv(t)

	out, err := executeCmd(t, env.app, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Open loop")
	assert.Contains(t, out, "Closed loop", "allowed modes are listed")
	assert.NotContains(t, out, "reverts")
}

func TestStatusCmd_ShowsCountdownForBoundedMode(t *testing.T) {
	env := newTestEnv(t)
	_, err := executeCmd(t, env.app, "set", "suspend", "--duration", "1h", "--yes")
	require.NoError(t, err)

	env.clock.Advance(15 * time.Minute)
	out, err := executeCmd(t, env.app, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Loop suspended")
	assert.Contains(t, out, "45m")
	assert.Contains(t, out, "Resume")
}

func TestMenuCmd_ListsSections(t *testing.T) {
	env := newTestEnv(t)

	out, err := executeCmd(t, env.app, "menu")
	require.NoError(t, err)
	assert.Contains(t, out, "LOOP")
	assert.Contains(t, out, "Disable loop")
	assert.Contains(t, out, "Suspend for 1h")
	assert.Contains(t, out, "Disconnect pump for 30m")
	assert.NotContains(t, out, "Disconnect pump for 15m", "pump only supports 30 minute steps")
}

func TestMenuCmd_SelectAppliesOption(t *testing.T) {
	env := newTestEnv(t)

	n := 0
	for i, o := range env.loop.Menu(context.Background()).Options() {
		if o.Command.Mode == domain.ModeDisabledLoop {
			n = i + 1
		}
	}
	require.NotZero(t, n)

	_, err := executeCmd(t, env.app, "menu", "--select", strconv.Itoa(n))
	require.NoError(t, err)
	assert.Equal(t, domain.ModeDisabledLoop, env.mode(t))
	assert.Equal(t, 1, env.confirmations)
}

func TestMenuCmd_SelectOutOfRange(t *testing.T) {
	env := newTestEnv(t)

	_, err := executeCmd(t, env.app, "menu", "--select", "99", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no menu option 99")
	assert.Equal(t, domain.ModeOpenLoop, env.mode(t))
}

// --- set / resume / reconnect ---

func TestSetCmd_ClosedLoop(t *testing.T) {
	env := newTestEnv(t)

	out, err := executeCmd(t, env.app, "set", "closed", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Closed loop")
	assert.Equal(t, domain.ModeClosedLoop, env.mode(t))
	assert.Zero(t, env.confirmations, "--yes skips the prompt")
}

func TestSetCmd_AsksForConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.answer = false

	out, err := executeCmd(t, env.app, "set", "lgs")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")
	assert.Equal(t, 1, env.confirmations)
	assert.Equal(t, domain.ModeOpenLoop, env.mode(t), "declined change is not applied")
}

func TestSetCmd_NonInteractiveNeedsYes(t *testing.T) {
	env := newTestEnv(t)
	env.app.IsInteractive = func() bool { return false }

	_, err := executeCmd(t, env.app, "set", "closed")
	require.ErrorIs(t, err, errConfirmationRequired)
	assert.Equal(t, domain.ModeOpenLoop, env.mode(t))
}

func TestSetCmd_ConfirmError(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("terminal gone")
	env.app.Confirm = func(string, string) (bool, error) { return false, boom }

	_, err := executeCmd(t, env.app, "set", "closed")
	require.ErrorIs(t, err, boom)
}

func TestSetCmd_BoundedModeNeedsDuration(t *testing.T) {
	env := newTestEnv(t)

	_, err := executeCmd(t, env.app, "set", "suspend", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs --duration")
}

func TestSetCmd_UnknownMode(t *testing.T) {
	env := newTestEnv(t)

	_, err := executeCmd(t, env.app, "set", "turbo", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestSetCmd_DisableIsIndefinite(t *testing.T) {
	env := newTestEnv(t)

	_, err := executeCmd(t, env.app, "set", "disable", "--yes")
	require.NoError(t, err)
	rec := env.loop.RunningModeRecord(context.Background())
	assert.Equal(t, domain.ModeDisabledLoop, rec.Mode)
	assert.Nil(t, rec.ExpiresAt)
}

func TestSetCmd_UnsupportedPumpDuration(t *testing.T) {
	env := newTestEnv(t)

	_, err := executeCmd(t, env.app, "set", "disconnect", "--duration", "45", "--yes")
	require.ErrorIs(t, err, transition.ErrUnsupportedByPump)
	assert.Equal(t, domain.ModeOpenLoop, env.mode(t))
}

func TestSetCmd_SuspendRevertsAfterDuration(t *testing.T) {
	env := newTestEnv(t)

	_, err := executeCmd(t, env.app, "set", "suspend", "--duration", "60", "--yes")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeSuspendedByUser, env.mode(t))

	env.clock.Advance(time.Hour)
	assert.Equal(t, domain.ModeOpenLoop, env.mode(t))
}

func TestResumeCmd(t *testing.T) {
	env := newTestEnv(t)
	_, err := executeCmd(t, env.app, "set", "suspend", "--duration", "2h", "--yes")
	require.NoError(t, err)

	_, err = executeCmd(t, env.app, "resume", "--yes")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeOpenLoop, env.mode(t))
}

func TestResumeCmd_NothingToResume(t *testing.T) {
	env := newTestEnv(t)

	_, err := executeCmd(t, env.app, "resume", "--yes")
	require.ErrorIs(t, err, transition.ErrIllegalTransition)
}

func TestReconnectCmd(t *testing.T) {
	env := newTestEnv(t)
	_, err := executeCmd(t, env.app, "set", "disconnect", "--duration", "1h", "--yes")
	require.NoError(t, err)

	_, err = executeCmd(t, env.app, "reconnect", "--yes")
	require.NoError(t, err)
	rec := env.loop.RunningModeRecord(context.Background())
	assert.Equal(t, domain.ModeOpenLoop, rec.Mode)
	assert.Equal(t, domain.ActionReconnect, rec.Action)
}

func TestReconnectCmd_RejectedWhileSuspended(t *testing.T) {
	env := newTestEnv(t)
	_, err := executeCmd(t, env.app, "set", "suspend", "--duration", "1h", "--yes")
	require.NoError(t, err)

	_, err = executeCmd(t, env.app, "reconnect", "--yes")
	require.ErrorIs(t, err, transition.ErrIllegalTransition)
	assert.Contains(t, err.Error(), "pump is not disconnected")
	assert.Equal(t, domain.ModeSuspendedByUser, env.mode(t))
}

// --- history / flags ---

func TestHistoryCmd(t *testing.T) {
	env := newTestEnv(t)
	_, err := executeCmd(t, env.app, "set", "closed", "--yes")
	require.NoError(t, err)
	require.NoError(t, env.loop.Flush(context.Background()))

	out, err := executeCmd(t, env.app, "history")
	require.NoError(t, err)
	assert.Contains(t, out, string(domain.ActionClosedLoopMode))
	assert.Contains(t, out, "CLI")
}

func TestHistoryCmd_Empty(t *testing.T) {
	env := newTestEnv(t)

	out, err := executeCmd(t, env.app, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No mode changes recorded yet")
}

func TestHistoryCmd_RejectsBadLimit(t *testing.T) {
	env := newTestEnv(t)

	_, err := executeCmd(t, env.app, "history", "--limit", "0")
	require.Error(t, err)
}

func TestFlagsCmd_AfterLongDisconnect(t *testing.T) {
	env := newTestEnv(t)
	_, err := executeCmd(t, env.app, "set", "disconnect", "--duration", "1h", "--yes")
	require.NoError(t, err)
	require.NoError(t, env.loop.Flush(context.Background()))

	out, err := executeCmd(t, env.app, "flags")
	require.NoError(t, err)
	assert.Contains(t, out, string(domain.FlagDisconnectUsed))
}

// --- profile ---

func TestProfileCmds(t *testing.T) {
	env := newTestEnv(t)

	out, err := executeCmd(t, env.app, "profile", "add", "night")
	require.NoError(t, err)
	assert.Contains(t, out, "Created profile night")
	assert.NotContains(t, out, "(active)")

	out, err = executeCmd(t, env.app, "profile", "use", "night")
	require.NoError(t, err)
	assert.Contains(t, out, "Active profile: night")

	out, err = executeCmd(t, env.app, "profile", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "default")
	assert.Contains(t, out, "night")
}

func TestProfileUse_Unknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := executeCmd(t, env.app, "profile", "use", "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

// --- watch ---

func TestWatchCmd_RunsProgramWithSubscription(t *testing.T) {
	env := newTestEnv(t)
	var got watchModel
	env.app.RunProgram = func(m tea.Model) error {
		got = m.(watchModel)
		return nil
	}

	_, err := executeCmd(t, env.app, "watch")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeOpenLoop, got.status.Mode)
	assert.NotNil(t, got.events)
}

func TestWatchCmd_MetricsNeedRegistry(t *testing.T) {
	env := newTestEnv(t)
	env.app.RunProgram = func(tea.Model) error { return nil }

	_, err := executeCmd(t, env.app, "watch", "--metrics-addr", "127.0.0.1:0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics are not enabled")
}
