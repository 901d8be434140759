package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loopmode.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingOptionalFileUsesDefaults(t *testing.T) {
	t.Setenv("LOOPMODE_DB", filepath.Join(t.TempDir(), "x.db"))

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"), false)
	require.NoError(t, err)
	assert.True(t, cfg.System.APS)
	assert.Equal(t, domain.ModeOpenLoop, cfg.System.DefaultMode)
	assert.True(t, cfg.Pump.Step30m)
	assert.False(t, cfg.Pump.Step15m)
}

func TestLoad_MissingRequiredFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"), true)
	assert.Error(t, err)
}

func TestLoad_ParsesFile(t *testing.T) {
	path := writeConfig(t, `
[system]
aps = false
closed_loop = false
lgs = false
open_loop = true
default_mode = "DISABLED_LOOP"

[pump]
step_15m = true
step_30m = true
max_temp_duration_min = 240

[storage]
db_path = "/tmp/loopmode-test.db"

[log]
level = "debug"
format = "json"
transitions = true
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.False(t, cfg.System.APS)
	assert.Equal(t, domain.ModeDisabledLoop, cfg.System.DefaultMode)
	assert.Equal(t, domain.PumpCapabilities{
		TempDurationStep15mAllowed: true,
		TempDurationStep30mAllowed: true,
		MaxTempDurationMinutes:     240,
	}, cfg.Pump.Capabilities())
	assert.Equal(t, "/tmp/loopmode-test.db", cfg.Storage.DBPath)
	assert.True(t, cfg.Log.Transitions)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[system]
aps = true
default_mode = "OPEN_LOOP"
`)
	t.Setenv("LOOPMODE_APS", "false")
	t.Setenv("LOOPMODE_DEFAULT_MODE", "disable")
	t.Setenv("LOOPMODE_DB", "/tmp/env.db")
	t.Setenv("LOOPMODE_PUMP_STEP_15M", "true")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.False(t, cfg.System.APS)
	assert.Equal(t, domain.ModeDisabledLoop, cfg.System.DefaultMode)
	assert.Equal(t, "/tmp/env.db", cfg.Storage.DBPath)
	assert.True(t, cfg.Pump.Step15m)
}

func TestLoad_FileDefaultModeAcceptsAliases(t *testing.T) {
	path := writeConfig(t, `
[system]
default_mode = "open"
`)

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeOpenLoop, cfg.System.DefaultMode)
}

func TestLoad_FileDefaultModeUnknown(t *testing.T) {
	path := writeConfig(t, `
[system]
default_mode = "turbo"
`)

	_, err := Load(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a mode")
}

func TestValidate_CollectsAllIssues(t *testing.T) {
	cfg := Default()
	cfg.System.DefaultMode = domain.ModeSuspendedByUser
	cfg.Pump.MaxTempDurationMinutes = -1
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "time-bounded")
	assert.Contains(t, msg, "max_temp_duration_min")
	assert.Contains(t, msg, "log.level")
	assert.Contains(t, msg, "log.format")
}

func TestValidate_DefaultModeMustBePermitted(t *testing.T) {
	cfg := Default()
	cfg.System.APS = false
	cfg.System.DefaultMode = domain.ModeClosedLoop

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not permitted")

	cfg.System.DefaultMode = "NOPE"
	assert.ErrorContains(t, cfg.Validate(), "is not a mode")
}

func TestSystemConfig_Permits(t *testing.T) {
	manual := SystemConfig{APS: false, ClosedLoop: true, LGS: true, OpenLoop: true}
	assert.False(t, manual.Permits(domain.ModeClosedLoop))
	assert.False(t, manual.Permits(domain.ModeClosedLoopLGS))
	assert.False(t, manual.Permits(domain.ModeDisconnectedPump))
	assert.True(t, manual.Permits(domain.ModeOpenLoop))
	assert.True(t, manual.Permits(domain.ModeDisabledLoop))
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
}
