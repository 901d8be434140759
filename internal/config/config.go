// Package config loads loopmode.toml and applies LOOPMODE_* environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alexanderramin/loopmode/internal/domain"
)

// Config is the top-level loopmode.toml configuration.
type Config struct {
	System  SystemConfig  `toml:"system"`
	Pump    PumpConfig    `toml:"pump"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
}

// SystemConfig holds the build and feature flags that decide which modes are
// reachable.
type SystemConfig struct {
	APS         bool        `toml:"aps"` // automated dosing available
	ClosedLoop  bool        `toml:"closed_loop"`
	LGS         bool        `toml:"lgs"`
	OpenLoop    bool        `toml:"open_loop"`
	DefaultMode domain.Mode `toml:"default_mode"` // start mode and Resume target
}

// PumpConfig describes the active pump's temp basal abilities.
type PumpConfig struct {
	Step15m                bool `toml:"step_15m"`
	Step30m                bool `toml:"step_30m"`
	MaxTempDurationMinutes int  `toml:"max_temp_duration_min"` // 0 = unlimited
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level       string `toml:"level"`
	Format      string `toml:"format"` // text or json
	Transitions bool   `toml:"transitions"`
}

// Default returns a Config with sensible defaults: an APS build with every
// loop mode permitted, resuming into open loop.
func Default() Config {
	return Config{
		System: SystemConfig{
			APS:         true,
			ClosedLoop:  true,
			LGS:         true,
			OpenLoop:    true,
			DefaultMode: domain.ModeOpenLoop,
		},
		Pump: PumpConfig{
			Step30m:                true,
			MaxTempDurationMinutes: 720,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns $LOOPMODE_CONFIG or ~/.loopmode/loopmode.toml.
func DefaultPath() (string, error) {
	if p := os.Getenv("LOOPMODE_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".loopmode", "loopmode.toml"), nil
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error when
// required is false.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) || required {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	cfg.System.DefaultMode = normalizeMode(cfg.System.DefaultMode)

	if cfg.Storage.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("finding home directory: %w", err)
		}
		cfg.Storage.DBPath = filepath.Join(home, ".loopmode", "loopmode.db")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	applyBoolEnv(&cfg.System.APS, "LOOPMODE_APS")
	applyBoolEnv(&cfg.System.ClosedLoop, "LOOPMODE_CLOSED_LOOP")
	applyBoolEnv(&cfg.System.LGS, "LOOPMODE_LGS")
	applyBoolEnv(&cfg.System.OpenLoop, "LOOPMODE_OPEN_LOOP")
	if v := os.Getenv("LOOPMODE_DEFAULT_MODE"); v != "" {
		cfg.System.DefaultMode = domain.Mode(v)
	}

	applyBoolEnv(&cfg.Pump.Step15m, "LOOPMODE_PUMP_STEP_15M")
	applyBoolEnv(&cfg.Pump.Step30m, "LOOPMODE_PUMP_STEP_30M")
	if v := os.Getenv("LOOPMODE_PUMP_MAX_TEMP_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Pump.MaxTempDurationMinutes = n
		}
	}

	if v := os.Getenv("LOOPMODE_DB"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("LOOPMODE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOOPMODE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	applyBoolEnv(&cfg.Log.Transitions, "LOOPMODE_LOG_TRANSITIONS")
}

// normalizeMode maps aliases such as "open" to the canonical mode. Unknown
// values are kept as-is so Validate reports them.
func normalizeMode(m domain.Mode) domain.Mode {
	if parsed, err := domain.ParseMode(string(m)); err == nil {
		return parsed
	}
	return m
}

func applyBoolEnv(dst *bool, name string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}

// Validate checks the configuration and returns all issues joined together.
func (c *Config) Validate() error {
	var errs []error

	m := c.System.DefaultMode
	switch {
	case !m.Valid():
		errs = append(errs, fmt.Errorf("system.default_mode %q is not a mode", m))
	case m.TimeBounded():
		errs = append(errs, fmt.Errorf("system.default_mode must not be time-bounded, got %s", m))
	case !c.System.Permits(m):
		errs = append(errs, fmt.Errorf("system.default_mode %s is not permitted by the system flags", m))
	}

	if c.Pump.MaxTempDurationMinutes < 0 {
		errs = append(errs, fmt.Errorf("pump.max_temp_duration_min must be >= 0 (0 = unlimited)"))
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Permits reports whether the system flags allow m as a resting mode at all,
// regardless of the current mode.
func (s SystemConfig) Permits(m domain.Mode) bool {
	switch m {
	case domain.ModeDisabledLoop, domain.ModeSuspendedByUser:
		return true
	case domain.ModeOpenLoop:
		return s.OpenLoop
	case domain.ModeClosedLoop:
		return s.APS && s.ClosedLoop
	case domain.ModeClosedLoopLGS:
		return s.APS && s.LGS
	case domain.ModeDisconnectedPump:
		return s.APS
	default:
		return false
	}
}

// Capabilities converts the pump section to the domain view.
func (p PumpConfig) Capabilities() domain.PumpCapabilities {
	return domain.PumpCapabilities{
		TempDurationStep15mAllowed: p.Step15m,
		TempDurationStep30mAllowed: p.Step30m,
		MaxTempDurationMinutes:     p.MaxTempDurationMinutes,
	}
}

// NewLogger builds the process logger from the log section.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", s, err)
	}
	return level, nil
}
