package transition

import (
	"testing"

	"github.com/alexanderramin/loopmode/internal/config"
	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genMode() gopter.Gen {
	modes := domain.AllModes()
	values := make([]interface{}, len(modes))
	for i, m := range modes {
		values[i] = m
	}
	return gen.OneConstOf(values...)
}

func genSystemConfig() gopter.Gen {
	return gen.SliceOfN(4, gen.Bool()).Map(func(flags []bool) config.SystemConfig {
		return config.SystemConfig{
			APS:         flags[0],
			ClosedLoop:  flags[1],
			LGS:         flags[2],
			OpenLoop:    flags[3],
			DefaultMode: domain.ModeDisabledLoop,
		}
	})
}

func genPump() gopter.Gen {
	return gopter.CombineGens(gen.Bool(), gen.Bool(), gen.IntRange(0, 600)).Map(func(v []interface{}) domain.PumpCapabilities {
		return domain.PumpCapabilities{
			TempDurationStep15mAllowed: v[0].(bool),
			TempDurationStep30mAllowed: v[1].(bool),
			MaxTempDurationMinutes:     v[2].(int),
		}
	})
}

// TestAllowedNextModes_Properties checks the invariants that must hold for
// every current mode, pump and configuration.
func TestAllowedNextModes_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("current mode is never offered", prop.ForAll(
		func(m domain.Mode, caps domain.PumpCapabilities, cfg config.SystemConfig) bool {
			return !AllowedNextModes(record(m), caps, cfg).Contains(m)
		},
		genMode(), genPump(), genSystemConfig(),
	))

	properties.Property("no pump disconnect without APS", prop.ForAll(
		func(m domain.Mode, caps domain.PumpCapabilities, cfg config.SystemConfig) bool {
			cfg.APS = false
			return !AllowedNextModes(record(m), caps, cfg).Contains(domain.ModeDisconnectedPump)
		},
		genMode(), genPump(), genSystemConfig(),
	))

	properties.Property("every offered mode validates with a preset duration", prop.ForAll(
		func(m domain.Mode, caps domain.PumpCapabilities, cfg config.SystemConfig) bool {
			allowed := AllowedNextModes(record(m), caps, cfg)
			for _, target := range allowed.Modes {
				minutes := 0
				if opts := DurationOptions(target, caps); len(opts) > 0 {
					minutes = opts[0]
				}
				if _, err := ValidateTransition(record(m), domain.SetMode(target, minutes), caps, cfg); err != nil {
					return false
				}
			}
			return true
		},
		genMode(), genPump(), genSystemConfig(),
	))

	properties.Property("resume offered exactly for time-bounded modes", prop.ForAll(
		func(m domain.Mode, caps domain.PumpCapabilities, cfg config.SystemConfig) bool {
			return AllowedNextModes(record(m), caps, cfg).Resume == m.TimeBounded()
		},
		genMode(), genPump(), genSystemConfig(),
	))

	properties.TestingRun(t)
}
