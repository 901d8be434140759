package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/loopmode/internal/contract"
	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/spf13/pflag"
)

// minutesValue is a pflag.Value holding a duration in whole minutes. It
// accepts bare minutes ("90"), Go durations ("1h30m") and "indefinite".
type minutesValue int

var _ pflag.Value = (*minutesValue)(nil)

func (v *minutesValue) String() string {
	if *v == 0 {
		return ""
	}
	return contract.FormatMinutes(int(*v))
}

func (v *minutesValue) Set(s string) error {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "indefinite" || s == "indefinitely" {
		*v = minutesValue(domain.IndefiniteDuration)
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return errors.New("duration must be positive")
		}
		*v = minutesValue(n)
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: use minutes (90) or a duration (1h30m)", s)
	}
	if d <= 0 || d%time.Minute != 0 {
		return fmt.Errorf("duration %q must be a positive whole number of minutes", s)
	}
	*v = minutesValue(d / time.Minute)
	return nil
}

func (v *minutesValue) Type() string {
	return "duration"
}
