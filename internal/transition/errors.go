package transition

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/loopmode/internal/domain"
)

var (
	// ErrIllegalTransition indicates the requested target is not in the
	// current allowed set. Callers should re-query the allowed modes.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrMissingDuration indicates a time-bounded mode was requested without
	// a positive duration.
	ErrMissingDuration = errors.New("missing duration")

	// ErrDurationTooLong indicates a bounded duration above MaxBoundedMinutes.
	ErrDurationTooLong = errors.New("duration too long")

	// ErrUnsupportedByPump indicates the active pump cannot run a temp basal
	// with the requested duration.
	ErrUnsupportedByPump = errors.New("duration not supported by pump")
)

// ValidationError describes a rejected command. It unwraps to one of the
// sentinel errors above.
type ValidationError struct {
	Err     error
	Current domain.Mode
	Command domain.Command
	Detail  string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %s from %s", e.Err, e.Command, e.Current)
	}
	return fmt.Sprintf("%v: %s from %s: %s", e.Err, e.Command, e.Current, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func reject(err error, current domain.Mode, cmd domain.Command, detail string) error {
	return &ValidationError{Err: err, Current: current, Command: cmd, Detail: detail}
}
