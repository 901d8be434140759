package domain

import (
	"fmt"
	"math"
)

// IndefiniteDuration is the sentinel duration used when disabling the loop.
const IndefiniteDuration = math.MaxInt32

// CommandKind tags the Command variant.
type CommandKind string

const (
	CommandSetMode CommandKind = "set_mode"
	CommandResume  CommandKind = "resume"
)

// Action is the audit action kind recorded for a transition.
type Action string

const (
	ActionClosedLoopMode Action = "CLOSED_LOOP_MODE"
	ActionLGSLoopMode    Action = "LGS_LOOP_MODE"
	ActionOpenLoopMode   Action = "OPEN_LOOP_MODE"
	ActionLoopDisabled   Action = "LOOP_DISABLED"
	ActionSuspend        Action = "SUSPEND"
	ActionDisconnect     Action = "DISCONNECT"
	ActionResume         Action = "RESUME"
	ActionReconnect      Action = "RECONNECT"
)

// Source identifies who asked for a transition.
type Source string

const (
	SourceLoopDialog Source = "LoopDialog"
	SourceCLI        Source = "CLI"
	SourceScheduler  Source = "Scheduler"
	SourceStartup    Source = "Startup"
)

// System reports whether the source is the controller itself rather than a
// person.
func (s Source) System() bool {
	return s == SourceScheduler || s == SourceStartup
}

// Command is a request to change the running mode. For CommandSetMode, Mode
// names the target; for CommandResume, Mode is empty and the target is the
// configured default mode.
type Command struct {
	Kind            CommandKind
	Mode            Mode
	DurationMinutes int
	Action          Action // empty: derived from the target
}

// SetMode builds a command targeting a resting mode.
func SetMode(m Mode, minutes int) Command {
	return Command{Kind: CommandSetMode, Mode: m, DurationMinutes: minutes}
}

// Resume builds a command that leaves a temporary mode. Its action is
// derived from the mode being left.
func Resume() Command {
	return Command{Kind: CommandResume}
}

// Reconnect is Resume recorded as a pump reconnect. It is only valid while
// the pump is disconnected.
func Reconnect() Command {
	return Command{Kind: CommandResume, Action: ActionReconnect}
}

// WithAction overrides the audit action.
func (c Command) WithAction(a Action) Command {
	c.Action = a
	return c
}

// IsResume reports whether c is the Resume variant.
func (c Command) IsResume() bool {
	return c.Kind == CommandResume
}

// ResolveAction returns the explicit action or the one implied by the target.
// current is the mode the command is leaving.
func (c Command) ResolveAction(current Mode) Action {
	if c.Action != "" {
		return c.Action
	}
	if c.IsResume() {
		if current == ModeDisconnectedPump {
			return ActionReconnect
		}
		return ActionResume
	}
	switch c.Mode {
	case ModeClosedLoop:
		return ActionClosedLoopMode
	case ModeClosedLoopLGS:
		return ActionLGSLoopMode
	case ModeOpenLoop:
		return ActionOpenLoopMode
	case ModeDisabledLoop:
		return ActionLoopDisabled
	case ModeSuspendedByUser:
		return ActionSuspend
	case ModeDisconnectedPump:
		return ActionDisconnect
	default:
		return ""
	}
}

func (c Command) String() string {
	if c.IsResume() {
		return "RESUME"
	}
	if c.Mode.TimeBounded() {
		return fmt.Sprintf("%s for %dm", c.Mode, c.DurationMinutes)
	}
	return string(c.Mode)
}
