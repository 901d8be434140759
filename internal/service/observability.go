package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/alexanderramin/loopmode/internal/domain"
)

// TransitionEvent describes one attempted transition, successful or not.
type TransitionEvent struct {
	Command         domain.Command
	Source          domain.Source
	From            domain.Mode
	To              domain.Mode // empty when rejected
	Action          domain.Action
	DurationMinutes int
	StartedAt       time.Time
	Elapsed         time.Duration
	Err             error
}

// Reversion reports whether the event is a system-initiated return to the
// default mode.
func (e TransitionEvent) Reversion() bool {
	return e.Source.System() && e.Err == nil
}

// TransitionObserver receives transition events after the record is swapped.
type TransitionObserver interface {
	ObserveTransition(ctx context.Context, event TransitionEvent)
}

// NoopTransitionObserver ignores all events.
type NoopTransitionObserver struct{}

func (NoopTransitionObserver) ObserveTransition(context.Context, TransitionEvent) {}

type logTransitionObserver struct {
	logger *slog.Logger
}

// NewLogTransitionObserver writes one record per transition to logger.
func NewLogTransitionObserver(logger *slog.Logger) TransitionObserver {
	if logger == nil {
		return NoopTransitionObserver{}
	}
	return &logTransitionObserver{logger: logger}
}

func (o *logTransitionObserver) ObserveTransition(ctx context.Context, event TransitionEvent) {
	attrs := []any{
		"from", string(event.From),
		"command", event.Command.String(),
		"source", string(event.Source),
		"elapsed_ms", event.Elapsed.Milliseconds(),
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.WarnContext(ctx, "loop_transition_rejected", attrs...)
		return
	}
	attrs = append(attrs, "mode", string(event.To), "action", string(event.Action))
	if event.DurationMinutes > 0 {
		attrs = append(attrs, "duration_min", event.DurationMinutes)
	}
	o.logger.InfoContext(ctx, "loop_transition", attrs...)
}

type multiObserver []TransitionObserver

func (m multiObserver) ObserveTransition(ctx context.Context, event TransitionEvent) {
	for _, o := range m {
		o.ObserveTransition(ctx, event)
	}
}

func transitionObserverOrNoop(observers []TransitionObserver) TransitionObserver {
	var live multiObserver
	for _, obs := range observers {
		if obs != nil {
			live = append(live, obs)
		}
	}
	switch len(live) {
	case 0:
		return NoopTransitionObserver{}
	case 1:
		return live[0]
	default:
		return live
	}
}

// RunningModeGauge is implemented by observers that track the current mode.
// NewLoopController picks them out of its observers and updates them as each
// record is applied.
type RunningModeGauge interface {
	SetRunning(mode domain.Mode)
}
