package service

import (
	"context"
	"errors"

	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/alexanderramin/loopmode/internal/transition"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsObserver exports transition counters and the current mode.
type MetricsObserver struct {
	transitions *prometheus.CounterVec
	reversions  prometheus.Counter
	running     *prometheus.GaugeVec
}

// NewMetricsObserver registers the loop metrics on reg.
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	m := &MetricsObserver{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loopmode",
			Name:      "transitions_total",
			Help:      "Running mode transitions by target mode, action, source and result.",
		}, []string{"mode", "action", "source", "result"}),
		reversions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loopmode",
			Name:      "reversions_total",
			Help:      "Time-bounded modes reverted to the default mode by the system.",
		}),
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "loopmode",
			Name:      "running_mode",
			Help:      "1 for the current running mode, 0 for the others.",
		}, []string{"mode"}),
	}
	for _, c := range []prometheus.Collector{m.transitions, m.reversions, m.running} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

var _ RunningModeGauge = (*MetricsObserver)(nil)

// SetRunning marks mode as the current one. The controller calls it under
// its writer lock, so the gauge follows the order records were applied in
// rather than the order observers see events.
func (m *MetricsObserver) SetRunning(mode domain.Mode) {
	for _, candidate := range domain.AllModes() {
		v := 0.0
		if candidate == mode {
			v = 1
		}
		m.running.WithLabelValues(string(candidate)).Set(v)
	}
}

func (m *MetricsObserver) ObserveTransition(_ context.Context, event TransitionEvent) {
	target := event.To
	if target == "" {
		target = event.Command.Mode
	}
	m.transitions.WithLabelValues(string(target), string(event.Action), string(event.Source), resultLabel(event.Err)).Inc()
	if event.Err != nil {
		return
	}
	if event.Reversion() {
		m.reversions.Inc()
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoActiveProfile):
		return "no_active_profile"
	case errors.Is(err, transition.ErrMissingDuration):
		return "missing_duration"
	case errors.Is(err, transition.ErrDurationTooLong):
		return "duration_too_long"
	case errors.Is(err, transition.ErrUnsupportedByPump):
		return "unsupported_by_pump"
	case errors.Is(err, transition.ErrIllegalTransition):
		return "illegal_transition"
	default:
		return "error"
	}
}
