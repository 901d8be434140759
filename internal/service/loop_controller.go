package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/loopmode/internal/config"
	"github.com/alexanderramin/loopmode/internal/contract"
	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/alexanderramin/loopmode/internal/repository"
	"github.com/alexanderramin/loopmode/internal/reversion"
	"github.com/alexanderramin/loopmode/internal/transition"
	"github.com/google/uuid"
)

var (
	// ErrNoActiveProfile rejects user transitions while no profile is active.
	ErrNoActiveProfile = errors.New("no active profile")

	// ErrLoopClosed is returned by RequestTransition after Close.
	ErrLoopClosed = errors.New("loop controller closed")
)

// LoopDeps are the collaborators of a LoopController. Records, Audit and
// Flags may be nil, in which case those side effects are skipped.
type LoopDeps struct {
	System   config.SystemConfig
	Profiles ProfileSource
	Pump     PumpSource
	Audit    AuditLog
	Flags    FeatureFlagStore
	Records  RecordStore
	Clock    reversion.Clock
	Logger   *slog.Logger
}

// LoopController is the single owner of the running mode record.
//
// Writers (RequestTransition, timer callbacks, Start and expiry found on read)
// serialize on mu. The record itself sits behind an atomic pointer and is
// never mutated once stored, so readers take a snapshot without locking.
type LoopController struct {
	cfg      config.SystemConfig
	profiles ProfileSource
	pump     PumpSource
	audit    AuditLog
	flags    FeatureFlagStore
	records  RecordStore
	clock    reversion.Clock
	logger   *slog.Logger
	observer TransitionObserver
	gauges   []RunningModeGauge

	sched  *reversion.Scheduler
	broker *broker
	writes *writeQueue

	mu      sync.Mutex
	closed  bool
	current atomic.Pointer[domain.RunningModeRecord]
}

var _ LoopService = (*LoopController)(nil)

// NewLoopController builds a controller whose record starts in the configured
// default mode. Call Start to restore the persisted record.
func NewLoopController(deps LoopDeps, observers ...TransitionObserver) *LoopController {
	clock := deps.Clock
	if clock == nil {
		clock = reversion.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pump := deps.Pump
	if pump == nil {
		pump = StaticPump{}
	}

	c := &LoopController{
		cfg:      deps.System,
		profiles: deps.Profiles,
		pump:     pump,
		audit:    deps.Audit,
		flags:    deps.Flags,
		records:  deps.Records,
		clock:    clock,
		logger:   logger,
		observer: transitionObserverOrNoop(observers),
		sched:    reversion.New(clock),
		broker:   newBroker(logger),
		writes:   newWriteQueue(logger),
	}
	for _, o := range observers {
		if g, ok := o.(RunningModeGauge); ok {
			c.gauges = append(c.gauges, g)
		}
	}
	c.current.Store(&domain.RunningModeRecord{
		ID:        uuid.New().String(),
		Mode:      deps.System.DefaultMode,
		StartedAt: clock.Now(),
		Source:    domain.SourceStartup,
	})
	c.setRunningLocked(deps.System.DefaultMode)
	return c
}

// Start restores the last persisted record. An expired record is reverted
// straight away; a running one gets its reversion re-armed for the time left.
// A mode the system config no longer permits is replaced by the default mode.
// Without a persisted record the default record is saved.
func (c *LoopController) Start(ctx context.Context) error {
	if c.records == nil {
		return nil
	}

	saved, err := c.records.Load(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		rec := c.current.Load()
		if err := c.records.Save(ctx, rec); err != nil {
			return fmt.Errorf("saving initial running mode: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("restoring running mode: %w", err)
	}
	if !saved.Mode.Valid() {
		return fmt.Errorf("restoring running mode: unknown mode %q", saved.Mode)
	}

	caps := c.pump.Capabilities(ctx)
	var event *TransitionEvent

	c.mu.Lock()
	c.sched.Cancel()
	c.current.Store(saved)
	c.setRunningLocked(saved.Mode)
	now := c.clock.Now()
	switch {
	case saved.Expired(now):
		c.logger.InfoContext(ctx, "restored record already expired, reverting",
			"mode", string(saved.Mode), "expired_at", saved.ExpiresAt.Format(time.RFC3339))
		event = c.revertLocked(ctx, saved, domain.SourceStartup, caps)
	case !c.cfg.Permits(saved.Mode):
		c.logger.WarnContext(ctx, "restored mode not permitted by system config, switching to default",
			"mode", string(saved.Mode), "default", string(c.cfg.DefaultMode))
		event = c.downgradeLocked(ctx, saved)
	case saved.ExpiresAt != nil:
		c.armLocked(saved)
	}
	c.mu.Unlock()

	if event != nil {
		c.observer.ObserveTransition(ctx, *event)
	}
	return nil
}

// Close cancels the pending reversion, drains queued writes and closes
// every subscription.
func (c *LoopController) Close() {
	c.mu.Lock()
	c.closed = true
	c.sched.Cancel()
	c.mu.Unlock()

	c.writes.close()
	c.broker.close()
}

// Flush waits for side effects queued so far to be written.
func (c *LoopController) Flush(ctx context.Context) error {
	return c.writes.flush(ctx)
}

// Scheduler exposes the reversion slot for inspection.
func (c *LoopController) Scheduler() *reversion.Scheduler {
	return c.sched
}

func (c *LoopController) RunningModeRecord(ctx context.Context) domain.RunningModeRecord {
	rec := c.snapshot(ctx)
	rec.Reasons = transition.RestrictionReasons(c.cfg, c.pump.Capabilities(ctx), c.hasProfile(ctx))
	return rec
}

func (c *LoopController) AllowedNextModes(ctx context.Context) transition.Allowed {
	return transition.AllowedNextModes(c.snapshot(ctx), c.pump.Capabilities(ctx), c.cfg)
}

func (c *LoopController) Menu(ctx context.Context) contract.ModeMenu {
	rec := c.RunningModeRecord(ctx)
	caps := c.pump.Capabilities(ctx)
	return contract.BuildModeMenu(rec, transition.AllowedNextModes(rec, caps, c.cfg), caps)
}

func (c *LoopController) Subscribe(buffer int) (<-chan domain.ModeChange, func()) {
	return c.broker.subscribe(buffer)
}

func (c *LoopController) RequestTransition(ctx context.Context, cmd domain.Command, source domain.Source) (rec domain.RunningModeRecord, err error) {
	startedAt := c.clock.Now()
	event := TransitionEvent{Command: cmd, Source: source, StartedAt: startedAt}
	var reverted *TransitionEvent
	defer func() {
		if reverted != nil {
			c.observer.ObserveTransition(ctx, *reverted)
		}
		event.Elapsed = c.clock.Now().Sub(startedAt)
		event.Err = err
		c.observer.ObserveTransition(ctx, event)
	}()

	if !source.System() {
		if c.profiles == nil {
			return domain.RunningModeRecord{}, ErrNoActiveProfile
		}
		p, perr := c.profiles.CurrentProfile(ctx)
		if perr != nil {
			return domain.RunningModeRecord{}, fmt.Errorf("loading active profile: %w", perr)
		}
		if p == nil {
			return domain.RunningModeRecord{}, ErrNoActiveProfile
		}
	}
	caps := c.pump.Capabilities(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.RunningModeRecord{}, ErrLoopClosed
	}

	cur := c.current.Load()
	event.From = cur.Mode
	if cur.Expired(c.clock.Now()) {
		c.sched.Cancel()
		reverted = c.revertLocked(ctx, cur, domain.SourceScheduler, caps)
		cur = c.current.Load()
		event.From = cur.Mode
	}

	v, err := transition.ValidateTransition(*cur, cmd, caps, c.cfg)
	if err != nil {
		event.Action = cmd.ResolveAction(cur.Mode)
		return domain.RunningModeRecord{}, err
	}
	next := c.applyLocked(ctx, cur, v, source)
	event.To = next.Mode
	event.Action = v.Action
	event.DurationMinutes = v.DurationMinutes
	return *next, nil
}

// snapshot returns the current record, reverting it first if it has expired
// and the timer has not caught up yet.
func (c *LoopController) snapshot(ctx context.Context) domain.RunningModeRecord {
	rec := c.current.Load()
	if !rec.Expired(c.clock.Now()) {
		return *rec
	}

	caps := c.pump.Capabilities(ctx)
	var event *TransitionEvent
	c.mu.Lock()
	if cur := c.current.Load(); cur.ID == rec.ID && !c.closed {
		c.sched.Cancel()
		event = c.revertLocked(ctx, cur, domain.SourceScheduler, caps)
	}
	rec = c.current.Load()
	c.mu.Unlock()

	if event != nil {
		c.observer.ObserveTransition(ctx, *event)
	}
	return *rec
}

// onReversion runs on the clock's goroutine when a bounded record's timer
// fires.
func (c *LoopController) onReversion(recordID string) {
	ctx := context.Background()
	caps := c.pump.Capabilities(ctx)

	c.mu.Lock()
	if !c.sched.Claim(recordID) {
		c.mu.Unlock()
		return
	}
	cur := c.current.Load()
	var event *TransitionEvent
	if cur.ID == recordID && !c.closed {
		event = c.revertLocked(ctx, cur, domain.SourceScheduler, caps)
	}
	c.mu.Unlock()

	if event != nil {
		c.observer.ObserveTransition(ctx, *event)
	}
}

// revertLocked leaves the time-bounded record cur for the default mode. The
// caller holds mu and has already cancelled or claimed the reversion.
func (c *LoopController) revertLocked(ctx context.Context, cur *domain.RunningModeRecord, source domain.Source, caps domain.PumpCapabilities) *TransitionEvent {
	now := c.clock.Now()
	event := &TransitionEvent{Command: domain.Resume(), Source: source, From: cur.Mode, StartedAt: now}

	v, err := transition.ValidateTransition(*cur, domain.Resume(), caps, c.cfg)
	if err != nil {
		c.logger.ErrorContext(ctx, "reverting expired running mode",
			"record", cur.ID, "mode", string(cur.Mode), "error", err)
		event.Err = err
		return event
	}
	next := c.applyLocked(ctx, cur, v, source)
	event.To = next.Mode
	event.Action = v.Action
	return event
}

// applyLocked swaps in the record for v, re-arms the reversion slot, queues
// the side effects and publishes the change. The caller holds mu.
func (c *LoopController) applyLocked(ctx context.Context, cur *domain.RunningModeRecord, v transition.Validated, source domain.Source) *domain.RunningModeRecord {
	now := c.clock.Now()
	next := &domain.RunningModeRecord{
		ID:        uuid.New().String(),
		Mode:      v.Target,
		StartedAt: now,
		Action:    v.Action,
		Source:    source,
	}
	if v.DurationMinutes > 0 && v.Target.TimeBounded() {
		exp := now.Add(time.Duration(v.DurationMinutes) * time.Minute)
		next.ExpiresAt = &exp
	}

	c.sched.Cancel()
	c.current.Store(next)
	c.setRunningLocked(next.Mode)
	if next.ExpiresAt != nil {
		c.armLocked(next)
	}

	c.queueSideEffects(cur, next, v, source)
	c.broker.publish(domain.ModeChange{Previous: *cur, Current: *next, Action: v.Action, Source: source})
	return next
}

// downgradeLocked replaces a restored record whose mode the config forbids
// with the default mode. The caller holds mu.
func (c *LoopController) downgradeLocked(ctx context.Context, cur *domain.RunningModeRecord) *TransitionEvent {
	cmd := domain.SetMode(c.cfg.DefaultMode, 0)
	v := transition.Validated{
		From:   cur.Mode,
		Target: c.cfg.DefaultMode,
		Action: cmd.ResolveAction(cur.Mode),
	}
	next := c.applyLocked(ctx, cur, v, domain.SourceStartup)
	return &TransitionEvent{
		Command:   cmd,
		Source:    domain.SourceStartup,
		From:      cur.Mode,
		To:        next.Mode,
		Action:    v.Action,
		StartedAt: next.StartedAt,
	}
}

// setRunningLocked updates the gauges in apply order. The caller holds mu,
// or is the constructor.
func (c *LoopController) setRunningLocked(mode domain.Mode) {
	for _, g := range c.gauges {
		g.SetRunning(mode)
	}
}

func (c *LoopController) armLocked(rec *domain.RunningModeRecord) {
	if err := c.sched.Arm(rec.ID, *rec.ExpiresAt, c.onReversion); err != nil {
		c.logger.Error("arming reversion", "record", rec.ID, "error", err)
		panic(err)
	}
}

func (c *LoopController) queueSideEffects(prev, next *domain.RunningModeRecord, v transition.Validated, source domain.Source) {
	if c.audit != nil {
		entry := &domain.AuditEntry{
			ID:              uuid.New().String(),
			Action:          v.Action,
			Source:          source,
			Timestamp:       next.StartedAt,
			Mode:            next.Mode,
			PreviousMode:    prev.Mode,
			DurationMinutes: v.DurationMinutes,
		}
		if next.Mode == domain.ModeDisabledLoop {
			entry.DurationMinutes = domain.IndefiniteDuration
		}
		c.writes.submit("audit", func(ctx context.Context) error {
			return c.audit.Append(ctx, entry)
		})
	}

	if c.flags != nil && !source.System() {
		var set []domain.FeatureFlag
		if v.Resume {
			set = append(set, domain.FlagReconnectUsed)
		}
		if next.Mode == domain.ModeDisconnectedPump && v.DurationMinutes >= 60 {
			set = append(set, domain.FlagDisconnectUsed)
		}
		for _, flag := range set {
			at := next.StartedAt
			c.writes.submit("feature_flag", func(ctx context.Context) error {
				created, err := c.flags.SetOnce(ctx, flag, at)
				if err == nil && created {
					c.logger.Debug("feature flag set", "flag", string(flag))
				}
				return err
			})
		}
	}

	if c.records != nil {
		saved := *next
		c.writes.submit("running_mode", func(ctx context.Context) error {
			return c.records.Save(ctx, &saved)
		})
	}
}

func (c *LoopController) hasProfile(ctx context.Context) bool {
	if c.profiles == nil {
		return false
	}
	p, err := c.profiles.CurrentProfile(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "loading active profile", "error", err)
		return false
	}
	return p != nil
}
