package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rgould/whisprbar/internal/config"
	"github.com/rgould/whisprbar/internal/probe"
	"github.com/rgould/whisprbar/internal/sysd"
)

// Engine gathers probe snapshots and applies the resolution policy. It owns
// the only mutation the resolver is allowed to cause: a one-shot restart of a
// unit stuck in activating.
type Engine struct {
	cfg    config.Config
	probes *probe.Set
	mgr    sysd.Manager
	logger zerolog.Logger
	now    func() time.Time

	// recovered is non-zero while the current stuck episode has already been
	// restarted; cleared once the unit leaves activating.
	recovered time.Time
}

// NewEngine builds a resolution engine. now may be nil for the wall clock.
func NewEngine(cfg config.Config, probes *probe.Set, mgr sysd.Manager, logger zerolog.Logger, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{cfg: cfg, probes: probes, mgr: mgr, logger: logger, now: now}
}

// Resolve runs the recovery check, gathers one snapshot, and resolves it.
// It never returns an error: unobservable signals degrade to unknown results
// and resolution always yields a valid status.
func (e *Engine) Resolve(ctx context.Context) Status {
	e.maybeRecover(ctx)

	snap := Snapshot{
		ServiceActive: e.probes.ServiceActive(ctx),
		Failure:       e.probes.ServiceFailure(ctx),
		Recording:     e.probes.Recording(),
		Helper:        e.probes.Helper(ctx),
		Audio:         e.probes.Audio(ctx),
		Model:         e.probes.Model(),
	}

	status := Resolve(snap)
	if status.State != StateRecording && status.State != StateReady && status.State != StateError {
		status = Status{State: StateError, Reason: ReasonUnknown}
	}
	return status
}

// CheckStuck reports on the stuck-activating condition and restarts the unit
// once per stuck episode. The restart is the only resolver-side mutation and
// never re-enters resolution.
func (e *Engine) CheckStuck(ctx context.Context) (bool, string) {
	unit := e.cfg.Service.Unit

	status, err := e.probes.ServiceUnit(ctx)
	if err != nil {
		return false, fmt.Sprintf("%s: state unavailable (%v)", unit, err)
	}

	if status.ActiveState != "activating" {
		e.recovered = time.Time{}
		return false, fmt.Sprintf("%s is %s; no recovery needed", unit, status.ActiveState)
	}

	stuckFor := e.stuckDuration(status)
	if stuckFor < e.cfg.Service.StuckActivatingAfter {
		return false, fmt.Sprintf("%s activating for %s; below recovery threshold", unit, stuckFor.Round(time.Second))
	}
	if !e.recovered.IsZero() {
		return false, fmt.Sprintf("%s still activating; restart already issued", unit)
	}

	e.recovered = e.now()
	e.logger.Warn().
		Str("unit", unit).
		Dur("stuck_for", stuckFor).
		Msg("unit stuck in activating; issuing restart")

	restartCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := e.mgr.Restart(restartCtx, unit); err != nil {
		e.logger.Error().Err(err).Str("unit", unit).Msg("recovery restart failed")
		return true, fmt.Sprintf("%s stuck activating for %s; restart failed: %v", unit, stuckFor.Round(time.Second), err)
	}

	e.probes.InvalidateService()
	return true, fmt.Sprintf("%s stuck activating for %s; restarted", unit, stuckFor.Round(time.Second))
}

// maybeRecover runs the stuck check silently ahead of resolution.
func (e *Engine) maybeRecover(ctx context.Context) {
	status, err := e.probes.ServiceUnit(ctx)
	if err != nil || status.ActiveState != "activating" {
		e.recovered = time.Time{}
		return
	}
	if e.stuckDuration(status) < e.cfg.Service.StuckActivatingAfter {
		return
	}
	_, _ = e.CheckStuck(ctx)
}

// stuckDuration measures time spent in the current unit state. A missing
// timestamp counts as not stuck rather than infinitely stuck.
func (e *Engine) stuckDuration(status sysd.UnitStatus) time.Duration {
	if status.StateChange.IsZero() {
		return 0
	}
	return e.now().Sub(status.StateChange)
}
