package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rgould/whisprbar/internal/audio"
	"github.com/rgould/whisprbar/internal/config"
	"github.com/rgould/whisprbar/internal/sysd"
)

// Set bundles all signal probes behind one cache and clock.
type Set struct {
	cfg    config.Config
	mgr    sysd.Manager
	src    audio.Source
	cache  *Cache
	logger zerolog.Logger
	now    func() time.Time
}

// NewSet builds the probe set. src may be nil for the live Pulse source; now
// may be nil for the wall clock.
func NewSet(cfg config.Config, mgr sysd.Manager, src audio.Source, logger zerolog.Logger, now func() time.Time) *Set {
	if src == nil {
		src = audio.PulseSource{}
	}
	if now == nil {
		now = time.Now
	}
	return &Set{
		cfg:    cfg,
		mgr:    mgr,
		src:    src,
		cache:  NewCache(now),
		logger: logger,
		now:    now,
	}
}

// unitStatus reads one unit's state through the cache with the probe timeout.
func (s *Set) unitStatus(ctx context.Context, unit string) (sysd.UnitStatus, error) {
	type cached struct {
		status sysd.UnitStatus
		err    error
	}
	out := Cached(s.cache, "unit:"+unit, s.cfg.Probe.CacheTTL, func() cached {
		probeCtx, cancel := context.WithTimeout(ctx, s.cfg.Probe.Timeout)
		defer cancel()
		status, err := s.mgr.UnitStatus(probeCtx, unit)
		if err != nil {
			s.logger.Debug().Err(err).Str("unit", unit).Msg("unit status probe failed")
		}
		return cached{status: status, err: err}
	})
	return out.status, out.err
}

// ServiceUnit exposes the raw dictation-unit state for recovery and toggling.
func (s *Set) ServiceUnit(ctx context.Context) (sysd.UnitStatus, error) {
	return s.unitStatus(ctx, s.cfg.Service.Unit)
}

// ServiceActive reports whether the dictation service is actively running.
func (s *Set) ServiceActive(ctx context.Context) Result {
	status, err := s.ServiceUnit(ctx)
	if err != nil {
		return Unknown(err.Error())
	}
	if status.Active() {
		return Yes("unit active")
	}
	return No(fmt.Sprintf("unit %s", status.ActiveState))
}

// ServiceFailure reports terminal-failure detail for the dictation service.
// Distinguishes crashed from merely inactive.
func (s *Set) ServiceFailure(ctx context.Context) FailureInfo {
	status, err := s.ServiceUnit(ctx)
	if err != nil || !status.Failed() {
		return FailureInfo{}
	}
	return FailureInfo{
		Failed:   true,
		Result:   status.Result,
		ExitCode: status.ExitCode,
	}
}

// InvalidateService drops cached unit state after a mutation so the next
// resolution observes post-mutation reality.
func (s *Set) InvalidateService() {
	s.cache.Invalidate("unit:" + s.cfg.Service.Unit)
	s.cache.Invalidate("unit:" + s.cfg.Service.HelperUnit)
}
