package probe

import (
	"context"
	"fmt"
)

// Audio reports whether the audio server answers and exposes at least one
// capture-capable input source. The Pulse client has no context support, so
// the call is bounded externally.
func (s *Set) Audio(ctx context.Context) Result {
	return Cached(s.cache, "audio", s.cfg.Probe.CacheTTL, func() Result {
		count, err := withinTimeout(s.cfg.Probe.Timeout, func() (int, error) {
			return s.src.CountInputs(ctx)
		})
		if err != nil {
			s.logger.Debug().Err(err).Msg("audio probe failed")
			return Unknown(err.Error())
		}
		if count == 0 {
			return No("no input sources")
		}
		return Yes(fmt.Sprintf("%d input source(s)", count))
	})
}
