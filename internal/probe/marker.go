package probe

import (
	"os"
	"strings"
)

// Recording reports fresh marker-file evidence that capture is in progress.
//
// The marker is written by the dictation process while recording and is the
// authoritative signal. It is deliberately uncached: the stat is cheap and
// staleness handling is time-critical. A marker older than the freshness
// window is treated as absent and deleted, so a crashed producer cannot pin
// the display on recording. Lost races with the producer degrade to a
// not-recording outcome.
func (s *Set) Recording() Result {
	path := s.cfg.Marker.Path

	info, err := os.Stat(path)
	if err != nil {
		return No("no marker")
	}

	if s.now().Sub(info.ModTime()) > s.cfg.Marker.Freshness {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Debug().Err(rmErr).Str("path", path).Msg("stale marker cleanup failed")
		}
		return No("stale marker")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return No("marker unreadable")
	}
	if !markerActive(content) {
		return No("inactive marker")
	}
	return Yes("recording")
}

// markerActive accepts touch-style empty markers plus explicit active values.
func markerActive(content []byte) bool {
	trimmed := strings.TrimSpace(string(content))
	switch {
	case trimmed == "":
		return true
	case trimmed == "1":
		return true
	case strings.EqualFold(trimmed, "active"):
		return true
	case strings.EqualFold(trimmed, "recording"):
		return true
	}
	return false
}
