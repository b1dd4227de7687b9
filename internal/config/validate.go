package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Service.Unit) == "" {
		return fmt.Errorf("service.unit must not be empty")
	}
	if strings.TrimSpace(cfg.Service.HelperUnit) == "" {
		return fmt.Errorf("service.helper_unit must not be empty")
	}
	if cfg.Service.StuckActivatingAfter <= 0 {
		return fmt.Errorf("service.stuck_activating_after must be > 0")
	}
	if strings.TrimSpace(cfg.Marker.Path) == "" {
		return fmt.Errorf("marker.path must not be empty")
	}
	if cfg.Marker.Freshness <= 0 {
		return fmt.Errorf("marker.freshness must be > 0")
	}
	if cfg.Poll.RecordingInterval <= 0 {
		return fmt.Errorf("poll.recording_interval must be > 0")
	}
	if cfg.Poll.IdleInterval < cfg.Poll.RecordingInterval {
		return fmt.Errorf("poll.idle_interval must be >= poll.recording_interval")
	}
	if cfg.Probe.Timeout <= 0 {
		return fmt.Errorf("probe.timeout must be > 0")
	}
	if cfg.Probe.CacheTTL <= 0 {
		return fmt.Errorf("probe.cache_ttl must be > 0")
	}
	if cfg.Notify.Enable && strings.TrimSpace(cfg.Notify.AppName) == "" {
		return fmt.Errorf("notify.app_name must not be empty when notify.enable=true")
	}
	if cfg.Notify.TimeoutMS < 0 {
		return fmt.Errorf("notify.timeout_ms must be >= 0")
	}
	return nil
}
