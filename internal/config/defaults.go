package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Service: ServiceConfig{
			Unit:                 "whisprd.service",
			HelperUnit:           "ydotoold.service",
			StuckActivatingAfter: 15 * time.Second,
		},
		Model: ModelConfig{Path: ""},
		Marker: MarkerConfig{
			Path:      defaultMarkerPath(),
			Freshness: 3 * time.Second,
		},
		Poll: PollConfig{
			RecordingInterval: 100 * time.Millisecond,
			IdleInterval:      500 * time.Millisecond,
		},
		Probe: ProbeConfig{
			Timeout:  250 * time.Millisecond,
			CacheTTL: 500 * time.Millisecond,
		},
		Notify: NotifyConfig{
			Enable:    true,
			AppName:   "whisprbar",
			TimeoutMS: 4000,
		},
		Log: LogConfig{Level: "info"},
	}
}

// defaultMarkerPath places the recording marker in the per-user runtime dir,
// matching where the dictation service writes it.
func defaultMarkerPath() string {
	if runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); runtimeDir != "" {
		return filepath.Join(runtimeDir, "whisprd", "recording")
	}
	return filepath.Join(os.TempDir(), "whisprd-recording")
}
