// Package config resolves, parses, validates, and defaults whisprbar configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by whisprbar.
type Config struct {
	Service ServiceConfig
	Model   ModelConfig
	Marker  MarkerConfig
	Poll    PollConfig
	Probe   ProbeConfig
	Notify  NotifyConfig
	Log     LogConfig
}

// ServiceConfig names the observed systemd user units and recovery policy.
type ServiceConfig struct {
	Unit                 string
	HelperUnit           string
	StuckActivatingAfter time.Duration
}

// ModelConfig points at the speech model the dictation service loads.
// An empty path means the service's built-in default is assumed valid.
type ModelConfig struct {
	Path string
}

// MarkerConfig controls the recording-evidence side channel.
type MarkerConfig struct {
	Path      string
	Freshness time.Duration
}

// PollConfig controls the watcher's adaptive cadence.
type PollConfig struct {
	RecordingInterval time.Duration
	IdleInterval      time.Duration
}

// ProbeConfig bounds external probe calls and their memoization window.
type ProbeConfig struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

// NotifyConfig controls the desktop notification sink.
type NotifyConfig struct {
	Enable    bool
	AppName   string
	TimeoutMS int
}

// LogConfig controls runtime log output.
type LogConfig struct {
	Level string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
