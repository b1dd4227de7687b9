package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileSchema is the YAML shape of config.yaml. Durations are strings so a bad
// value degrades to a warning instead of a decode failure; zero values keep
// the corresponding default.
type fileSchema struct {
	Service struct {
		Unit                 string `yaml:"unit"`
		HelperUnit           string `yaml:"helper_unit"`
		StuckActivatingAfter string `yaml:"stuck_activating_after"`
	} `yaml:"service"`
	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`
	Marker struct {
		Path      string `yaml:"path"`
		Freshness string `yaml:"freshness"`
	} `yaml:"marker"`
	Poll struct {
		RecordingInterval string `yaml:"recording_interval"`
		IdleInterval      string `yaml:"idle_interval"`
	} `yaml:"poll"`
	Probe struct {
		Timeout  string `yaml:"timeout"`
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"probe"`
	Notify struct {
		Enable    *bool  `yaml:"enable"`
		AppName   string `yaml:"app_name"`
		TimeoutMS *int   `yaml:"timeout_ms"`
	} `yaml:"notify"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Parse applies a YAML document over the provided base configuration.
func Parse(content []byte, base Config) (Config, []Warning, error) {
	var schema fileSchema
	if err := yaml.Unmarshal(content, &schema); err != nil {
		return Config{}, nil, fmt.Errorf("decode yaml: %w", err)
	}

	cfg := base
	warnings := make([]Warning, 0)

	applyString(&cfg.Service.Unit, schema.Service.Unit)
	applyString(&cfg.Service.HelperUnit, schema.Service.HelperUnit)
	applyDuration(&cfg.Service.StuckActivatingAfter, "service.stuck_activating_after", schema.Service.StuckActivatingAfter, &warnings)

	applyString(&cfg.Model.Path, schema.Model.Path)

	applyString(&cfg.Marker.Path, schema.Marker.Path)
	applyDuration(&cfg.Marker.Freshness, "marker.freshness", schema.Marker.Freshness, &warnings)

	applyDuration(&cfg.Poll.RecordingInterval, "poll.recording_interval", schema.Poll.RecordingInterval, &warnings)
	applyDuration(&cfg.Poll.IdleInterval, "poll.idle_interval", schema.Poll.IdleInterval, &warnings)

	applyDuration(&cfg.Probe.Timeout, "probe.timeout", schema.Probe.Timeout, &warnings)
	applyDuration(&cfg.Probe.CacheTTL, "probe.cache_ttl", schema.Probe.CacheTTL, &warnings)

	if schema.Notify.Enable != nil {
		cfg.Notify.Enable = *schema.Notify.Enable
	}
	applyString(&cfg.Notify.AppName, schema.Notify.AppName)
	if schema.Notify.TimeoutMS != nil {
		cfg.Notify.TimeoutMS = *schema.Notify.TimeoutMS
	}

	applyString(&cfg.Log.Level, schema.Log.Level)

	return cfg, warnings, nil
}

// applyString overwrites dst when the file supplied a non-blank value.
func applyString(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = strings.TrimSpace(value)
	}
}

// applyDuration overwrites dst when the file supplied a parsable duration,
// warning and keeping the default otherwise.
func applyDuration(dst *time.Duration, key string, value string, warnings *[]Warning) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		*warnings = append(*warnings, Warning{
			Message: fmt.Sprintf("%s: invalid duration %q; keeping %s", key, value, *dst),
		})
		return
	}
	*dst = parsed
}
