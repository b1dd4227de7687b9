// Package doctor runs runtime readiness diagnostics for config, units, audio, and the marker channel.
package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/rgould/whisprbar/internal/audio"
	"github.com/rgould/whisprbar/internal/config"
	"github.com/rgould/whisprbar/internal/sysd"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
// mgr may be nil when the systemd user manager was unreachable.
func Run(ctx context.Context, loaded config.Loaded, mgr sysd.Manager) Report {
	cfg := loaded.Config
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", loaded.Path),
	})

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir available", "XDG_RUNTIME_DIR is empty; marker and socket fall back to the temp dir"))

	checks = append(checks, checkUnits(ctx, cfg, mgr)...)
	checks = append(checks, checkAudio(ctx))
	checks = append(checks, checkModel(cfg))
	checks = append(checks, checkMarkerDir(cfg))
	checks = append(checks, checkNotifications())

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkUnits reports reachability of the user manager and both observed units.
func checkUnits(ctx context.Context, cfg config.Config, mgr sysd.Manager) []Check {
	if mgr == nil {
		return []Check{{Name: "systemd", Pass: false, Message: "user manager unreachable"}}
	}

	checks := []Check{{Name: "systemd", Pass: true, Message: "user manager reachable"}}
	for _, unit := range []string{cfg.Service.Unit, cfg.Service.HelperUnit} {
		status, err := mgr.UnitStatus(ctx, unit)
		if err != nil {
			checks = append(checks, Check{Name: unit, Pass: false, Message: err.Error()})
			continue
		}
		// Inactive units are still a pass here; doctor verifies they exist and
		// answer, not that they are running.
		checks = append(checks, Check{
			Name:    unit,
			Pass:    true,
			Message: fmt.Sprintf("state=%s/%s", status.ActiveState, status.SubState),
		})
	}
	return checks
}

// checkAudio verifies the Pulse server answers and has a capture source.
func checkAudio(ctx context.Context) Check {
	count, err := audio.CountInputs(ctx)
	if err != nil {
		return Check{Name: "audio", Pass: false, Message: err.Error()}
	}
	if count == 0 {
		return Check{Name: "audio", Pass: false, Message: "no capture-capable input sources"}
	}
	return Check{Name: "audio", Pass: true, Message: fmt.Sprintf("%d input source(s)", count)}
}

// checkModel verifies the configured speech model exists.
func checkModel(cfg config.Config) Check {
	if cfg.Model.Path == "" {
		return Check{Name: "model", Pass: true, Message: "no model path configured; service default assumed"}
	}
	if _, err := os.Stat(cfg.Model.Path); err != nil {
		return Check{Name: "model", Pass: false, Message: fmt.Sprintf("model file %q: %v", cfg.Model.Path, err)}
	}
	return Check{Name: "model", Pass: true, Message: fmt.Sprintf("found %q", cfg.Model.Path)}
}

// checkMarkerDir verifies the marker's parent directory can be created.
func checkMarkerDir(cfg config.Config) Check {
	dir := filepath.Dir(cfg.Marker.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Check{Name: "marker", Pass: false, Message: fmt.Sprintf("marker dir %q: %v", dir, err)}
	}
	return Check{Name: "marker", Pass: true, Message: fmt.Sprintf("watching %q", cfg.Marker.Path)}
}

// checkNotifications verifies a session bus is present for the notify sink.
func checkNotifications() Check {
	if _, err := dbus.SessionBus(); err != nil {
		return Check{Name: "notifications", Pass: false, Message: fmt.Sprintf("session bus: %v", err)}
	}
	return Check{Name: "notifications", Pass: true, Message: "session bus reachable"}
}
