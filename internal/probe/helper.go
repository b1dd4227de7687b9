package probe

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Helper reports whether the input-injection daemon is active and responsive.
// An active unit with a dead control socket counts as down.
func (s *Set) Helper(ctx context.Context) Result {
	return Cached(s.cache, "helper", s.cfg.Probe.CacheTTL, func() Result {
		status, err := s.unitStatus(ctx, s.cfg.Service.HelperUnit)
		if err != nil {
			return Unknown(err.Error())
		}
		if !status.Active() {
			return No("unit " + status.ActiveState)
		}
		if err := pingSocket(helperSocketPath(), s.cfg.Probe.Timeout); err != nil {
			return No("socket unresponsive: " + err.Error())
		}
		return Yes("responsive")
	})
}

// helperSocketPath resolves the ydotoold control socket location.
func helperSocketPath() string {
	if explicit := strings.TrimSpace(os.Getenv("YDOTOOL_SOCKET")); explicit != "" {
		return explicit
	}
	if runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); runtimeDir != "" {
		return filepath.Join(runtimeDir, ".ydotool_socket")
	}
	return filepath.Join(os.TempDir(), ".ydotool_socket")
}

// pingSocket treats a completed unix connect within the timeout as liveness.
func pingSocket(path string, timeout time.Duration) error {
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return err
	}
	return conn.Close()
}
