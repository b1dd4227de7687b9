// Package sysd wraps the systemd user manager D-Bus API behind a narrow interface.
package sysd

import (
	"context"
	"fmt"
	"time"

	systemd "github.com/coreos/go-systemd/v22/dbus"
)

// UnitStatus is the subset of unit state consumed by probes and commands.
type UnitStatus struct {
	ActiveState string // active, inactive, activating, deactivating, failed
	SubState    string
	Result      string // service Result property: success, exit-code, signal, ...
	ExitCode    int    // ExecMainStatus
	StateChange time.Time
}

// Active reports whether the unit is actively running.
func (s UnitStatus) Active() bool {
	return s.ActiveState == "active"
}

// Failed reports whether the unit is in a failed terminal state.
func (s UnitStatus) Failed() bool {
	return s.ActiveState == "failed"
}

// Manager is the service-manager surface consumed by the rest of whisprbar.
type Manager interface {
	UnitStatus(ctx context.Context, unit string) (UnitStatus, error)
	Start(ctx context.Context, unit string) error
	Stop(ctx context.Context, unit string) error
	Restart(ctx context.Context, unit string) error
	Close()
}

// Client is the live systemd user-session implementation of Manager.
type Client struct {
	conn       *systemd.Conn
	jobTimeout time.Duration
}

// Connect opens a connection to the per-user systemd instance.
func Connect(ctx context.Context) (*Client, error) {
	conn, err := systemd.NewUserConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect systemd user manager: %w", err)
	}
	return &Client{conn: conn, jobTimeout: 5 * time.Second}, nil
}

// Close releases the underlying D-Bus connection.
func (c *Client) Close() {
	c.conn.Close()
}

// UnitStatus reads unit and service-type properties for one unit.
func (c *Client) UnitStatus(ctx context.Context, unit string) (UnitStatus, error) {
	props, err := c.conn.GetUnitPropertiesContext(ctx, unit)
	if err != nil {
		return UnitStatus{}, fmt.Errorf("unit %s properties: %w", unit, err)
	}

	status := UnitStatus{
		ActiveState: stringProp(props, "ActiveState"),
		SubState:    stringProp(props, "SubState"),
	}
	if usec, ok := props["StateChangeTimestamp"].(uint64); ok && usec > 0 {
		status.StateChange = time.UnixMicro(int64(usec))
	}

	// Result/ExecMainStatus live on the Service interface; a unit that is not a
	// service simply reports neither.
	if svc, serr := c.conn.GetUnitTypePropertiesContext(ctx, unit, "Service"); serr == nil {
		status.Result = stringProp(svc, "Result")
		if code, ok := svc["ExecMainStatus"].(int32); ok {
			status.ExitCode = int(code)
		}
	}

	return status, nil
}

// Start enqueues a start job and waits for completion.
func (c *Client) Start(ctx context.Context, unit string) error {
	return c.runJob(ctx, unit, "start")
}

// Stop enqueues a stop job and waits for completion.
func (c *Client) Stop(ctx context.Context, unit string) error {
	return c.runJob(ctx, unit, "stop")
}

// Restart enqueues a restart job and waits for completion.
func (c *Client) Restart(ctx context.Context, unit string) error {
	return c.runJob(ctx, unit, "restart")
}

// runJob issues one replace-mode job and waits for systemd's result so the
// caller observes post-mutation state on its next resolution.
func (c *Client) runJob(ctx context.Context, unit string, verb string) error {
	results := make(chan string, 1)

	var err error
	switch verb {
	case "start":
		_, err = c.conn.StartUnitContext(ctx, unit, "replace", results)
	case "stop":
		_, err = c.conn.StopUnitContext(ctx, unit, "replace", results)
	case "restart":
		_, err = c.conn.RestartUnitContext(ctx, unit, "replace", results)
	default:
		return fmt.Errorf("unknown job verb %q", verb)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", verb, unit, err)
	}

	select {
	case result := <-results:
		if result != "done" {
			return fmt.Errorf("%s %s: job finished with result %q", verb, unit, result)
		}
		return nil
	case <-time.After(c.jobTimeout):
		return fmt.Errorf("%s %s: job timed out after %s", verb, unit, c.jobTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stringProp reads one string-typed property with a zero-value fallback.
func stringProp(props map[string]interface{}, name string) string {
	if v, ok := props[name].(string); ok {
		return v
	}
	return ""
}
