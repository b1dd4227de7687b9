// Package notify delivers fire-and-forget desktop notifications over D-Bus.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/rgould/whisprbar/internal/config"
)

// Urgency follows the freedesktop notification hint values.
type Urgency byte

const (
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notifier sends best-effort notifications; a missing session bus or
// notification server is logged at debug and otherwise ignored.
type Notifier struct {
	cfg    config.NotifyConfig
	logger zerolog.Logger

	mu     sync.Mutex
	lastID uint32
}

// New builds a notifier from config.
func New(cfg config.NotifyConfig, logger zerolog.Logger) *Notifier {
	return &Notifier{cfg: cfg, logger: logger}
}

// Send dispatches one notification with a bounded timeout.
func (n *Notifier) Send(ctx context.Context, summary string, body string, urgency Urgency) {
	if n == nil || !n.cfg.Enable {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()

	if err := n.send(sendCtx, summary, body, urgency); err != nil {
		n.logger.Debug().Err(err).Str("summary", summary).Msg("desktop notification failed")
	}
}

// send performs the org.freedesktop.Notifications.Notify call, replacing the
// previous notification from this process when one is still visible.
func (n *Notifier) send(ctx context.Context, summary string, body string, urgency Urgency) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("session bus: %w", err)
	}

	n.mu.Lock()
	replaceID := n.lastID
	n.mu.Unlock()

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(urgency)),
	}

	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.CallWithContext(ctx, "org.freedesktop.Notifications.Notify", 0,
		n.cfg.AppName,
		replaceID,
		"audio-input-microphone",
		summary,
		body,
		[]string{},
		hints,
		int32(n.cfg.TimeoutMS),
	)
	if call.Err != nil {
		return fmt.Errorf("notify call: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("notify response: %w", err)
	}

	n.mu.Lock()
	n.lastID = id
	n.mu.Unlock()
	return nil
}
