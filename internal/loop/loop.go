// Package loop runs the continuous change-notification watcher.
package loop

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/rgould/whisprbar/internal/config"
	"github.com/rgould/whisprbar/internal/ipc"
	"github.com/rgould/whisprbar/internal/resolver"
	"github.com/rgould/whisprbar/internal/waybar"
)

// ResolveFunc produces one resolved status per invocation.
type ResolveFunc func(context.Context) resolver.Status

// Watcher repeatedly resolves status and emits one wire message per change.
// Polling is the correctness baseline; marker-file events and IPC rechecks
// only wake it ahead of the next tick.
type Watcher struct {
	cfg     config.Config
	resolve ResolveFunc
	out     io.Writer
	logger  zerolog.Logger

	wake chan struct{}

	mu      sync.Mutex
	last    resolver.Status
	emitted bool
}

// New builds a watcher writing wire messages to out.
func New(cfg config.Config, resolve ResolveFunc, out io.Writer, logger zerolog.Logger) *Watcher {
	return &Watcher{
		cfg:     cfg,
		resolve: resolve,
		out:     out,
		logger:  logger,
		wake:    make(chan struct{}, 1),
	}
}

// Run iterates until ctx is cancelled. The first resolution always emits; the
// last-emitted sentinel is only set after a successful write.
func (w *Watcher) Run(ctx context.Context) error {
	w.watchMarker(ctx)

	for {
		status := w.resolve(ctx)
		if ctx.Err() != nil {
			return nil
		}

		if w.changed(status) {
			message := waybar.FromStatus(status)
			if err := message.Encode(w.out); err != nil {
				return err
			}
			w.store(status)
			w.logger.Info().
				Str("state", string(status.State)).
				Str("reason", status.Reason).
				Msg("status change emitted")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.interval(status)):
		case <-w.wake:
		}
	}
}

// Poke wakes the loop ahead of its next tick. Non-blocking; a pending wake
// coalesces with later ones.
func (w *Watcher) Poke() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Handle implements the ipc.Handler contract for the watcher socket.
func (w *Watcher) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandRecheck:
		w.Poke()
		return ipc.Response{OK: true, State: w.lastState()}
	case ipc.CommandStatus:
		return ipc.Response{OK: true, State: w.lastState()}
	default:
		return ipc.Response{OK: false, Error: "unknown command: " + req.Command}
	}
}

// interval applies the adaptive cadence: fast while recording, slow otherwise.
func (w *Watcher) interval(status resolver.Status) time.Duration {
	if status.State == resolver.StateRecording {
		return w.cfg.Poll.RecordingInterval
	}
	return w.cfg.Poll.IdleInterval
}

// changed compares state and reason against the last emitted status.
func (w *Watcher) changed(status resolver.Status) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.emitted || status.State != w.last.State || status.Reason != w.last.Reason
}

func (w *Watcher) store(status resolver.Status) {
	w.mu.Lock()
	w.last = status
	w.emitted = true
	w.mu.Unlock()
}

func (w *Watcher) lastState() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.emitted {
		return ""
	}
	return string(w.last.State)
}

// watchMarker installs a best-effort fsnotify watch on the marker directory so
// recording transitions surface faster than the idle cadence. Failure to
// establish the watch is logged and ignored.
func (w *Watcher) watchMarker(ctx context.Context) {
	dir := markerDir(w.cfg.Marker.Path)
	if dir == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Debug().Err(err).Msg("marker watch unavailable")
		return
	}
	if err := watcher.Add(dir); err != nil {
		w.logger.Debug().Err(err).Str("dir", dir).Msg("marker watch failed")
		_ = watcher.Close()
		return
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name == w.cfg.Marker.Path {
					w.Poke()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
}

// markerDir ensures the marker's parent directory exists so it can be watched
// before the producer first writes.
func markerDir(path string) string {
	if path == "" {
		return ""
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return ""
	}
	return dir
}
