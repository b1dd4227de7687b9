package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/rgould/whisprbar/internal/audio"
	"github.com/rgould/whisprbar/internal/cli"
	"github.com/rgould/whisprbar/internal/config"
	"github.com/rgould/whisprbar/internal/ipc"
	"github.com/rgould/whisprbar/internal/notify"
	"github.com/rgould/whisprbar/internal/probe"
	"github.com/rgould/whisprbar/internal/resolver"
	"github.com/rgould/whisprbar/internal/sysd"
	"github.com/rgould/whisprbar/internal/waybar"
)

// dispatcher runs the one-shot externally-triggered actions. Every command,
// whatever it mutated, ends by resolving once and emitting exactly one wire
// message so the caller always sees the post-action state.
type dispatcher struct {
	cfg      config.Config
	mgr      sysd.Manager
	probes   *probe.Set
	engine   *resolver.Engine
	notifier *notify.Notifier
	logger   zerolog.Logger
	stdout   io.Writer
	stderr   io.Writer
}

func newDispatcher(cfg config.Config, mgr sysd.Manager, src audio.Source, logger zerolog.Logger, stdout, stderr io.Writer) *dispatcher {
	probes := probe.NewSet(cfg, mgr, src, logger, nil)
	return &dispatcher{
		cfg:      cfg,
		mgr:      mgr,
		probes:   probes,
		engine:   resolver.NewEngine(cfg, probes, mgr, logger, nil),
		notifier: notify.New(cfg.Notify, logger),
		logger:   logger,
		stdout:   stdout,
		stderr:   stderr,
	}
}

func (d *dispatcher) run(ctx context.Context, command cli.Command) int {
	switch command {
	case cli.CommandStatus:
		d.emit(ctx)
		return 0
	case cli.CommandStart:
		return d.start(ctx)
	case cli.CommandStop:
		return d.stop(ctx)
	case cli.CommandToggle:
		return d.toggle(ctx)
	case cli.CommandRestart:
		return d.restart(ctx)
	case cli.CommandHealth:
		return d.health(ctx)
	default:
		fmt.Fprintf(d.stderr, "error: unsupported command %q\n", command)
		return 2
	}
}

// start begins dictation, refusing when no microphone is reachable. The
// precondition failure is the only non-zero path; mutation errors surface in
// the emitted status instead.
func (d *dispatcher) start(ctx context.Context) int {
	if !d.microphoneReachable(ctx) {
		d.notifier.Send(ctx, "Cannot start dictation", "No reachable microphone was found.", notify.UrgencyCritical)
		fmt.Fprintln(d.stderr, "error: no reachable microphone; dictation not started")
		d.emit(ctx)
		return 1
	}

	d.mutate(ctx, "start", d.mgr.Start)
	d.notifier.Send(ctx, "Dictation started", "", notify.UrgencyNormal)
	d.emit(ctx)
	return 0
}

func (d *dispatcher) stop(ctx context.Context) int {
	d.mutate(ctx, "stop", d.mgr.Stop)
	d.notifier.Send(ctx, "Dictation stopped", "", notify.UrgencyNormal)
	d.emit(ctx)
	return 0
}

// toggle starts or stops the service depending on its current active state.
func (d *dispatcher) toggle(ctx context.Context) int {
	status, err := d.probes.ServiceUnit(ctx)
	if err == nil && status.Active() {
		return d.stop(ctx)
	}
	return d.start(ctx)
}

func (d *dispatcher) restart(ctx context.Context) int {
	d.mutate(ctx, "restart", d.mgr.Restart)
	d.notifier.Send(ctx, "Dictation restarted", "", notify.UrgencyNormal)
	d.emit(ctx)
	return 0
}

// health runs the stuck-state recovery check and reports what it did.
func (d *dispatcher) health(ctx context.Context) int {
	_, message := d.engine.CheckStuck(ctx)
	fmt.Fprintln(d.stdout, message)
	d.emit(ctx)
	return 0
}

// mutate issues one service-manager job, invalidates cached unit state, and
// wakes any running watcher so the bar updates without waiting a full tick.
func (d *dispatcher) mutate(ctx context.Context, verb string, job func(context.Context, string) error) {
	unit := d.cfg.Service.Unit
	if err := job(ctx, unit); err != nil {
		fmt.Fprintf(d.stderr, "warning: %s %s: %v\n", verb, unit, err)
		d.logger.Error().Err(err).Str("unit", unit).Str("verb", verb).Msg("service mutation failed")
	}
	d.probes.InvalidateService()
	d.pokeWatcher(ctx)
}

// microphoneReachable is the start precondition: the audio probe must report
// a definite positive.
func (d *dispatcher) microphoneReachable(ctx context.Context) bool {
	return d.probes.Audio(ctx).Up()
}

// emit resolves once and writes one wire message, unconditionally.
func (d *dispatcher) emit(ctx context.Context) {
	status := d.engine.Resolve(ctx)
	if err := waybar.FromStatus(status).Encode(d.stdout); err != nil {
		fmt.Fprintf(d.stderr, "error: %v\n", err)
	}
}

// pokeWatcher sends a best-effort recheck to a running watcher. Absence of a
// watcher is the normal case and ignored.
func (d *dispatcher) pokeWatcher(ctx context.Context) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return
	}
	if _, err := ipc.Send(ctx, socketPath, ipc.Request{Command: ipc.CommandRecheck}, 150*time.Millisecond); err != nil {
		if !ipc.IsSocketMissing(err) && !ipc.IsConnectionRefused(err) {
			d.logger.Debug().Err(err).Msg("watcher recheck failed")
		}
	}
}
