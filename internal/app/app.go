// Package app wires parsed commands to probes, the resolver, and the watcher.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/rgould/whisprbar/internal/audio"
	"github.com/rgould/whisprbar/internal/cli"
	"github.com/rgould/whisprbar/internal/config"
	"github.com/rgould/whisprbar/internal/doctor"
	"github.com/rgould/whisprbar/internal/ipc"
	"github.com/rgould/whisprbar/internal/logging"
	"github.com/rgould/whisprbar/internal/loop"
	"github.com/rgould/whisprbar/internal/probe"
	"github.com/rgould/whisprbar/internal/resolver"
	"github.com/rgould/whisprbar/internal/sysd"
	"github.com/rgould/whisprbar/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer

	// Logger, Manager, and Audio override the runtime defaults in tests.
	Logger  *zerolog.Logger
	Manager sysd.Manager
	Audio   audio.Source
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("whisprbar"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("whisprbar"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logger, closeLog, err := r.resolveLogger(cfgLoaded.Config)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer closeLog()

	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn().Str("message", w.Message).Msg("config warning")
	}

	logger.Info().
		Str("command", string(parsed.Command)).
		Str("config", cfgLoaded.Path).
		Msg("command start")

	mgr := r.Manager
	if mgr == nil {
		mgr = connectManager(ctx, logger)
	}
	defer mgr.Close()

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded, mgr)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandWatch:
		return r.commandWatch(ctx, cfgLoaded.Config, mgr, logger)
	case cli.CommandStatus, cli.CommandStart, cli.CommandStop,
		cli.CommandToggle, cli.CommandRestart, cli.CommandHealth:
		d := newDispatcher(cfgLoaded.Config, mgr, r.audioSource(), logger, r.Stdout, r.Stderr)
		return d.run(ctx, parsed.Command)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// audioSource prefers an injected source, otherwise the live Pulse client.
func (r Runner) audioSource() audio.Source {
	if r.Audio != nil {
		return r.Audio
	}
	return audio.PulseSource{}
}

// resolveLogger prefers an injected logger, otherwise opens the JSONL runtime.
func (r Runner) resolveLogger(cfg config.Config) (zerolog.Logger, func(), error) {
	if r.Logger != nil {
		return *r.Logger, func() {}, nil
	}
	runtime, err := logging.New(cfg.Log.Level)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}
	return runtime.Logger, func() { _ = runtime.Close() }, nil
}

// connectManager opens the systemd user connection, degrading to an
// always-erroring manager so probes resolve to unknown instead of aborting.
func connectManager(ctx context.Context, logger zerolog.Logger) sysd.Manager {
	mgr, err := sysd.Connect(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("systemd user manager unreachable")
		return sysd.Unavailable(err)
	}
	return mgr
}

// commandWatch runs the continuous change-notification loop. Exactly one
// watcher owns the runtime socket at a time.
func (r Runner) commandWatch(ctx context.Context, cfg config.Config, mgr sysd.Manager, logger zerolog.Logger) int {
	probes := probe.NewSet(cfg, mgr, r.audioSource(), logger, nil)
	engine := resolver.NewEngine(cfg, probes, mgr, logger, nil)
	watcher := loop.New(cfg, engine.Resolve, r.Stdout, logger)

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		logger.Warn().Err(err).Msg("watcher socket unavailable; rechecks disabled")
		if runErr := watcher.Run(ctx); runErr != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
			return 1
		}
		return 0
	}

	listener, err := ipc.Acquire(ctx, socketPath, cfg.Probe.Timeout)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: another whisprbar watcher is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, watcher, logger)
	}()

	runErr := watcher.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		logger.Error().Err(serverErr).Msg("watcher ipc server failed")
	}
	if runErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	return 0
}
