package loop

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rgould/whisprbar/internal/config"
	"github.com/rgould/whisprbar/internal/ipc"
	"github.com/rgould/whisprbar/internal/resolver"
	"github.com/rgould/whisprbar/internal/waybar"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Marker.Path = filepath.Join(t.TempDir(), "recording")
	cfg.Poll.RecordingInterval = 5 * time.Millisecond
	cfg.Poll.IdleInterval = 20 * time.Millisecond
	return cfg
}

func runFor(t *testing.T, w *Watcher, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, w.Run(ctx))
}

func decodeLines(t *testing.T, raw string) []waybar.Message {
	t.Helper()
	var messages []waybar.Message
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		var msg waybar.Message
		require.NoError(t, json.Unmarshal([]byte(line), &msg))
		messages = append(messages, msg)
	}
	return messages
}

func TestRunEmitsOnceForUnchangingState(t *testing.T) {
	var buf bytes.Buffer
	resolve := func(context.Context) resolver.Status {
		return resolver.Status{State: resolver.StateReady}
	}

	w := New(testConfig(t), resolve, &buf, zerolog.Nop())
	runFor(t, w, 150*time.Millisecond)

	messages := decodeLines(t, buf.String())
	require.Len(t, messages, 1, "unchanged state must be emitted exactly once")
	require.Equal(t, "ready", messages[0].Class)
}

func TestRunEmitsEachTransition(t *testing.T) {
	var buf bytes.Buffer
	var calls atomic.Int64
	resolve := func(context.Context) resolver.Status {
		switch n := calls.Add(1); {
		case n <= 3:
			return resolver.Status{State: resolver.StateReady}
		case n <= 6:
			return resolver.Status{State: resolver.StateError, Reason: resolver.ReasonHelperDown}
		default:
			return resolver.Status{State: resolver.StateReady}
		}
	}

	w := New(testConfig(t), resolve, &buf, zerolog.Nop())
	runFor(t, w, 400*time.Millisecond)

	messages := decodeLines(t, buf.String())
	require.Len(t, messages, 3)
	require.Equal(t, "ready", messages[0].Class)
	require.Equal(t, "error ydotoold", messages[1].Class)
	require.Equal(t, "ready", messages[2].Class)
}

func TestRunReasonChangeAloneReemits(t *testing.T) {
	var buf bytes.Buffer
	var calls atomic.Int64
	resolve := func(context.Context) resolver.Status {
		if calls.Add(1) <= 2 {
			return resolver.Status{State: resolver.StateError, Reason: resolver.ReasonHelperDown}
		}
		return resolver.Status{State: resolver.StateError, Reason: resolver.ReasonAudioDown}
	}

	w := New(testConfig(t), resolve, &buf, zerolog.Nop())
	runFor(t, w, 200*time.Millisecond)

	messages := decodeLines(t, buf.String())
	require.Len(t, messages, 2)
	require.Equal(t, "error ydotoold", messages[0].Class)
	require.Equal(t, "error pipewire_down", messages[1].Class)
}

func TestRecordingCadenceIsFasterThanIdle(t *testing.T) {
	countIterations := func(state resolver.State) int64 {
		var calls atomic.Int64
		resolve := func(context.Context) resolver.Status {
			calls.Add(1)
			return resolver.Status{State: state}
		}
		cfg := testConfig(t)
		cfg.Poll.RecordingInterval = 5 * time.Millisecond
		cfg.Poll.IdleInterval = 50 * time.Millisecond

		w := New(cfg, resolve, &bytes.Buffer{}, zerolog.Nop())
		runFor(t, w, 300*time.Millisecond)
		return calls.Load()
	}

	recording := countIterations(resolver.StateRecording)
	idle := countIterations(resolver.StateReady)
	require.Greater(t, recording, idle,
		"recording cadence must iterate more often than idle over the same window")
}

func TestPokeWakesAheadOfTick(t *testing.T) {
	var calls atomic.Int64
	resolve := func(context.Context) resolver.Status {
		calls.Add(1)
		return resolver.Status{State: resolver.StateReady}
	}

	cfg := testConfig(t)
	cfg.Poll.IdleInterval = 10 * time.Second // effectively never ticks

	w := New(cfg, resolve, &bytes.Buffer{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)
	w.Poke()
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond,
		"poke must trigger a resolution without waiting for the idle tick")

	cancel()
	<-done
}

func TestHandleRecheckPokes(t *testing.T) {
	w := New(testConfig(t), func(context.Context) resolver.Status {
		return resolver.Status{State: resolver.StateReady}
	}, &bytes.Buffer{}, zerolog.Nop())

	resp := w.Handle(context.Background(), ipc.Request{Command: ipc.CommandRecheck})
	require.True(t, resp.OK)

	// The queued wake is consumed by the next Run iteration.
	select {
	case <-w.wake:
	default:
		t.Fatal("recheck did not queue a wake")
	}
}

func TestHandleStatusReportsLastEmitted(t *testing.T) {
	w := New(testConfig(t), func(context.Context) resolver.Status {
		return resolver.Status{State: resolver.StateRecording}
	}, &bytes.Buffer{}, zerolog.Nop())

	resp := w.Handle(context.Background(), ipc.Request{Command: ipc.CommandStatus})
	require.True(t, resp.OK)
	require.Empty(t, resp.State, "no state before the first emission")

	runFor(t, w, 50*time.Millisecond)

	resp = w.Handle(context.Background(), ipc.Request{Command: ipc.CommandStatus})
	require.True(t, resp.OK)
	require.Equal(t, "recording", resp.State)
}

func TestHandleUnknownCommand(t *testing.T) {
	w := New(testConfig(t), func(context.Context) resolver.Status {
		return resolver.Status{State: resolver.StateReady}
	}, &bytes.Buffer{}, zerolog.Nop())

	resp := w.Handle(context.Background(), ipc.Request{Command: "bogus"})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "unknown command")
}
