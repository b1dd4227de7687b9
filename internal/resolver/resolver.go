// Package resolver turns a snapshot of probe results into one authoritative status.
package resolver

import (
	"fmt"

	"github.com/rgould/whisprbar/internal/probe"
)

// State is the closed set of resolved states.
type State string

const (
	StateRecording State = "recording"
	StateReady     State = "ready"
	StateError     State = "error"
)

// Reason codes carried when State is StateError.
const (
	ReasonServiceInactive = "service_inactive"
	ReasonHelperDown      = "ydotoold"
	ReasonAudioDown       = "pipewire_down"
	ReasonModelMissing    = "model_missing"
	ReasonUnknown         = "unknown"

	reasonServiceFailedPrefix = "service_failed"
)

// FailureReason encodes terminal-failure detail into a reason code.
func FailureReason(info probe.FailureInfo) string {
	result := info.Result
	if result == "" {
		result = "unknown"
	}
	return fmt.Sprintf("%s:%s:%d", reasonServiceFailedPrefix, result, info.ExitCode)
}

// IsServiceFailure reports whether a reason carries crash detail.
func IsServiceFailure(reason string) bool {
	return reason == reasonServiceFailedPrefix ||
		len(reason) > len(reasonServiceFailedPrefix) && reason[:len(reasonServiceFailedPrefix)+1] == reasonServiceFailedPrefix+":"
}

// Status is the resolved output view. It is recomputed on every cycle and
// never persisted. Reason is non-empty exactly when State is StateError.
type Status struct {
	State      State
	Reason     string
	Detail     string
	MicPresent bool
}

// Snapshot is one coherent read of all probes.
type Snapshot struct {
	ServiceActive probe.Result
	Failure       probe.FailureInfo
	Recording     probe.Result
	Helper        probe.Result
	Audio         probe.Result
	Model         probe.Result
}

// Resolve applies the priority policy: service liveness dominates, active
// recording preempts dependency health, and all three dependencies must pass
// for ready. Unknown outcomes resolve down the conservative branch, so a
// service that cannot be observed never renders ready.
func Resolve(snap Snapshot) Status {
	mic := snap.Audio.Up()

	if !snap.ServiceActive.Up() {
		if snap.Failure.Failed {
			return Status{
				State:      StateError,
				Reason:     FailureReason(snap.Failure),
				Detail:     snap.ServiceActive.Detail,
				MicPresent: mic,
			}
		}
		return Status{
			State:      StateError,
			Reason:     ReasonServiceInactive,
			Detail:     snap.ServiceActive.Detail,
			MicPresent: mic,
		}
	}

	if snap.Recording.Up() {
		return Status{State: StateRecording, MicPresent: mic}
	}

	if !snap.Helper.Up() {
		return Status{State: StateError, Reason: ReasonHelperDown, Detail: snap.Helper.Detail, MicPresent: mic}
	}
	if !snap.Audio.Up() {
		return Status{State: StateError, Reason: ReasonAudioDown, Detail: snap.Audio.Detail}
	}
	if !snap.Model.Up() {
		return Status{State: StateError, Reason: ReasonModelMissing, Detail: snap.Model.Detail, MicPresent: mic}
	}

	return Status{State: StateReady, MicPresent: true}
}
