package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rgould/whisprbar/internal/probe"
)

func healthySnapshot() Snapshot {
	return Snapshot{
		ServiceActive: probe.Yes("unit active"),
		Recording:     probe.No("no marker"),
		Helper:        probe.Yes("responsive"),
		Audio:         probe.Yes("1 input source(s)"),
		Model:         probe.Yes("default model"),
	}
}

func TestResolveReady(t *testing.T) {
	status := Resolve(healthySnapshot())
	require.Equal(t, StateReady, status.State)
	require.Empty(t, status.Reason)
	require.True(t, status.MicPresent)
}

func TestResolveInactiveServiceDominatesEverything(t *testing.T) {
	// Service liveness must win regardless of every other probe combination.
	for _, recording := range []probe.Result{probe.Yes(""), probe.No(""), probe.Unknown("")} {
		for _, helper := range []probe.Result{probe.Yes(""), probe.No(""), probe.Unknown("")} {
			for _, audio := range []probe.Result{probe.Yes(""), probe.No(""), probe.Unknown("")} {
				for _, model := range []probe.Result{probe.Yes(""), probe.No(""), probe.Unknown("")} {
					snap := Snapshot{
						ServiceActive: probe.No("unit inactive"),
						Recording:     recording,
						Helper:        helper,
						Audio:         audio,
						Model:         model,
					}
					status := Resolve(snap)
					require.Equal(t, StateError, status.State)
					require.Equal(t, ReasonServiceInactive, status.Reason)
				}
			}
		}
	}
}

func TestResolveFailedServiceCarriesDetail(t *testing.T) {
	snap := healthySnapshot()
	snap.ServiceActive = probe.No("unit failed")
	snap.Failure = probe.FailureInfo{Failed: true, Result: "exit-code", ExitCode: 1}

	status := Resolve(snap)
	require.Equal(t, StateError, status.State)
	require.Equal(t, "service_failed:exit-code:1", status.Reason)
}

func TestResolveDistinguishesFailedFromInactive(t *testing.T) {
	snap := healthySnapshot()
	snap.ServiceActive = probe.No("unit inactive")
	snap.Failure = probe.FailureInfo{}

	require.Equal(t, ReasonServiceInactive, Resolve(snap).Reason)
}

func TestResolveUnknownServiceStateIsConservative(t *testing.T) {
	snap := healthySnapshot()
	snap.ServiceActive = probe.Unknown("dbus gone")

	status := Resolve(snap)
	require.Equal(t, StateError, status.State)
	require.Equal(t, ReasonServiceInactive, status.Reason)
}

func TestResolveRecordingPreemptsDependencyHealth(t *testing.T) {
	// Active recording wins even when every dependency probe is down.
	snap := Snapshot{
		ServiceActive: probe.Yes("unit active"),
		Recording:     probe.Yes("recording"),
		Helper:        probe.No("socket unresponsive"),
		Audio:         probe.No("no input sources"),
		Model:         probe.No("model file missing"),
	}

	status := Resolve(snap)
	require.Equal(t, StateRecording, status.State)
	require.Empty(t, status.Reason)
}

func TestResolveDependencyPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
		want   string
	}{
		{"helper down", func(s *Snapshot) { s.Helper = probe.No("") }, ReasonHelperDown},
		{"helper unknown", func(s *Snapshot) { s.Helper = probe.Unknown("") }, ReasonHelperDown},
		{"audio down", func(s *Snapshot) { s.Audio = probe.No("") }, ReasonAudioDown},
		{"audio unknown", func(s *Snapshot) { s.Audio = probe.Unknown("") }, ReasonAudioDown},
		{"model missing", func(s *Snapshot) { s.Model = probe.No("") }, ReasonModelMissing},
		{"helper beats audio", func(s *Snapshot) { s.Helper = probe.No(""); s.Audio = probe.No("") }, ReasonHelperDown},
		{"audio beats model", func(s *Snapshot) { s.Audio = probe.No(""); s.Model = probe.No("") }, ReasonAudioDown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := healthySnapshot()
			tc.mutate(&snap)

			status := Resolve(snap)
			require.Equal(t, StateError, status.State)
			require.Equal(t, tc.want, status.Reason)
		})
	}
}

func TestResolveReasonPresentOnlyOnError(t *testing.T) {
	for _, snap := range []Snapshot{healthySnapshot(), func() Snapshot {
		s := healthySnapshot()
		s.Recording = probe.Yes("recording")
		return s
	}()} {
		status := Resolve(snap)
		require.NotEqual(t, StateError, status.State)
		require.Empty(t, status.Reason)
	}
}

func TestFailureReason(t *testing.T) {
	require.Equal(t, "service_failed:signal:9",
		FailureReason(probe.FailureInfo{Failed: true, Result: "signal", ExitCode: 9}))
	require.Equal(t, "service_failed:unknown:0",
		FailureReason(probe.FailureInfo{Failed: true}))
}

func TestIsServiceFailure(t *testing.T) {
	require.True(t, IsServiceFailure("service_failed:exit-code:1"))
	require.True(t, IsServiceFailure("service_failed"))
	require.False(t, IsServiceFailure(ReasonServiceInactive))
	require.False(t, IsServiceFailure("service_failedish"))
}
