package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rgould/whisprbar/internal/config"
	"github.com/rgould/whisprbar/internal/sysd"
)

type fakeManager struct {
	mu       sync.Mutex
	statuses map[string]sysd.UnitStatus
	err      error
	restarts []string
}

func (m *fakeManager) UnitStatus(_ context.Context, unit string) (sysd.UnitStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return sysd.UnitStatus{}, m.err
	}
	return m.statuses[unit], nil
}

func (m *fakeManager) Start(context.Context, string) error { return m.err }
func (m *fakeManager) Stop(context.Context, string) error  { return m.err }
func (m *fakeManager) Restart(_ context.Context, unit string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restarts = append(m.restarts, unit)
	return m.err
}
func (m *fakeManager) Close() {}

type fakeAudio struct {
	count int
	err   error
}

func (a fakeAudio) CountInputs(context.Context) (int, error) { return a.count, a.err }

func newTestSet(t *testing.T, mgr sysd.Manager, now func() time.Time) (*Set, config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Marker.Path = filepath.Join(t.TempDir(), "recording")
	set := NewSet(cfg, mgr, nil, zerolog.Nop(), now)
	return set, cfg
}

func TestServiceActiveMapsUnitState(t *testing.T) {
	mgr := &fakeManager{statuses: map[string]sysd.UnitStatus{
		"whisprd.service": {ActiveState: "active", SubState: "running"},
	}}
	set, _ := newTestSet(t, mgr, nil)

	result := set.ServiceActive(context.Background())
	require.True(t, result.Up())
}

func TestServiceActiveReportsInactiveDetail(t *testing.T) {
	mgr := &fakeManager{statuses: map[string]sysd.UnitStatus{
		"whisprd.service": {ActiveState: "inactive"},
	}}
	set, _ := newTestSet(t, mgr, nil)

	result := set.ServiceActive(context.Background())
	require.True(t, result.Known)
	require.False(t, result.OK)
	require.Contains(t, result.Detail, "inactive")
}

func TestServiceActiveUnknownOnManagerError(t *testing.T) {
	mgr := &fakeManager{err: errors.New("dbus gone")}
	set, _ := newTestSet(t, mgr, nil)

	result := set.ServiceActive(context.Background())
	require.False(t, result.Known)
}

func TestServiceFailureCarriesDiagnostics(t *testing.T) {
	mgr := &fakeManager{statuses: map[string]sysd.UnitStatus{
		"whisprd.service": {ActiveState: "failed", Result: "exit-code", ExitCode: 1},
	}}
	set, _ := newTestSet(t, mgr, nil)

	info := set.ServiceFailure(context.Background())
	require.True(t, info.Failed)
	require.Equal(t, "exit-code", info.Result)
	require.Equal(t, 1, info.ExitCode)
}

func TestServiceFailureEmptyWhenMerelyInactive(t *testing.T) {
	mgr := &fakeManager{statuses: map[string]sysd.UnitStatus{
		"whisprd.service": {ActiveState: "inactive"},
	}}
	set, _ := newTestSet(t, mgr, nil)

	require.False(t, set.ServiceFailure(context.Background()).Failed)
}

func TestInvalidateServiceForcesFreshRead(t *testing.T) {
	mgr := &fakeManager{statuses: map[string]sysd.UnitStatus{
		"whisprd.service": {ActiveState: "inactive"},
	}}
	set, _ := newTestSet(t, mgr, nil)

	require.False(t, set.ServiceActive(context.Background()).Up())

	mgr.mu.Lock()
	mgr.statuses["whisprd.service"] = sysd.UnitStatus{ActiveState: "active"}
	mgr.mu.Unlock()

	// Cached read still sees the old state until invalidated.
	require.False(t, set.ServiceActive(context.Background()).Up())
	set.InvalidateService()
	require.True(t, set.ServiceActive(context.Background()).Up())
}

func TestHelperActiveButUnresponsiveIsDown(t *testing.T) {
	t.Setenv("YDOTOOL_SOCKET", filepath.Join(t.TempDir(), "absent.sock"))
	mgr := &fakeManager{statuses: map[string]sysd.UnitStatus{
		"ydotoold.service": {ActiveState: "active"},
	}}
	set, _ := newTestSet(t, mgr, nil)

	result := set.Helper(context.Background())
	require.True(t, result.Known)
	require.False(t, result.OK)
	require.Contains(t, result.Detail, "socket")
}

func TestHelperInactiveUnit(t *testing.T) {
	mgr := &fakeManager{statuses: map[string]sysd.UnitStatus{
		"ydotoold.service": {ActiveState: "inactive"},
	}}
	set, _ := newTestSet(t, mgr, nil)

	result := set.Helper(context.Background())
	require.True(t, result.Known)
	require.False(t, result.OK)
}

func TestModelUnconfiguredPasses(t *testing.T) {
	set, _ := newTestSet(t, &fakeManager{}, nil)
	require.True(t, set.Model().Up())
}

func TestModelMissingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Path = filepath.Join(t.TempDir(), "ggml-base.bin")
	cfg.Marker.Path = filepath.Join(t.TempDir(), "recording")
	set := NewSet(cfg, &fakeManager{}, nil, zerolog.Nop(), nil)

	result := set.Model()
	require.True(t, result.Known)
	require.False(t, result.OK)
}

func TestModelPresentFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ggml-base.bin")
	require.NoError(t, os.WriteFile(path, []byte("weights"), 0o600))

	cfg := config.Default()
	cfg.Model.Path = path
	cfg.Marker.Path = filepath.Join(dir, "recording")
	set := NewSet(cfg, &fakeManager{}, nil, zerolog.Nop(), nil)

	require.True(t, set.Model().Up())
}

func newAudioSet(t *testing.T, src fakeAudio) *Set {
	t.Helper()
	cfg := config.Default()
	cfg.Marker.Path = filepath.Join(t.TempDir(), "recording")
	return NewSet(cfg, &fakeManager{}, src, zerolog.Nop(), nil)
}

func TestAudioUpWithInputSources(t *testing.T) {
	set := newAudioSet(t, fakeAudio{count: 2})

	result := set.Audio(context.Background())
	require.True(t, result.Up())
	require.Contains(t, result.Detail, "2 input source(s)")
}

func TestAudioDownWithoutInputSources(t *testing.T) {
	set := newAudioSet(t, fakeAudio{count: 0})

	result := set.Audio(context.Background())
	require.True(t, result.Known)
	require.False(t, result.OK)
}

func TestAudioUnknownOnServerError(t *testing.T) {
	set := newAudioSet(t, fakeAudio{err: errors.New("connection refused")})

	result := set.Audio(context.Background())
	require.False(t, result.Known)
}
