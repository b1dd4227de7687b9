package audio

import "context"

// Source answers capture-input discovery queries. The live implementation
// talks to the Pulse server; fakes substitute deterministic answers.
type Source interface {
	CountInputs(ctx context.Context) (int, error)
}

// PulseSource is the live Pulse-backed Source.
type PulseSource struct{}

func (PulseSource) CountInputs(ctx context.Context) (int, error) {
	return CountInputs(ctx)
}
