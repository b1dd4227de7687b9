// Package probe implements bounded health checks against the OS and service layer.
//
// Probes never return errors to the resolver: timeouts, missing binaries, and
// permission failures all normalize to an explicit unknown outcome.
package probe

import (
	"errors"
	"time"
)

// Result is one probe outcome. Known is false when the signal could not be
// observed at all; callers must treat unknown conservatively.
type Result struct {
	OK     bool
	Known  bool
	Detail string
}

// Up reports a definite positive outcome.
func (r Result) Up() bool {
	return r.Known && r.OK
}

// Yes builds a definite positive result.
func Yes(detail string) Result {
	return Result{OK: true, Known: true, Detail: detail}
}

// No builds a definite negative result.
func No(detail string) Result {
	return Result{OK: false, Known: true, Detail: detail}
}

// Unknown builds an unobservable-signal result.
func Unknown(detail string) Result {
	return Result{Detail: detail}
}

// FailureInfo carries terminal-failure diagnostics for the dictation unit.
type FailureInfo struct {
	Failed   bool
	Result   string
	ExitCode int
}

var errTimeout = errors.New("probe timed out")

// withinTimeout enforces a hard upper bound on an external call that has no
// context support of its own. The call's goroutine is abandoned on timeout;
// its buffered channel lets it finish without leaking a blocked send.
func withinTimeout[T any](timeout time.Duration, fn func() (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := fn()
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-time.After(timeout):
		var zero T
		return zero, errTimeout
	}
}
