package sysd

import "context"

// Unavailable returns a Manager whose calls all fail with err. It keeps
// resolution alive when the user manager cannot be reached: probes degrade to
// unknown outcomes instead of the process aborting.
func Unavailable(err error) Manager {
	return unavailable{err: err}
}

type unavailable struct {
	err error
}

func (u unavailable) UnitStatus(context.Context, string) (UnitStatus, error) {
	return UnitStatus{}, u.err
}

func (u unavailable) Start(context.Context, string) error   { return u.err }
func (u unavailable) Stop(context.Context, string) error    { return u.err }
func (u unavailable) Restart(context.Context, string) error { return u.err }
func (u unavailable) Close()                                {}
