package bus

import "errors"

// ErrStopped is returned by publish when Stop has already been called.
var ErrStopped = errors.New("bus: stopped")
