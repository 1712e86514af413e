package dispatch

import "fmt"

// The three fatal error classes. Everything else that goes wrong during a
// dispatch is downgraded to a per-device ResultRecord; only a malformed
// payload, an empty topology, or a pool that cannot be built abort the run
// as a whole.

// InputError reports a payload that could not be normalized into command
// batches. No device is attempted.
type InputError struct {
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input payload: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid input payload: %s", e.Reason)
}

func (e *InputError) Unwrap() error { return e.Err }

// TopologyError reports that the resolver produced nothing for the entire
// requested device set, or failed outright. The dispatch aborts before any
// session opens.
type TopologyError struct {
	Devices []string
	Err     error
}

func (e *TopologyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("topology resolution failed: %v", e.Err)
	}
	return fmt.Sprintf("none of the requested devices %v found in topology", e.Devices)
}

func (e *TopologyError) Unwrap() error { return e.Err }

// PoolInitError reports that the worker pool or host registry could not be
// constructed. Fatal because no per-device task has started yet.
type PoolInitError struct {
	Err error
}

func (e *PoolInitError) Error() string {
	return fmt.Sprintf("pool initialization failed: %v", e.Err)
}

func (e *PoolInitError) Unwrap() error { return e.Err }
