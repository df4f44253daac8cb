package probe

import "errors"

// ErrNoResponse is the fault recorded when a connection succeeded but no
// bytes arrived before the deadline or the peer closed the connection.
var ErrNoResponse = errors.New("no response data")

// Result is the outcome of one probe: either response text or a fault.
type Result struct {
	// Text is the decoded response, at most the prober's read limit in bytes
	// before decoding. Empty when Fault is set.
	Text string

	// Fault explains why no response is available. Nil on success.
	Fault error
}

// Present reports whether the probe produced response text.
func (r Result) Present() bool {
	return r.Fault == nil
}

// absent builds a Result that carries only a fault.
func absent(fault error) Result {
	if fault == nil {
		fault = ErrNoResponse
	}
	return Result{Fault: fault}
}
