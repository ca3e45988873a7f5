package transport

import (
	"errors"
	"net"
)

// ConnectionError reports that a POST could not be completed: DNS failure,
// refused connection, timeout, or an I/O error during transfer.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return "transport: post " + e.Endpoint + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a timeout.
func (e *ConnectionError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
