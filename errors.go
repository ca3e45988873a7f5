package leadcapture

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by SendLead. Use errors.Is to test for them.
var (
	// ErrNotConfigured matches every *ConfigurationError.
	ErrNotConfigured = errors.New("leadcapture: not configured")

	// ErrUnauthorized is returned when the lead capture server answers 404.
	// The server reports rejected tokens that way.
	ErrUnauthorized = errors.New("leadcapture: unauthorized operation")

	// ErrConnection matches every *ConnectionError.
	ErrConnection = errors.New("leadcapture: unable to open lead capture server connection")

	// ErrServer matches every *ServerError.
	ErrServer = errors.New("leadcapture: lead capture server error")

	// ErrInvalidLead is returned when a record cannot be encoded into a valid envelope.
	ErrInvalidLead = errors.New("leadcapture: invalid lead")
)

// ConfigurationError reports a missing setting. It is not retryable.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	return "leadcapture: " + e.Message
}

// Is makes errors.Is(err, ErrNotConfigured) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrNotConfigured
}

// ConnectionError wraps a transport failure: the request never got a response.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return ErrConnection.Error() + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConnection) match.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// ServerError reports a response that is neither 2xx nor 404. Message is the
// raw response body when the server sent one.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("leadcapture: lead capture server error (status %d): %s", e.StatusCode, e.Message)
}

// Is makes errors.Is(err, ErrServer) match.
func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}
