package compiler

import (
	"context"
	"errors"
	"fmt"
)

// NetworkError is a transport failure or timeout talking to an endpoint
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Timeout() {
		return fmt.Sprintf("%s: request timed out", e.Endpoint)
	}

	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the attempt was aborted by its deadline
func (e *NetworkError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// ProtocolError is a non-2xx status or a response body we can't use
type ProtocolError struct {
	Endpoint   string
	StatusCode int
	Reason     string
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: responded with status %d", e.Endpoint, e.StatusCode)
	}

	return fmt.Sprintf("%s: %s", e.Endpoint, e.Reason)
}

// RemoteError is an error the primary API reported in its own error field
type RemoteError struct {
	Endpoint string
	Message  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}
