package aqi

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a 2xx body is not a usable reading.
var ErrMalformedResponse = errors.New("malformed response")

// HTTPError is a non-2xx answer from the backend.
type HTTPError struct {
	StatusCode int
	// Message is the body's "error" field, or a generic status message.
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NetworkError wraps a transport failure (DNS, refused connection, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func statusMessage(code int) string {
	return fmt.Sprintf("HTTP error, status %d", code)
}
