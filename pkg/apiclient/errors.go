package apiclient

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthenticated marks a response that rejected the credential. The
	// auth-failure policy has already run when a caller sees it.
	ErrUnauthenticated = errors.New("apiclient: authentication required")
	// ErrMalformedResponse marks a 2xx response whose body could not be decoded.
	ErrMalformedResponse = errors.New("apiclient: malformed response")
)

// Error is an expected failure: a non-2xx response or a transport error.
// Message is the server's text when it sent one, else the operation's
// fallback. StatusCode is 0 for transport errors.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsForbidden reports whether err is a 403 response.
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}
