package content

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError means the request never got a response: the CMS was
// unreachable, the connection broke, or the per-request timeout elapsed.
type TransportError struct {
	Method  string
	URL     string
	Err     error
	timeout bool
	limit   int64 // timeout in milliseconds, for the user-facing message
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cms transport %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the request failed because its deadline elapsed.
func (e *TransportError) Timeout() bool { return e.timeout }

// ServerError means the CMS answered with a non-success status.
type ServerError struct {
	Method  string
	URL     string
	Status  int
	Message string // error.message from the payload, or the status text
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("cms %s %s: status %d: %s", e.Method, e.URL, e.Status, e.Message)
}

// NotFoundError means a single record does not exist.
type NotFoundError struct {
	Resource Resource
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cms: %s %q not found", e.Resource, e.ID)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// UserMessage returns the text shown to visitors for a failed CMS call:
// the server's own message when there is one, a transport description
// otherwise, and a generic fallback last.
func UserMessage(err error) string {
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	var te *TransportError
	if errors.As(err, &te) {
		if te.timeout {
			return fmt.Sprintf("timeout of %dms exceeded", te.limit)
		}
		return "Network Error"
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return http.StatusText(http.StatusNotFound)
	}
	return "An error occurred"
}
