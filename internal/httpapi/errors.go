package httpapi

import (
	"fmt"

	"github.com/pkg/errors"
)

// StatusError is returned for any non-2xx response. Message carries the
// server-supplied `error` body field when the body parsed as JSON; when the
// server sent nothing usable, Error falls back to a message synthesized from
// the status line.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
}

// HasServerMessage reports whether the server supplied its own error text.
func (e *StatusError) HasServerMessage() bool {
	return e.Message != ""
}

// AsStatusError unwraps a *StatusError from err if one is present.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
