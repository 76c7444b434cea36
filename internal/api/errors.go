// internal/api/errors.go
//
// Error taxonomy for calls to the remote job-board API.
//
//   • *Error          – the server answered with a non-2xx status.  Message
//                       carries the body's "message" field when present.
//   • ErrUnavailable  – no usable response: dial failure, timeout, or an
//                       open circuit breaker.
//   • ErrBadResponse  – 2xx with a body we could not decode.
//
// Callers classify with errors.As / errors.Is and surface Message(err, …).

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnavailable = errors.New("api: service unavailable")
	ErrBadResponse = errors.New("api: malformed response")
)

// Error is a non-2xx answer from the API.
type Error struct {
	Op      string // logical operation, e.g. "login"
	Status  int
	Message string // server-supplied, may be empty
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s: %d %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

// Status returns the HTTP status carried by err, or 0 when err is not an
// *Error.
func Status(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// IsUnauthorized reports a 401 from the API.
func IsUnauthorized(err error) bool { return Status(err) == http.StatusUnauthorized }

// Message returns the server-supplied message in err, or fallback when err
// carries none (transport failures, empty bodies).
func Message(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) && strings.TrimSpace(ae.Message) != "" {
		return ae.Message
	}
	return fallback
}

// errorBody is the error envelope used by the API.  Some routes answer with
// "error" instead of "message".
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// newError builds an *Error from a non-2xx reply.
func newError(op string, status int, body []byte) *Error {
	e := &Error{Op: op, Status: status}
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		e.Message = eb.Message
		if e.Message == "" {
			e.Message = eb.Error
		}
	}
	return e
}
