package platform

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/casadocigano/fidelidade/internal/errors"
)

// ErrInvalidPath is returned when a request path does not start with "/".
// No request is sent.
var ErrInvalidPath = errors.New(errors.ErrCodeAPIInvalidPath, "request path must start with /")

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Method string
	Path   string
	Status int
	// Message is the backend's "error" (or "message") field, empty when absent.
	Message string
	Body    []byte
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// MessageOr returns the backend message, or fallback when the backend sent none.
func (e *HTTPError) MessageOr(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

// IsAuthFailure reports whether the status signals an invalid or expired session.
func (e *HTTPError) IsAuthFailure() bool {
	return isAuthStatus(e.Status)
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusUnprocessableEntity
}

// errorBody is the error envelope used by the backend.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newHTTPError(method, path string, status int, body []byte) *HTTPError {
	e := &HTTPError{Method: method, Path: path, Status: status, Body: body}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case eb.Error != "":
			e.Message = eb.Error
		case eb.Message != "":
			e.Message = eb.Message
		}
	}
	return e
}

// NetworkError is returned when no response was received.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsAuthFailure reports whether err is a 401 or 422 response.
func IsAuthFailure(err error) bool {
	var he *HTTPError
	return stderrors.As(err, &he) && he.IsAuthFailure()
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var he *HTTPError
	if stderrors.As(err, &he) {
		return he.Status
	}
	return 0
}

// Message returns a human readable message for err.
//
// Backend messages win. Otherwise fallback is used, which lets each view
// keep its own generic wording such as "Falha no login".
func Message(err error, fallback string) string {
	var he *HTTPError
	if stderrors.As(err, &he) {
		return he.MessageOr(fallback)
	}
	if fallback != "" {
		return fallback
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
