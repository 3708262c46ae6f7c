package ux

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/platform"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a recovery hint. Coded errors already carry their own
// suggestions and are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var fe *errors.FidelidadeError
	if stderrors.As(err, &fe) && len(fe.Suggestions) > 0 {
		return err
	}

	var he *platform.HTTPError
	if stderrors.As(err, &he) {
		switch {
		case he.IsAuthFailure():
			return NewErrorWithSuggestion(err,
				"The session was cleared. Run 'fidelidade auth login' again")
		case he.Status == http.StatusForbidden:
			return NewErrorWithSuggestion(err,
				"Your role cannot perform this action. Check it with 'fidelidade auth whoami'")
		case he.Status == http.StatusNotFound:
			return NewErrorWithSuggestion(err,
				"Check the id or CPF and that api_base points to the right server")
		case he.Status >= 500:
			return NewErrorWithSuggestion(err,
				"The server failed. Try again later or run 'fidelidade doctor'")
		}
		return err
	}

	var ne *platform.NetworkError
	if stderrors.As(err, &ne) {
		return NewErrorWithSuggestion(err,
			"Check api_base with 'fidelidade config get api_base' and run 'fidelidade doctor'")
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "no such file or directory") {
		if strings.Contains(errMsg, "config.yaml") {
			return NewErrorWithSuggestion(err,
				"Create a configuration with 'fidelidade config set api_base <url>'")
		}
		if strings.Contains(errMsg, ".xlsx") {
			return NewErrorWithSuggestion(err,
				"Check the output directory passed with --output")
		}
	}

	if strings.Contains(errMsg, "file exists") {
		return NewErrorWithSuggestion(err,
			"Pass --overwrite to replace the existing file")
	}

	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check permissions on the fidelidade home directory (FIDELIDADE_HOME)")
	}

	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no route to host") {
		return NewErrorWithSuggestion(err,
			"Check your network connection and firewall settings")
	}

	if strings.Contains(errMsg, "redis") {
		return NewErrorWithSuggestion(err,
			"Check redis.addr or switch to the file backend: fidelidade config set session.backend file")
	}

	return err
}
