package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthNotLoggedIn    ErrorCode = "AUTH-001"
	ErrCodeAuthInvalidCreds   ErrorCode = "AUTH-002"
	ErrCodeAuthSessionExpired ErrorCode = "AUTH-003"
	ErrCodeAuthForbidden      ErrorCode = "AUTH-004"

	// API errors (API-001 to API-099)
	ErrCodeAPIRequest     ErrorCode = "API-001"
	ErrCodeAPIUnreachable ErrorCode = "API-002"
	ErrCodeAPIDecode      ErrorCode = "API-003"
	ErrCodeAPIInvalidPath ErrorCode = "API-004"

	// Session storage errors (SESSION-001 to SESSION-099)
	ErrCodeSessionSave    ErrorCode = "SESSION-001"
	ErrCodeSessionClear   ErrorCode = "SESSION-002"
	ErrCodeSessionBackend ErrorCode = "SESSION-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"
	ErrCodeConfigKey     ErrorCode = "CONFIG-003"

	// Input errors (INPUT-001 to INPUT-099)
	ErrCodeInputRequired ErrorCode = "INPUT-001"
	ErrCodeInputInvalid  ErrorCode = "INPUT-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
	ErrCodeSpreadsheet     ErrorCode = "IO-005"
)

// FidelidadeError represents an enhanced error with code, suggestions, and documentation
type FidelidadeError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *FidelidadeError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FidelidadeError) Unwrap() error {
	return e.Cause
}

// IsAuth reports whether the error belongs to the AUTH category
func (e *FidelidadeError) IsAuth() bool {
	return strings.HasPrefix(string(e.Code), "AUTH-")
}

// New creates a new FidelidadeError
func New(code ErrorCode, message string) *FidelidadeError {
	return &FidelidadeError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new FidelidadeError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *FidelidadeError {
	return &FidelidadeError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *FidelidadeError) WithSuggestion(suggestion string) *FidelidadeError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *FidelidadeError) WithSuggestions(suggestions ...string) *FidelidadeError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *FidelidadeError) WithDocs(url string) *FidelidadeError {
	e.DocsURL = url
	return e
}

// Common error constructors for frequently used errors

// NewNotLoggedInError is returned when a protected command runs without a session
func NewNotLoggedInError() *FidelidadeError {
	return New(ErrCodeAuthNotLoggedIn, "not logged in").
		WithSuggestion("Run 'fidelidade auth login' to start a session")
}

// NewSessionExpiredError is returned after the backend rejected the stored token
func NewSessionExpiredError(status int) *FidelidadeError {
	return New(ErrCodeAuthSessionExpired, fmt.Sprintf("session ended by the server (status %d)", status)).
		WithSuggestion("The local session was cleared").
		WithSuggestion("Run 'fidelidade auth login' again")
}

// NewForbiddenError is returned when the role-confirmation guard denies access
func NewForbiddenError(area string) *FidelidadeError {
	return New(ErrCodeAuthForbidden, fmt.Sprintf("access to %s requires the ADMIN role", area)).
		WithSuggestion("Ask an administrator to run this command")
}

// NewRequiredFlagError creates a missing flag error
func NewRequiredFlagError(flag string) *FidelidadeError {
	return New(ErrCodeInputRequired, fmt.Sprintf("required flag --%s not set", flag)).
		WithSuggestion(fmt.Sprintf("Pass --%s or run the command from a terminal to be prompted", flag))
}

// NewAPIUnreachableError creates a connectivity error for the configured backend
func NewAPIUnreachableError(baseURL string, cause error) *FidelidadeError {
	return Wrap(ErrCodeAPIUnreachable, fmt.Sprintf("cannot reach API at %s", baseURL), cause).
		WithSuggestion("Check the api_base setting with 'fidelidade config get api_base'").
		WithSuggestion("Run 'fidelidade doctor' to diagnose connectivity")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *FidelidadeError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *FidelidadeError {
	return Wrap(ErrCodeConfigInvalid, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
