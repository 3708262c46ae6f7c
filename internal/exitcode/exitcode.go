package exitcode

import (
	stderrors "errors"
	"net/http"
	"os"
	"strings"

	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/platform"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates an invalid or unreadable configuration
	ConfigError = 3

	// Forbidden indicates the session lacks the role for the operation
	Forbidden = 4

	// AuthError indicates a missing, expired or rejected session
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// Interrupted indicates the user cancelled with Ctrl+C
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Typed errors are checked first; the message heuristics only cover errors
// raised outside this module, such as cobra's flag parsing.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var fe *errors.FidelidadeError
	if stderrors.As(err, &fe) {
		if code, ok := fromCode(fe.Code); ok {
			return code
		}
	}

	var he *platform.HTTPError
	if stderrors.As(err, &he) {
		switch {
		case he.IsAuthFailure():
			return AuthError
		case he.Status == http.StatusForbidden:
			return Forbidden
		}
		return GeneralError
	}

	var ne *platform.NetworkError
	if stderrors.As(err, &ne) {
		return NetworkError
	}

	errMsg := strings.ToLower(err.Error())

	// Authentication errors
	if strings.Contains(errMsg, "unauthorized") || strings.Contains(errMsg, "not logged in") {
		return AuthError
	}

	// Network errors
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host") {
		return NetworkError
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}

	// Usage errors
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts") && strings.Contains(errMsg, "arg(s)") {
		return UsageError
	}

	// Default to general error
	return GeneralError
}

func fromCode(code errors.ErrorCode) (int, bool) {
	switch code {
	case errors.ErrCodeAuthForbidden:
		return Forbidden, true
	case errors.ErrCodeAPIUnreachable:
		return NetworkError, true
	}

	switch prefix, _, _ := strings.Cut(string(code), "-"); prefix {
	case "AUTH":
		return AuthError, true
	case "CONFIG":
		return ConfigError, true
	case "INPUT":
		return UsageError, true
	}
	return 0, false
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ConfigError:
		return "Configuration error"
	case Forbidden:
		return "Access denied"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
