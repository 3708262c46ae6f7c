package exitcode

import (
	"errors"
	"fmt"
	"testing"

	ferrors "github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/platform"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"Success", Success, 0},
		{"GeneralError", GeneralError, 1},
		{"UsageError", UsageError, 2},
		{"ConfigError", ConfigError, 3},
		{"Forbidden", Forbidden, 4},
		{"AuthError", AuthError, 5},
		{"NetworkError", NetworkError, 6},
		{"Interrupted", Interrupted, 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.expected {
				t.Errorf("Exit code %s = %d, want %d", tt.name, tt.code, tt.expected)
			}
		})
	}
}

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			expected: Success,
		},
		{
			name:     "not logged in",
			err:      ferrors.NewNotLoggedInError(),
			expected: AuthError,
		},
		{
			name:     "session expired",
			err:      ferrors.NewSessionExpiredError(401),
			expected: AuthError,
		},
		{
			name:     "admin area denied",
			err:      ferrors.NewForbiddenError("admin"),
			expected: Forbidden,
		},
		{
			name:     "wrapped coded error",
			err:      fmt.Errorf("users list: %w", ferrors.NewForbiddenError("admin")),
			expected: Forbidden,
		},
		{
			name:     "invalid config",
			err:      ferrors.New(ferrors.ErrCodeConfigInvalid, "api_base must be an http(s) URL"),
			expected: ConfigError,
		},
		{
			name:     "missing flag",
			err:      ferrors.NewRequiredFlagError("cpf"),
			expected: UsageError,
		},
		{
			name:     "api unreachable",
			err:      ferrors.NewAPIUnreachableError("http://127.0.0.1:5000", errors.New("refused")),
			expected: NetworkError,
		},
		{
			name:     "file write failure falls through",
			err:      ferrors.New(ferrors.ErrCodeFileWriteFailed, "x.xlsx already exists"),
			expected: GeneralError,
		},
		{
			name:     "401 response",
			err:      &platform.HTTPError{Method: "GET", Path: "/api/clientes", Status: 401},
			expected: AuthError,
		},
		{
			name:     "422 response",
			err:      &platform.HTTPError{Method: "GET", Path: "/api/clientes", Status: 422},
			expected: AuthError,
		},
		{
			name:     "403 response",
			err:      &platform.HTTPError{Method: "GET", Path: "/api/admin/users", Status: 403},
			expected: Forbidden,
		},
		{
			name:     "400 response",
			err:      &platform.HTTPError{Method: "POST", Path: "/api/visitas", Status: 400, Message: "CPF inválido"},
			expected: GeneralError,
		},
		{
			name:     "network error",
			err:      &platform.NetworkError{Method: "GET", URL: "http://x", Err: errors.New("dial tcp")},
			expected: NetworkError,
		},
		{
			name:     "connection refused text",
			err:      errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"),
			expected: NetworkError,
		},
		{
			name:     "timeout text",
			err:      errors.New("request timeout"),
			expected: NetworkError,
		},
		{
			name:     "unknown flag",
			err:      errors.New("unknown flag: --foo"),
			expected: UsageError,
		},
		{
			name:     "unknown command",
			err:      errors.New(`unknown command "frob" for "fidelidade"`),
			expected: UsageError,
		},
		{
			name:     "wrong arg count",
			err:      errors.New("accepts 1 arg(s), received 0"),
			expected: UsageError,
		},
		{
			name:     "generic error",
			err:      errors.New("something went wrong"),
			expected: GeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.expected {
				t.Errorf("DetermineExitCode(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{GeneralError, "General error"},
		{UsageError, "Usage error (invalid flags or arguments)"},
		{ConfigError, "Configuration error"},
		{Forbidden, "Access denied"},
		{AuthError, "Authentication error"},
		{NetworkError, "Network error"},
		{Interrupted, "Interrupted"},
		{99, "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := GetExitCodeDescription(tt.code); got != tt.expected {
				t.Errorf("GetExitCodeDescription(%d) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}
