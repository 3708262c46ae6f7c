package auth

import (
	"github.com/casadocigano/fidelidade/internal/errors"
)

func wrapSaveError(msg string, cause error) *errors.FidelidadeError {
	return errors.Wrap(errors.ErrCodeSessionSave, msg, cause).
		WithSuggestion("Check permissions of the session directory (fidelidade config get session.dir)")
}

func wrapClearError(msg string, cause error) *errors.FidelidadeError {
	return errors.Wrap(errors.ErrCodeSessionClear, msg, cause)
}

func wrapBackendError(msg string, cause error) *errors.FidelidadeError {
	return errors.Wrap(errors.ErrCodeSessionBackend, msg, cause)
}
