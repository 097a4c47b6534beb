package sessions

import (
	"errors"
	"fmt"

	schedulerRepo "gymbook/database/repository/scheduler"
	"gymbook/services/recurrence"
)

const (
	CodeNotFound           = "notFound"
	CodeInvalidInput       = "invalidInput"
	CodeInvalidTransition  = "invalidTransition"
	CodeUnsupportedPattern = "unsupportedPattern"
	CodeTooManyOccurrences = "tooManyOccurrences"
)

// SessionError is returned for failures the caller can act on.
type SessionError struct {
	Code    string
	Message string
	Err     error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SessionError) Unwrap() error { return e.Err }

func newSessionError(code, msg string, err error) error {
	return &SessionError{Code: code, Message: msg, Err: err}
}

// classify maps repository and recurrence errors to SessionError; anything
// else is returned wrapped with op.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, schedulerRepo.ErrSessionNotFound):
		return newSessionError(CodeNotFound, "session not found", err)
	case errors.Is(err, schedulerRepo.ErrInvalidTransition):
		return newSessionError(CodeInvalidTransition, err.Error(), err)
	case errors.Is(err, recurrence.ErrUnsupportedPattern):
		return newSessionError(CodeUnsupportedPattern, err.Error(), err)
	case errors.Is(err, recurrence.ErrInvalidWeekday):
		return newSessionError(CodeInvalidInput, err.Error(), err)
	case errors.Is(err, recurrence.ErrTooManyOccurrences):
		return newSessionError(CodeTooManyOccurrences, err.Error(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ErrorCode returns the SessionError code carried by err, or "".
func ErrorCode(err error) string {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
