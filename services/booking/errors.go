package booking

import (
	"errors"
	"fmt"

	schedulerRepo "gymbook/database/repository/scheduler"
)

const (
	CodeNotFound          = "notFound"
	CodeAlreadyBooked     = "alreadyBooked"
	CodeAlreadyWaitlisted = "alreadyWaitlisted"
	CodeSessionFull       = "sessionFull"
	CodeSessionClosed     = "sessionClosed"
	CodeNotBooked         = "notBooked"
	CodeNotWaitlisted     = "notWaitlisted"
	CodeInvalidInput      = "invalidInput"
)

// BookingError is a reservation failure the caller is expected to handle.
type BookingError struct {
	Code    string
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error { return e.Err }

func NewBookingError(code, msg string, err error) error {
	return &BookingError{Code: code, Message: msg, Err: err}
}

var sentinelCodes = []struct {
	err     error
	code    string
	message string
}{
	{schedulerRepo.ErrSessionNotFound, CodeNotFound, "session not found"},
	{schedulerRepo.ErrSessionFull, CodeSessionFull, "session is full"},
	{schedulerRepo.ErrSessionClosed, CodeSessionClosed, "session is not accepting bookings"},
	{schedulerRepo.ErrAlreadyBooked, CodeAlreadyBooked, "client already booked this session"},
	{schedulerRepo.ErrAlreadyWaitlisted, CodeAlreadyWaitlisted, "client is already on the waitlist"},
	{schedulerRepo.ErrNotBooked, CodeNotBooked, "client has no booking for this session"},
	{schedulerRepo.ErrNotWaitlisted, CodeNotWaitlisted, "client is not on the waitlist"},
}

// classify converts repository sentinels to BookingError and wraps anything else with op.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return NewBookingError(s.code, s.message, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ErrorCode returns the BookingError code carried by err, or "".
func ErrorCode(err error) string {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
