package schedulerRepo

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionClosed     = errors.New("session is not accepting bookings")
	ErrSessionFull       = errors.New("session is full")
	ErrAlreadyBooked     = errors.New("client already holds a booking for this session")
	ErrNotBooked         = errors.New("client has no booking for this session")
	ErrAlreadyWaitlisted = errors.New("client is already on the waitlist for this session")
	ErrNotWaitlisted     = errors.New("client is not on the waitlist for this session")
	ErrInvalidTransition = errors.New("invalid session status transition")
)
