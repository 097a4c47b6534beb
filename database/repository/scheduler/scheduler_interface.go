package schedulerRepo

import (
	"context"
	"time"

	"gymbook/models"
)

// SchedulerRepository is the persistence boundary for sessions, bookings and waitlists.
//
// Every mutation that touches a session's occupancy counter or its waitlist
// positions runs as one unit of work serialized on that session's record.
type SchedulerRepository interface {
	// CreateSessions inserts all sessions or none.
	CreateSessions(ctx context.Context, sessions []models.Session) error
	GetSessionByID(ctx context.Context, id string) (*models.Session, error)
	// GetSessionsByDateRange returns sessions with scheduledAt in [start, end], ascending.
	GetSessionsByDateRange(ctx context.Context, start, end time.Time) ([]models.Session, error)
	// TransitionSession sets status to `to` if the current status is one of `from`.
	// A session already in `to` is returned unchanged.
	TransitionSession(ctx context.Context, id string, to models.SessionStatus, from []models.SessionStatus) (*models.Session, error)
	// DeleteSession removes the session together with its bookings and waitlist.
	DeleteSession(ctx context.Context, id string) error

	// BookSessionSpot inserts the booking and takes one seat, or fails with
	// ErrSessionNotFound, ErrSessionClosed, ErrAlreadyBooked or ErrSessionFull.
	// A waitlist entry held by the same client is dropped.
	BookSessionSpot(ctx context.Context, booking *models.Booking) error
	// CancelBooking deletes the booking, frees its seat and hands the seat to the
	// head of the waitlist when there is one. It returns the promoted booking, if any.
	CancelBooking(ctx context.Context, sessionID, clientID string) (*models.Booking, error)
	GetBooking(ctx context.Context, sessionID, clientID string) (*models.Booking, error)
	GetSessionBookings(ctx context.Context, sessionID string) ([]models.Booking, error)
	GetClientBookings(ctx context.Context, clientID string) ([]models.Booking, error)
	SetAttendance(ctx context.Context, sessionID, clientID string, attended bool) (*models.Booking, error)

	// AddToWaitlist appends the entry and fills in its Position. Cancelled and
	// completed sessions fail with ErrSessionClosed.
	AddToWaitlist(ctx context.Context, entry *models.WaitlistEntry) error
	// RemoveFromWaitlist deletes the entry and closes the gap in positions.
	RemoveFromWaitlist(ctx context.Context, sessionID, clientID string) error
	GetSessionWaitlist(ctx context.Context, sessionID string) ([]models.WaitlistEntry, error)
	GetClientWaitlist(ctx context.Context, clientID string) ([]models.WaitlistEntry, error)

	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
}
