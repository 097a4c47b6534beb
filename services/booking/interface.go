package booking

import (
	"context"

	"gymbook/models"
)

// ReservationService covers seats, waitlists and the flow between them.
type ReservationService interface {
	BookSessionSpot(ctx context.Context, sessionID, clientID string) (*models.Booking, error)
	// CancelBooking frees the client's seat; the head of the waitlist, if any, takes it.
	CancelBooking(ctx context.Context, sessionID, clientID string) (*models.CancellationResult, error)
	// Reserve books a seat, or queues the client when the session is full.
	Reserve(ctx context.Context, sessionID, clientID string) (*models.ReservationResult, error)
	GetSessionBookings(ctx context.Context, sessionID string) ([]models.Booking, error)
	GetClientBookings(ctx context.Context, clientID string) ([]models.Booking, error)
	MarkAttendance(ctx context.Context, sessionID, clientID string, attended bool) (*models.Booking, error)

	AddToWaitlist(ctx context.Context, sessionID, clientID string) (int, error)
	RemoveFromWaitlist(ctx context.Context, sessionID, clientID string) error
	GetSessionWaitlist(ctx context.Context, sessionID string) ([]models.WaitlistEntry, error)
	GetClientWaitlist(ctx context.Context, clientID string) ([]models.WaitlistEntry, error)
}
