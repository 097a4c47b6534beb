// models/booking_response.go
package models

const (
	ReservationBooked     = "booked"
	ReservationWaitlisted = "waitlisted"
)

// ReservationResult is returned by the reservation coordinator.
// Booking is set when a seat was taken; Position when the client was queued instead.
type ReservationResult struct {
	Status   string   `json:"status"`
	Booking  *Booking `json:"booking,omitempty"`
	Position int      `json:"position,omitempty"`
}

// CancellationResult describes a released seat and who, if anyone, received it.
type CancellationResult struct {
	SessionID string   `json:"sessionId"`
	ClientID  string   `json:"clientId"`
	Promoted  *Booking `json:"promoted,omitempty"`
}
