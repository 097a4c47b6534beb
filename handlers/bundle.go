package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Session endpoints
	CreateSessionHandler           gin.HandlerFunc
	GetSessionHandler              gin.HandlerFunc
	DeleteSessionHandler           gin.HandlerFunc
	CreateRecurringSessionsHandler gin.HandlerFunc
	GetCalendarHandler             gin.HandlerFunc
	CancelSessionHandler           gin.HandlerFunc
	UpdateSessionStatusHandler     gin.HandlerFunc

	// Booking endpoints
	BookSessionSpotHandler    gin.HandlerFunc
	CancelBookingHandler      gin.HandlerFunc
	ReserveHandler            gin.HandlerFunc
	GetSessionBookingsHandler gin.HandlerFunc
	MarkAttendanceHandler     gin.HandlerFunc
	GetClientBookingsHandler  gin.HandlerFunc

	// Waitlist endpoints
	JoinWaitlistHandler       gin.HandlerFunc
	LeaveWaitlistHandler      gin.HandlerFunc
	GetSessionWaitlistHandler gin.HandlerFunc
	GetClientWaitlistHandler  gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}

// NewHandlerBundle wires the session and booking handlers into a bundle.
func NewHandlerBundle(sh *SessionHandler, bh *BookingHandler) *HandlerBundle {
	return &HandlerBundle{
		CreateSessionHandler:           sh.CreateSessionHandler,
		GetSessionHandler:              sh.GetSessionHandler,
		DeleteSessionHandler:           sh.DeleteSessionHandler,
		CreateRecurringSessionsHandler: sh.CreateRecurringSessionsHandler,
		GetCalendarHandler:             sh.GetCalendarHandler,
		CancelSessionHandler:           sh.CancelSessionHandler,
		UpdateSessionStatusHandler:     sh.UpdateSessionStatusHandler,

		BookSessionSpotHandler:    bh.BookSessionSpotHandler,
		CancelBookingHandler:      bh.CancelBookingHandler,
		ReserveHandler:            bh.ReserveHandler,
		GetSessionBookingsHandler: bh.GetSessionBookingsHandler,
		MarkAttendanceHandler:     bh.MarkAttendanceHandler,
		GetClientBookingsHandler:  bh.GetClientBookingsHandler,

		JoinWaitlistHandler:       bh.JoinWaitlistHandler,
		LeaveWaitlistHandler:      bh.LeaveWaitlistHandler,
		GetSessionWaitlistHandler: bh.GetSessionWaitlistHandler,
		GetClientWaitlistHandler:  bh.GetClientWaitlistHandler,

		HealthHandler: HealthHandler,
	}
}
