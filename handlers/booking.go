package handlers

import (
	"errors"
	"io"
	"net/http"

	"gymbook/middleware"
	"gymbook/models"
	"gymbook/services/booking"
	"gymbook/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves booking, reservation and waitlist endpoints.
type BookingHandler struct {
	Service booking.ReservationService
}

func NewBookingHandler(svc booking.ReservationService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

// actingClient resolves the client an operation applies to. Clients may only
// act for themselves; trainers and admins may name anyone.
func actingClient(c *gin.Context, requested string) (string, bool) {
	subject := c.GetString(utils.ContextClientIDKey)
	if requested == "" || requested == subject {
		return subject, true
	}
	if middleware.IsStaff(c) {
		return requested, true
	}
	c.JSON(http.StatusForbidden, utils.ErrorResponse{
		Code:    "forbidden",
		Message: "Clients may only act for themselves",
	})
	return "", false
}

// bindClientRequest reads an optional {clientId} body.
func bindClientRequest(c *gin.Context) (models.ClientRequest, bool) {
	var req models.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request: "+err.Error())
		return req, false
	}
	return req, true
}

// BookSessionSpotHandler handles POST /sessions/:id/book.
func (h *BookingHandler) BookSessionSpotHandler(c *gin.Context) {
	req, ok := bindClientRequest(c)
	if !ok {
		return
	}
	clientID, ok := actingClient(c, req.ClientID)
	if !ok {
		return
	}

	b, err := h.Service.BookSessionSpot(c.Request.Context(), c.Param("id"), clientID)
	if err != nil {
		respondBookingRejection(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": b})
}

// CancelBookingHandler handles DELETE /sessions/:id/book/:clientId.
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	clientID, ok := actingClient(c, c.Param("clientId"))
	if !ok {
		return
	}
	res, err := h.Service.CancelBooking(c.Request.Context(), c.Param("id"), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}

// ReserveHandler handles POST /sessions/:id/reserve.
func (h *BookingHandler) ReserveHandler(c *gin.Context) {
	req, ok := bindClientRequest(c)
	if !ok {
		return
	}
	clientID, ok := actingClient(c, req.ClientID)
	if !ok {
		return
	}

	res, err := h.Service.Reserve(c.Request.Context(), c.Param("id"), clientID)
	if err != nil {
		respondBookingRejection(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reservation": res})
}

// GetSessionBookingsHandler handles GET /sessions/:id/bookings.
func (h *BookingHandler) GetSessionBookingsHandler(c *gin.Context) {
	bookings, err := h.Service.GetSessionBookings(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// MarkAttendanceHandler handles POST /sessions/:id/attendance.
func (h *BookingHandler) MarkAttendanceHandler(c *gin.Context) {
	var req models.AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	b, err := h.Service.MarkAttendance(c.Request.Context(), c.Param("id"), req.ClientID, *req.Attended)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": b})
}

// GetClientBookingsHandler handles GET /clients/:id/bookings.
func (h *BookingHandler) GetClientBookingsHandler(c *gin.Context) {
	clientID, ok := actingClient(c, c.Param("id"))
	if !ok {
		return
	}
	bookings, err := h.Service.GetClientBookings(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}
