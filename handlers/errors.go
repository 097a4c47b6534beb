package handlers

import (
	"errors"
	"net/http"

	"gymbook/services/booking"
	"gymbook/services/sessions"
	"gymbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var codeStatus = map[string]int{
	booking.CodeNotFound:          http.StatusNotFound,
	booking.CodeNotBooked:         http.StatusNotFound,
	booking.CodeNotWaitlisted:     http.StatusNotFound,
	booking.CodeAlreadyBooked:     http.StatusBadRequest,
	booking.CodeAlreadyWaitlisted: http.StatusBadRequest,
	booking.CodeSessionFull:       http.StatusBadRequest,
	booking.CodeSessionClosed:     http.StatusBadRequest,
	booking.CodeInvalidInput:      http.StatusBadRequest,

	sessions.CodeInvalidTransition:  http.StatusConflict,
	sessions.CodeUnsupportedPattern: http.StatusBadRequest,
	sessions.CodeTooManyOccurrences: http.StatusBadRequest,
}

// respondError writes the structured error body for err. Known service errors
// keep their code; everything else is a 500.
func respondError(c *gin.Context, err error) {
	var (
		be *booking.BookingError
		se *sessions.SessionError
	)
	switch {
	case errors.As(err, &be):
		writeCoded(c, statusFor(be.Code), be.Code, be.Message)
	case errors.As(err, &se):
		writeCoded(c, statusFor(se.Code), se.Code, se.Message)
	default:
		getLogger(c).Error("unexpected error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse{
			Code:    "internal",
			Message: "Internal Server Error",
		})
	}
}

// respondBookingRejection reports every expected booking failure as 400.
func respondBookingRejection(c *gin.Context, err error) {
	var be *booking.BookingError
	if errors.As(err, &be) {
		writeCoded(c, http.StatusBadRequest, be.Code, be.Message)
		return
	}
	respondError(c, err)
}

func statusFor(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusBadRequest
}

func writeCoded(c *gin.Context, status int, code, message string) {
	getLogger(c).Info("request rejected",
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("path", c.FullPath()))
	c.JSON(status, utils.ErrorResponse{Code: code, Message: message})
}

func badRequest(c *gin.Context, message string) {
	writeCoded(c, http.StatusBadRequest, booking.CodeInvalidInput, message)
}
