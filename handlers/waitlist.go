package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JoinWaitlistHandler handles POST /sessions/:id/waitlist.
func (h *BookingHandler) JoinWaitlistHandler(c *gin.Context) {
	req, ok := bindClientRequest(c)
	if !ok {
		return
	}
	clientID, ok := actingClient(c, req.ClientID)
	if !ok {
		return
	}

	position, err := h.Service.AddToWaitlist(c.Request.Context(), c.Param("id"), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "position": position})
}

// LeaveWaitlistHandler handles DELETE /sessions/:id/waitlist/:clientId.
func (h *BookingHandler) LeaveWaitlistHandler(c *gin.Context) {
	clientID, ok := actingClient(c, c.Param("clientId"))
	if !ok {
		return
	}
	if err := h.Service.RemoveFromWaitlist(c.Request.Context(), c.Param("id"), clientID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetSessionWaitlistHandler handles GET /sessions/:id/waitlist.
func (h *BookingHandler) GetSessionWaitlistHandler(c *gin.Context) {
	entries, err := h.Service.GetSessionWaitlist(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetClientWaitlistHandler handles GET /clients/:id/waitlist.
func (h *BookingHandler) GetClientWaitlistHandler(c *gin.Context) {
	clientID, ok := actingClient(c, c.Param("id"))
	if !ok {
		return
	}
	entries, err := h.Service.GetClientWaitlist(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
