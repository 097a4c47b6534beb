package handlers

import (
	"net/http"
	"time"

	"gymbook/models"
	"gymbook/services/sessions"
	"gymbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler serves session authoring and calendar endpoints.
type SessionHandler struct {
	Service  sessions.SessionService
	Location *time.Location
}

func NewSessionHandler(svc sessions.SessionService, loc *time.Location) *SessionHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SessionHandler{Service: svc, Location: loc}
}

// CreateSessionHandler handles POST /sessions.
func (h *SessionHandler) CreateSessionHandler(c *gin.Context) {
	var input models.SessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	sess := input.ToSession()
	if sess.TrainerID == "" && c.GetString(utils.ContextRoleKey) == utils.RoleTrainer {
		sess.TrainerID = c.GetString(utils.ContextClientIDKey)
	}

	created, err := h.Service.CreateSession(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetSessionHandler handles GET /sessions/:id.
func (h *SessionHandler) GetSessionHandler(c *gin.Context) {
	sess, err := h.Service.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// DeleteSessionHandler handles DELETE /sessions/:id.
func (h *SessionHandler) DeleteSessionHandler(c *gin.Context) {
	id := c.Param("id")
	if err := h.Service.DeleteSession(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("session deleted", zap.String("sessionId", id))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Session deleted"})
}

// CreateRecurringSessionsHandler handles POST /sessions/recurring.
func (h *SessionHandler) CreateRecurringSessionsHandler(c *gin.Context) {
	var req models.RecurringSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	endDate, err := utils.ParseTimeBound(req.EndDate, h.Location, true)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	base := req.Session.ToSession()
	if base.TrainerID == "" && c.GetString(utils.ContextRoleKey) == utils.RoleTrainer {
		base.TrainerID = c.GetString(utils.ContextClientIDKey)
	}

	series, err := h.Service.CreateRecurringSessions(c.Request.Context(), base, req.Pattern, req.Days, endDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// GetCalendarHandler handles GET /sessions/calendar/:start/:end.
// Date-only bounds cover the whole day in the configured timezone.
func (h *SessionHandler) GetCalendarHandler(c *gin.Context) {
	start, err := utils.ParseTimeBound(c.Param("start"), h.Location, false)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	end, err := utils.ParseTimeBound(c.Param("end"), h.Location, true)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	found, err := h.Service.GetSessionsByDateRange(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// CancelSessionHandler handles POST /sessions/:id/cancel.
func (h *SessionHandler) CancelSessionHandler(c *gin.Context) {
	sess, err := h.Service.CancelSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// UpdateSessionStatusHandler handles PATCH /sessions/:id/status.
func (h *SessionHandler) UpdateSessionStatusHandler(c *gin.Context) {
	var req models.SessionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	sess, err := h.Service.UpdateSessionStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}
