package models

import "time"

// SessionStatus is the lifecycle state of a live session.
type SessionStatus string

const (
	SessionUpcoming  SessionStatus = "upcoming"
	SessionScheduled SessionStatus = "scheduled"
	SessionLive      SessionStatus = "live"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// BookableStatuses lists the states in which seats may still be taken.
var BookableStatuses = []SessionStatus{SessionUpcoming, SessionScheduled, SessionLive}

// Bookable reports whether a session in this state accepts bookings.
func (s SessionStatus) Bookable() bool {
	for _, st := range BookableStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionUpcoming, SessionScheduled, SessionLive, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Session represents one schedulable occurrence of a live class.
type Session struct {
	ID               string        `bson:"id" json:"id"`
	Title            string        `bson:"title" json:"title"`
	Description      string        `bson:"description,omitempty" json:"description,omitempty"`
	TrainerID        string        `bson:"trainerId,omitempty" json:"trainerId,omitempty"`
	ScheduledAt      time.Time     `bson:"scheduledAt" json:"scheduledAt"`
	Duration         int           `bson:"duration" json:"duration"` // minutes
	MeetingLink      string        `bson:"meetingLink,omitempty" json:"meetingLink,omitempty"`
	Status           SessionStatus `bson:"status" json:"status"`
	MaxCapacity      int           `bson:"maxCapacity" json:"maxCapacity"`
	CurrentCapacity  int           `bson:"currentCapacity" json:"currentCapacity"`
	WaitlistLength   int           `bson:"waitlistLength" json:"waitlistLength"` // number of waitlist entries; next position is WaitlistLength+1
	IsRecurring      bool          `bson:"isRecurring" json:"isRecurring"`
	RecurringPattern string        `bson:"recurringPattern,omitempty" json:"recurringPattern,omitempty"`
	RecurringDays    []string      `bson:"recurringDays,omitempty" json:"recurringDays,omitempty"`
	RecurringEndDate *time.Time    `bson:"recurringEndDate,omitempty" json:"recurringEndDate,omitempty"`
	ParentSessionID  string        `bson:"parentSessionId,omitempty" json:"parentSessionId,omitempty"`
	CreatedAt        time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// SessionInput is the payload accepted when authoring a session.
type SessionInput struct {
	Title           string        `json:"title" binding:"required"`
	Description     string        `json:"description"`
	TrainerID       string        `json:"trainerId"`
	ScheduledAt     time.Time     `json:"scheduledAt" binding:"required"`
	Duration        int           `json:"duration" binding:"min=0"`
	MeetingLink     string        `json:"meetingLink"`
	Status          SessionStatus `json:"status"`
	MaxCapacity     int           `json:"maxCapacity" binding:"min=0"`
	CurrentCapacity int           `json:"currentCapacity" binding:"min=0"`
}

// ToSession converts the input into an unsaved Session.
func (in SessionInput) ToSession() Session {
	return Session{
		Title:           in.Title,
		Description:     in.Description,
		TrainerID:       in.TrainerID,
		ScheduledAt:     in.ScheduledAt,
		Duration:        in.Duration,
		MeetingLink:     in.MeetingLink,
		Status:          in.Status,
		MaxCapacity:     in.MaxCapacity,
		CurrentCapacity: in.CurrentCapacity,
	}
}

// RecurringSessionRequest expands one template into a series.
type RecurringSessionRequest struct {
	Session SessionInput `json:"session"`
	Pattern string       `json:"pattern" binding:"required"`
	Days    []string     `json:"days"`
	EndDate string       `json:"endDate" binding:"required"` // RFC3339 or YYYY-MM-DD (inclusive)
}

// SessionStatusRequest moves a session along its lifecycle.
type SessionStatusRequest struct {
	Status SessionStatus `json:"status" binding:"required"`
}
