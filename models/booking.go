package models

import "time"

// Booking represents a confirmed seat held by one client in one session.
type Booking struct {
	ID                   string    `bson:"id" json:"id"`
	SessionID            string    `bson:"sessionId" json:"sessionId"`
	ClientID             string    `bson:"clientId" json:"clientId"`
	Attended             bool      `bson:"attended" json:"attended"`                                             // set after the session occurs
	PromotedFromWaitlist bool      `bson:"promotedFromWaitlist,omitempty" json:"promotedFromWaitlist,omitempty"` // seat was handed over from the head of the waitlist
	CreatedAt            time.Time `bson:"createdAt" json:"createdAt"`
}

// WaitlistEntry is a client queued for a full session.
// Positions within a session are contiguous, starting at 1, in arrival order.
type WaitlistEntry struct {
	ID        string    `bson:"id" json:"id"`
	SessionID string    `bson:"sessionId" json:"sessionId"`
	ClientID  string    `bson:"clientId" json:"clientId"`
	Position  int       `bson:"position" json:"position"`
	AddedAt   time.Time `bson:"addedAt" json:"addedAt"`
}

// ClientRequest carries an optional client on whose behalf a trainer acts.
type ClientRequest struct {
	ClientID string `json:"clientId"`
}

// AttendanceRequest marks whether a booked client showed up.
type AttendanceRequest struct {
	ClientID string `json:"clientId" binding:"required"`
	Attended *bool  `json:"attended" binding:"required"`
}
