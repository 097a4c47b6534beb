package models

// ReminderPayload is carried by a scheduled session reminder task.
type ReminderPayload struct {
	SessionID   string `json:"sessionId"`
	Title       string `json:"title"`
	ScheduledAt string `json:"scheduledAt"` // RFC3339
}

// PromotionPayload is carried by a waitlist promotion task.
type PromotionPayload struct {
	SessionID   string `json:"sessionId"`
	ClientID    string `json:"clientId"`
	BookingID   string `json:"bookingId"`
	Title       string `json:"title"`
	ScheduledAt string `json:"scheduledAt"`
}

// CancellationPayload is carried by a session cancellation task.
type CancellationPayload struct {
	SessionID   string   `json:"sessionId"`
	Title       string   `json:"title"`
	ScheduledAt string   `json:"scheduledAt"`
	ClientIDs   []string `json:"clientIds"`
}

// PushPayload is a single push message to one client. Reminders and
// cancellations fan out into one of these per recipient.
type PushPayload struct {
	ClientID string            `json:"clientId"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
}
