package notification

import (
	"context"

	"gymbook/models"
)

// NotificationService schedules the client-facing messages produced by the
// reservation flow. Implementations must not block on delivery.
type NotificationService interface {
	ScheduleSessionReminder(ctx context.Context, sess models.Session) error
	NotifyWaitlistPromotion(ctx context.Context, sess models.Session, booking models.Booking) error
	NotifySessionCancelled(ctx context.Context, sess models.Session, clientIDs []string) error
}

// Dispatcher delivers one push message to one client.
type Dispatcher interface {
	Send(ctx context.Context, clientID, title, body string, data map[string]string) error
}
