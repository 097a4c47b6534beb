package sessions

import (
	"context"
	"time"

	"gymbook/models"
)

// SessionService manages the lifecycle of schedulable sessions.
type SessionService interface {
	CreateSession(ctx context.Context, sess models.Session) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetSessionsByDateRange(ctx context.Context, start, end time.Time) ([]models.Session, error)
	CancelSession(ctx context.Context, id string) (*models.Session, error)
	UpdateSessionStatus(ctx context.Context, id string, status models.SessionStatus) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	// CreateRecurringSessions stores a parent template plus one child per
	// occurrence after base.ScheduledAt up to and including endDate.
	CreateRecurringSessions(ctx context.Context, base models.Session, pattern string, days []string, endDate time.Time) ([]models.Session, error)
}
