package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	schedulerRepo "gymbook/database/repository/scheduler"
	"gymbook/models"
	"gymbook/services/notification"
	"gymbook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// allowedFrom lists, per target status, the statuses a session may leave to reach it.
var allowedFrom = map[models.SessionStatus][]models.SessionStatus{
	models.SessionLive:      {models.SessionUpcoming, models.SessionScheduled},
	models.SessionCompleted: {models.SessionLive},
	models.SessionCancelled: {models.SessionUpcoming, models.SessionScheduled, models.SessionLive},
}

// DefaultSessionService implements SessionService.
type DefaultSessionService struct {
	Repo                  schedulerRepo.SchedulerRepository
	Cache                 utils.CalendarCache
	Notifier              notification.NotificationService
	Logger                *zap.Logger
	Location              *time.Location
	MaxRecurringInstances int
	Now                   func() time.Time
}

func NewDefaultSessionService(
	repo schedulerRepo.SchedulerRepository,
	cache utils.CalendarCache,
	notifier notification.NotificationService,
	logger *zap.Logger,
	loc *time.Location,
	maxRecurringInstances int,
) (*DefaultSessionService, error) {
	if repo == nil {
		return nil, fmt.Errorf("session service initialization error: repository is nil")
	}
	if cache == nil {
		cache = utils.NoopCalendarCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DefaultSessionService{
		Repo:                  repo,
		Cache:                 cache,
		Notifier:              notifier,
		Logger:                logger,
		Location:              loc,
		MaxRecurringInstances: maxRecurringInstances,
		Now:                   time.Now,
	}, nil
}

func validateSession(sess *models.Session) error {
	if strings.TrimSpace(sess.Title) == "" {
		return newSessionError(CodeInvalidInput, "title is required", nil)
	}
	if sess.ScheduledAt.IsZero() {
		return newSessionError(CodeInvalidInput, "scheduledAt is required", nil)
	}
	if sess.Duration < 0 {
		return newSessionError(CodeInvalidInput, "duration must not be negative", nil)
	}
	if sess.MaxCapacity < 0 {
		return newSessionError(CodeInvalidInput, "maxCapacity must not be negative", nil)
	}
	if sess.CurrentCapacity < 0 || sess.CurrentCapacity > sess.MaxCapacity {
		return newSessionError(CodeInvalidInput,
			fmt.Sprintf("currentCapacity must be between 0 and %d", sess.MaxCapacity), nil)
	}
	if sess.Status == "" {
		sess.Status = models.SessionUpcoming
	}
	if !sess.Status.Valid() {
		return newSessionError(CodeInvalidInput, fmt.Sprintf("unknown status %q", sess.Status), nil)
	}
	return nil
}

// CreateSession validates and stores a single session, then schedules its reminder.
func (s *DefaultSessionService) CreateSession(ctx context.Context, sess models.Session) (*models.Session, error) {
	if err := validateSession(&sess); err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	sess.ID = uuid.New().String()
	sess.WaitlistLength = 0
	sess.CreatedAt = now
	sess.UpdatedAt = now

	if err := s.Repo.CreateSessions(ctx, []models.Session{sess}); err != nil {
		s.Logger.Error("failed to create session", zap.Error(err))
		return nil, classify("create session", err)
	}
	s.Logger.Info("session created",
		zap.String("sessionId", sess.ID),
		zap.Time("scheduledAt", sess.ScheduledAt),
		zap.Int("maxCapacity", sess.MaxCapacity))

	s.invalidateCalendar(ctx)
	s.scheduleReminder(ctx, sess)
	return &sess, nil
}

func (s *DefaultSessionService) GetSession(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.Repo.GetSessionByID(ctx, id)
	if err != nil {
		return nil, classify("get session", err)
	}
	return sess, nil
}

// GetSessionsByDateRange reads through the calendar cache. Cache failures
// only cost a store round trip.
func (s *DefaultSessionService) GetSessionsByDateRange(ctx context.Context, start, end time.Time) ([]models.Session, error) {
	if end.Before(start) {
		return nil, newSessionError(CodeInvalidInput, "end must not be before start", nil)
	}

	// The lookup pins the cache generation before the store read, so a write
	// that invalidates while we query leaves our result unreachable.
	lookup, cacheErr := s.Cache.GetRange(ctx, start, end)
	if cacheErr != nil {
		s.Logger.Warn("calendar cache read failed", zap.Error(cacheErr))
	} else if lookup.Hit {
		return lookup.Sessions, nil
	}

	found, err := s.Repo.GetSessionsByDateRange(ctx, start, end)
	if err != nil {
		return nil, classify("get sessions by date range", err)
	}
	if cacheErr == nil {
		if err := s.Cache.SetRange(ctx, lookup.Generation, start, end, found); err != nil {
			s.Logger.Warn("calendar cache write failed", zap.Error(err))
		}
	}
	return found, nil
}

// CancelSession marks the session cancelled. Bookings are kept; booked and
// waitlisted clients are notified. Cancelling twice returns the session unchanged.
func (s *DefaultSessionService) CancelSession(ctx context.Context, id string) (*models.Session, error) {
	current, err := s.Repo.GetSessionByID(ctx, id)
	if err != nil {
		return nil, classify("cancel session", err)
	}
	if current.Status == models.SessionCancelled {
		return current, nil
	}

	updated, err := s.Repo.TransitionSession(ctx, id, models.SessionCancelled, allowedFrom[models.SessionCancelled])
	if err != nil {
		return nil, classify("cancel session", err)
	}
	s.Logger.Info("session cancelled", zap.String("sessionId", id))
	s.invalidateCalendar(ctx)
	s.notifyCancelled(ctx, *updated)
	return updated, nil
}

// UpdateSessionStatus moves a session along upcoming|scheduled -> live -> completed,
// or to cancelled from any state before completion.
func (s *DefaultSessionService) UpdateSessionStatus(ctx context.Context, id string, status models.SessionStatus) (*models.Session, error) {
	if !status.Valid() {
		return nil, newSessionError(CodeInvalidInput, fmt.Sprintf("unknown status %q", status), nil)
	}
	if status == models.SessionCancelled {
		return s.CancelSession(ctx, id)
	}
	from, ok := allowedFrom[status]
	if !ok {
		current, err := s.Repo.GetSessionByID(ctx, id)
		if err != nil {
			return nil, classify("update session status", err)
		}
		if current.Status == status {
			return current, nil
		}
		return nil, newSessionError(CodeInvalidTransition,
			fmt.Sprintf("cannot move session from %s to %s", current.Status, status), schedulerRepo.ErrInvalidTransition)
	}

	updated, err := s.Repo.TransitionSession(ctx, id, status, from)
	if err != nil {
		return nil, classify("update session status", err)
	}
	s.Logger.Info("session status updated", zap.String("sessionId", id), zap.String("status", string(status)))
	s.invalidateCalendar(ctx)
	return updated, nil
}

// DeleteSession removes the session with its bookings and waitlist.
func (s *DefaultSessionService) DeleteSession(ctx context.Context, id string) error {
	if err := s.Repo.DeleteSession(ctx, id); err != nil {
		return classify("delete session", err)
	}
	s.Logger.Info("session deleted", zap.String("sessionId", id))
	s.invalidateCalendar(ctx)
	return nil
}

func (s *DefaultSessionService) invalidateCalendar(ctx context.Context) {
	if err := s.Cache.Invalidate(ctx); err != nil {
		s.Logger.Warn("calendar cache invalidation failed", zap.Error(err))
	}
}

func (s *DefaultSessionService) scheduleReminder(ctx context.Context, sess models.Session) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.ScheduleSessionReminder(ctx, sess); err != nil {
		s.Logger.Warn("failed to schedule reminder", zap.String("sessionId", sess.ID), zap.Error(err))
	}
}

func (s *DefaultSessionService) notifyCancelled(ctx context.Context, sess models.Session) {
	if s.Notifier == nil {
		return
	}
	seen := make(map[string]struct{})
	var clientIDs []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		clientIDs = append(clientIDs, id)
	}

	bookings, err := s.Repo.GetSessionBookings(ctx, sess.ID)
	if err != nil {
		s.Logger.Warn("could not load bookings for cancellation notice", zap.String("sessionId", sess.ID), zap.Error(err))
	}
	for _, b := range bookings {
		add(b.ClientID)
	}
	waiting, err := s.Repo.GetSessionWaitlist(ctx, sess.ID)
	if err != nil {
		s.Logger.Warn("could not load waitlist for cancellation notice", zap.String("sessionId", sess.ID), zap.Error(err))
	}
	for _, w := range waiting {
		add(w.ClientID)
	}

	if err := s.Notifier.NotifySessionCancelled(ctx, sess, clientIDs); err != nil {
		s.Logger.Warn("failed to queue cancellation notice", zap.String("sessionId", sess.ID), zap.Error(err))
	}
}
