package booking

import (
	"context"
	"errors"
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

// DefaultReservationService implements ReservationService on a SchedulerRepository.
type DefaultReservationService struct {
	Repo     schedulerRepo.SchedulerRepository
	Notifier notification.NotificationService
	Cache    utils.CalendarCache
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewDefaultReservationService(
	repo schedulerRepo.SchedulerRepository,
	notifier notification.NotificationService,
	cache utils.CalendarCache,
	logger *zap.Logger,
) (*DefaultReservationService, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservation service initialization error: repository is nil")
	}
	if cache == nil {
		cache = utils.NoopCalendarCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultReservationService{
		Repo:     repo,
		Notifier: notifier,
		Cache:    cache,
		Logger:   logger,
		Now:      time.Now,
	}, nil
}

func requireIDs(sessionID, clientID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return NewBookingError(CodeInvalidInput, "sessionId is required", nil)
	}
	if strings.TrimSpace(clientID) == "" {
		return NewBookingError(CodeInvalidInput, "clientId is required", nil)
	}
	return nil
}

// BookSessionSpot takes one seat for the client.
func (s *DefaultReservationService) BookSessionSpot(ctx context.Context, sessionID, clientID string) (*models.Booking, error) {
	if err := requireIDs(sessionID, clientID); err != nil {
		return nil, err
	}
	booking := &models.Booking{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		ClientID:  clientID,
		CreatedAt: s.Now().UTC(),
	}
	if err := s.Repo.BookSessionSpot(ctx, booking); err != nil {
		s.Logger.Info("booking rejected",
			zap.String("sessionId", sessionID),
			zap.String("clientId", clientID),
			zap.Error(err))
		return nil, classify("book session spot", err)
	}
	s.Logger.Info("seat booked",
		zap.String("sessionId", sessionID),
		zap.String("clientId", clientID),
		zap.String("bookingId", booking.ID))
	s.invalidateCalendar(ctx)
	return booking, nil
}

// CancelBooking releases the seat. When the waitlist hands it to someone the
// promoted client is notified.
func (s *DefaultReservationService) CancelBooking(ctx context.Context, sessionID, clientID string) (*models.CancellationResult, error) {
	if err := requireIDs(sessionID, clientID); err != nil {
		return nil, err
	}
	promoted, err := s.Repo.CancelBooking(ctx, sessionID, clientID)
	if err != nil {
		return nil, classify("cancel booking", err)
	}
	s.Logger.Info("booking cancelled", zap.String("sessionId", sessionID), zap.String("clientId", clientID))
	s.invalidateCalendar(ctx)

	if promoted != nil {
		s.Logger.Info("waitlist head promoted",
			zap.String("sessionId", sessionID),
			zap.String("clientId", promoted.ClientID),
			zap.String("bookingId", promoted.ID))
		s.notifyPromotion(ctx, *promoted)
	}
	return &models.CancellationResult{SessionID: sessionID, ClientID: clientID, Promoted: promoted}, nil
}

// Reserve tries a booking first and falls back to the waitlist on SessionFull.
func (s *DefaultReservationService) Reserve(ctx context.Context, sessionID, clientID string) (*models.ReservationResult, error) {
	booking, err := s.BookSessionSpot(ctx, sessionID, clientID)
	if err == nil {
		return &models.ReservationResult{Status: models.ReservationBooked, Booking: booking}, nil
	}
	if ErrorCode(err) != CodeSessionFull {
		return nil, err
	}

	position, err := s.AddToWaitlist(ctx, sessionID, clientID)
	if err != nil {
		return nil, err
	}
	return &models.ReservationResult{Status: models.ReservationWaitlisted, Position: position}, nil
}

// GetSessionBookings lists bookings of an existing session.
func (s *DefaultReservationService) GetSessionBookings(ctx context.Context, sessionID string) ([]models.Booking, error) {
	if _, err := s.Repo.GetSessionByID(ctx, sessionID); err != nil {
		return nil, classify("get session bookings", err)
	}
	bookings, err := s.Repo.GetSessionBookings(ctx, sessionID)
	if err != nil {
		return nil, classify("get session bookings", err)
	}
	return bookings, nil
}

func (s *DefaultReservationService) GetClientBookings(ctx context.Context, clientID string) ([]models.Booking, error) {
	bookings, err := s.Repo.GetClientBookings(ctx, clientID)
	if err != nil {
		return nil, classify("get client bookings", err)
	}
	return bookings, nil
}

func (s *DefaultReservationService) MarkAttendance(ctx context.Context, sessionID, clientID string, attended bool) (*models.Booking, error) {
	if err := requireIDs(sessionID, clientID); err != nil {
		return nil, err
	}
	booking, err := s.Repo.SetAttendance(ctx, sessionID, clientID, attended)
	if err != nil {
		return nil, classify("mark attendance", err)
	}
	s.Logger.Info("attendance recorded",
		zap.String("sessionId", sessionID),
		zap.String("clientId", clientID),
		zap.Bool("attended", attended))
	return booking, nil
}

func (s *DefaultReservationService) invalidateCalendar(ctx context.Context) {
	if err := s.Cache.Invalidate(ctx); err != nil {
		s.Logger.Warn("calendar cache invalidation failed", zap.Error(err))
	}
}

func (s *DefaultReservationService) notifyPromotion(ctx context.Context, promoted models.Booking) {
	if s.Notifier == nil {
		return
	}
	sess, err := s.Repo.GetSessionByID(ctx, promoted.SessionID)
	if errors.Is(err, schedulerRepo.ErrSessionNotFound) {
		return
	}
	if err != nil {
		s.Logger.Warn("could not load session for promotion notice", zap.String("sessionId", promoted.SessionID), zap.Error(err))
		sess = &models.Session{ID: promoted.SessionID}
	}
	if err := s.Notifier.NotifyWaitlistPromotion(ctx, *sess, promoted); err != nil {
		s.Logger.Warn("failed to queue promotion notice",
			zap.String("sessionId", promoted.SessionID),
			zap.String("clientId", promoted.ClientID),
			zap.Error(err))
	}
}
