package booking

import (
	"context"

	"gymbook/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddToWaitlist queues the client and returns their 1-based position.
func (s *DefaultReservationService) AddToWaitlist(ctx context.Context, sessionID, clientID string) (int, error) {
	if err := requireIDs(sessionID, clientID); err != nil {
		return 0, err
	}
	entry := &models.WaitlistEntry{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		ClientID:  clientID,
		AddedAt:   s.Now().UTC(),
	}
	if err := s.Repo.AddToWaitlist(ctx, entry); err != nil {
		return 0, classify("add to waitlist", err)
	}
	s.invalidateCalendar(ctx)
	s.Logger.Info("client waitlisted",
		zap.String("sessionId", sessionID),
		zap.String("clientId", clientID),
		zap.Int("position", entry.Position))
	return entry.Position, nil
}

// RemoveFromWaitlist drops the client; everyone behind moves up one place.
func (s *DefaultReservationService) RemoveFromWaitlist(ctx context.Context, sessionID, clientID string) error {
	if err := requireIDs(sessionID, clientID); err != nil {
		return err
	}
	if err := s.Repo.RemoveFromWaitlist(ctx, sessionID, clientID); err != nil {
		return classify("remove from waitlist", err)
	}
	s.invalidateCalendar(ctx)
	s.Logger.Info("client left waitlist", zap.String("sessionId", sessionID), zap.String("clientId", clientID))
	return nil
}

func (s *DefaultReservationService) GetSessionWaitlist(ctx context.Context, sessionID string) ([]models.WaitlistEntry, error) {
	entries, err := s.Repo.GetSessionWaitlist(ctx, sessionID)
	if err != nil {
		return nil, classify("get session waitlist", err)
	}
	return entries, nil
}

func (s *DefaultReservationService) GetClientWaitlist(ctx context.Context, clientID string) ([]models.WaitlistEntry, error) {
	entries, err := s.Repo.GetClientWaitlist(ctx, clientID)
	if err != nil {
		return nil, classify("get client waitlist", err)
	}
	return entries, nil
}
