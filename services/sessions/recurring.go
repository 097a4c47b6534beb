package sessions

import (
	"context"
	"strings"
	"time"

	"gymbook/models"
	"gymbook/services/recurrence"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateRecurringSessions expands base into a parent template and its dated
// children, stored in one batch. A base already past endDate yields only the parent.
func (s *DefaultSessionService) CreateRecurringSessions(ctx context.Context, base models.Session, pattern string, days []string, endDate time.Time) ([]models.Session, error) {
	if err := validateSession(&base); err != nil {
		return nil, err
	}
	if endDate.IsZero() {
		return nil, newSessionError(CodeInvalidInput, "endDate is required", nil)
	}

	rule, err := recurrence.ParsePattern(pattern, days)
	if err != nil {
		return nil, classify("create recurring sessions", err)
	}
	engine := recurrence.NewEngine(s.Location, s.MaxRecurringInstances)
	occurrences, err := engine.Expand(rule, base.ScheduledAt, endDate)
	if err != nil {
		return nil, classify("create recurring sessions", err)
	}

	now := s.Now().UTC()
	end := endDate

	parent := base
	parent.ID = uuid.New().String()
	parent.IsRecurring = true
	parent.RecurringPattern = strings.ToLower(strings.TrimSpace(pattern))
	parent.RecurringDays = days
	parent.RecurringEndDate = &end
	parent.ParentSessionID = ""
	parent.WaitlistLength = 0
	parent.CreatedAt = now
	parent.UpdatedAt = now

	series := make([]models.Session, 0, len(occurrences)+1)
	series = append(series, parent)
	for _, at := range occurrences {
		child := base
		child.ID = uuid.New().String()
		child.ScheduledAt = at
		child.IsRecurring = false
		child.RecurringPattern = ""
		child.RecurringDays = nil
		child.RecurringEndDate = nil
		child.ParentSessionID = parent.ID
		child.CurrentCapacity = 0
		child.WaitlistLength = 0
		child.CreatedAt = now
		child.UpdatedAt = now
		series = append(series, child)
	}

	if err := s.Repo.CreateSessions(ctx, series); err != nil {
		s.Logger.Error("failed to create recurring series", zap.String("parentId", parent.ID), zap.Error(err))
		return nil, classify("create recurring sessions", err)
	}
	s.Logger.Info("recurring series created",
		zap.String("parentId", parent.ID),
		zap.String("pattern", parent.RecurringPattern),
		zap.Int("children", len(occurrences)))

	s.invalidateCalendar(ctx)
	for _, sess := range series {
		s.scheduleReminder(ctx, sess)
	}
	return series, nil
}
