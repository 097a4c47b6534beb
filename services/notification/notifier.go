package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymbook/models"
	"gymbook/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the subset of *asynq.Client used to queue tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskNotifier turns reservation events into asynq tasks that the worker delivers later.
type TaskNotifier struct {
	queue  Enqueuer
	lead   time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewTaskNotifier(queue Enqueuer, reminderLead time.Duration, logger *zap.Logger) (*TaskNotifier, error) {
	if queue == nil {
		return nil, fmt.Errorf("notification service initialization error: task queue is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskNotifier{queue: queue, lead: reminderLead, logger: logger, now: time.Now}, nil
}

// ScheduleSessionReminder queues a reminder `lead` before the session starts.
// Sessions already under way are skipped; a reminder whose fire time has
// passed is delivered immediately.
func (n *TaskNotifier) ScheduleSessionReminder(ctx context.Context, sess models.Session) error {
	now := n.now()
	if !sess.ScheduledAt.After(now) {
		return nil
	}
	fireAt := sess.ScheduledAt.Add(-n.lead)
	if fireAt.Before(now) {
		fireAt = now
	}

	task, opts, err := tasks.NewReminderTask(models.ReminderPayload{
		SessionID:   sess.ID,
		Title:       sess.Title,
		ScheduledAt: sess.ScheduledAt.UTC().Format(time.RFC3339),
	}, fireAt)
	if err != nil {
		return fmt.Errorf("failed to build reminder task: %w", err)
	}

	info, err := n.queue.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		n.logger.Debug("reminder already scheduled", zap.String("sessionId", sess.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue reminder for session %s: %w", sess.ID, err)
	}
	n.logger.Info("reminder scheduled",
		zap.String("sessionId", sess.ID),
		zap.String("taskId", info.ID),
		zap.Time("fireAt", fireAt))
	return nil
}

func (n *TaskNotifier) NotifyWaitlistPromotion(ctx context.Context, sess models.Session, booking models.Booking) error {
	task, opts, err := tasks.NewPromotionTask(models.PromotionPayload{
		SessionID:   sess.ID,
		ClientID:    booking.ClientID,
		BookingID:   booking.ID,
		Title:       sess.Title,
		ScheduledAt: sess.ScheduledAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to build promotion task: %w", err)
	}
	if _, err := n.queue.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue promotion for client %s: %w", booking.ClientID, err)
	}
	n.logger.Info("waitlist promotion queued",
		zap.String("sessionId", sess.ID),
		zap.String("clientId", booking.ClientID))
	return nil
}

func (n *TaskNotifier) NotifySessionCancelled(ctx context.Context, sess models.Session, clientIDs []string) error {
	if len(clientIDs) == 0 {
		return nil
	}
	task, opts, err := tasks.NewCancellationTask(models.CancellationPayload{
		SessionID:   sess.ID,
		Title:       sess.Title,
		ScheduledAt: sess.ScheduledAt.UTC().Format(time.RFC3339),
		ClientIDs:   clientIDs,
	})
	if err != nil {
		return fmt.Errorf("failed to build cancellation task: %w", err)
	}
	if _, err := n.queue.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue cancellation of session %s: %w", sess.ID, err)
	}
	n.logger.Info("session cancellation queued",
		zap.String("sessionId", sess.ID),
		zap.Int("recipients", len(clientIDs)))
	return nil
}
