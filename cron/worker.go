package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	schedulerRepo "gymbook/database/repository/scheduler"
	"gymbook/models"
	"gymbook/services/notification"
	"gymbook/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker consumes the notification tasks queued by the reservation flow.
type Worker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewWorker wires the task handlers against the given store and dispatcher.
// Multi-recipient events are fanned out through queue, one push task per client.
func NewWorker(
	redisOpts asynq.RedisClientOpt,
	concurrency int,
	repo schedulerRepo.SchedulerRepository,
	queue notification.Enqueuer,
	dispatcher notification.Dispatcher,
	logger *zap.Logger,
) *Worker {
	if concurrency <= 0 {
		concurrency = 10
	}
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSessionReminder, HandleSessionReminder(repo, queue, logger))
	mux.HandleFunc(tasks.TypeWaitlistPromoted, HandleWaitlistPromoted(dispatcher, logger))
	mux.HandleFunc(tasks.TypeSessionCancelled, HandleSessionCancelled(queue, logger))
	mux.HandleFunc(tasks.TypeClientPush, HandleClientPush(dispatcher, logger))

	return &Worker{srv: srv, mux: mux, logger: logger}
}

// Start runs the worker in the background, retrying startup with backoff.
func (w *Worker) Start() {
	go func() {
		w.logger.Info("[SessionWorker] starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.srv.Start(w.mux)
			if err == nil {
				return
			}
			w.logger.Error("[SessionWorker] failed to start worker",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				w.logger.Error("[SessionWorker] max retry attempts reached, notifications disabled")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
}

// Shutdown stops fetching tasks and waits for in-flight handlers.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

// fanOut queues one push task per client. Ids are derived from the event, so
// pushes queued by an earlier attempt are left alone when the fan-out retries.
func fanOut(ctx context.Context, queue notification.Enqueuer, logger *zap.Logger, event, sessionID string, clientIDs []string, title, body string) error {
	failed := 0
	for _, id := range clientIDs {
		task, opts, err := tasks.NewPushTask(models.PushPayload{
			ClientID: id,
			Title:    title,
			Body:     body,
			Data: map[string]string{
				"type":      event,
				"sessionId": sessionID,
			},
		}, tasks.PushTaskID(event, sessionID, id))
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		_, err = queue.EnqueueContext(ctx, task, opts...)
		if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
			failed++
			logger.Warn("failed to queue push", zap.String("clientId", id), zap.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pushes not queued", failed, len(clientIDs))
	}
	return nil
}

// HandleClientPush delivers one queued push; a failure retries only this recipient.
func HandleClientPush(d notification.Dispatcher, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.PushPayload
		if err := tasks.Decode(task, &p); err != nil {
			logger.Error("[PushHandler] invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err := d.Send(ctx, p.ClientID, p.Title, p.Body, p.Data); err != nil {
			logger.Warn("[PushHandler] delivery failed", zap.String("clientId", p.ClientID), zap.Error(err))
			return err
		}
		return nil
	}
}

func HandleSessionReminder(repo schedulerRepo.SchedulerRepository, queue notification.Enqueuer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := tasks.Decode(task, &p); err != nil {
			logger.Error("[ReminderHandler] invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		sess, err := repo.GetSessionByID(ctx, p.SessionID)
		if errors.Is(err, schedulerRepo.ErrSessionNotFound) {
			logger.Info("[ReminderHandler] session gone, skipping", zap.String("sessionId", p.SessionID))
			return nil
		}
		if err != nil {
			return err
		}
		if !sess.Status.Bookable() {
			logger.Info("[ReminderHandler] session no longer open, skipping",
				zap.String("sessionId", sess.ID),
				zap.String("status", string(sess.Status)))
			return nil
		}

		bookings, err := repo.GetSessionBookings(ctx, sess.ID)
		if err != nil {
			return err
		}
		clientIDs := make([]string, 0, len(bookings))
		for _, b := range bookings {
			clientIDs = append(clientIDs, b.ClientID)
		}

		title := "Your session starts soon"
		body := fmt.Sprintf("%s starts at %s.", sess.Title, sess.ScheduledAt.UTC().Format(time.Kitchen+" MST"))
		logger.Info("[ReminderHandler] sending reminders",
			zap.String("sessionId", sess.ID),
			zap.Int("recipients", len(clientIDs)))
		return fanOut(ctx, queue, logger, tasks.TypeSessionReminder, sess.ID, clientIDs, title, body)
	}
}

func HandleWaitlistPromoted(d notification.Dispatcher, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.PromotionPayload
		if err := tasks.Decode(task, &p); err != nil {
			logger.Error("[PromotionHandler] invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		title := "You're off the waitlist"
		body := fmt.Sprintf("A seat opened up in %s and it is now yours.", p.Title)
		return d.Send(ctx, p.ClientID, title, body, map[string]string{
			"type":      tasks.TypeWaitlistPromoted,
			"sessionId": p.SessionID,
			"bookingId": p.BookingID,
		})
	}
}

func HandleSessionCancelled(queue notification.Enqueuer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.CancellationPayload
		if err := tasks.Decode(task, &p); err != nil {
			logger.Error("[CancellationHandler] invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		title := "Session cancelled"
		body := fmt.Sprintf("%s scheduled for %s has been cancelled.", p.Title, p.ScheduledAt)
		return fanOut(ctx, queue, logger, tasks.TypeSessionCancelled, p.SessionID, p.ClientIDs, title, body)
	}
}
