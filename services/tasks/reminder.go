package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"gymbook/models"

	"github.com/hibiken/asynq"
)

const (
	TypeSessionReminder  = "session:reminder"
	TypeWaitlistPromoted = "waitlist:promoted"
	TypeSessionCancelled = "session:cancelled"
	TypeClientPush       = "client:push"
)

// pushRetention keeps a delivered push's id reserved, so a fan-out that is
// retried after partial failure does not queue it again.
const pushRetention = 24 * time.Hour

// ReminderTaskID is the unique id of a session's reminder, so re-scheduling
// the same session does not queue a second reminder.
func ReminderTaskID(sessionID string) string {
	return "reminder:" + sessionID
}

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSessionReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(ReminderTaskID(payload.SessionID)),
	}

	return task, opts, nil
}

func NewPromotionTask(payload models.PromotionPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	return asynq.NewTask(TypeWaitlistPromoted, b), []asynq.Option{asynq.MaxRetry(5)}, nil
}

func NewCancellationTask(payload models.CancellationPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	return asynq.NewTask(TypeSessionCancelled, b), []asynq.Option{asynq.MaxRetry(5)}, nil
}

// PushTaskID identifies the push of one event to one client.
func PushTaskID(event, sessionID, clientID string) string {
	return "push:" + event + ":" + sessionID + ":" + clientID
}

func NewPushTask(payload models.PushPayload, taskID string) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.TaskID(taskID),
		asynq.MaxRetry(5),
		asynq.Retention(pushRetention),
	}
	return asynq.NewTask(TypeClientPush, b), opts, nil
}

// Decode unmarshals a task payload into v.
func Decode(task *asynq.Task, v interface{}) error {
	if err := json.Unmarshal(task.Payload(), v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", task.Type(), err)
	}
	return nil
}
