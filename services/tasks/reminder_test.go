package tasks

import (
	"testing"
	"time"

	"gymbook/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReminderTask(t *testing.T) {
	fireAt := time.Date(2025, 1, 8, 8, 30, 0, 0, time.UTC)
	task, opts, err := NewReminderTask(models.ReminderPayload{
		SessionID:   "s-1",
		Title:       "Spin",
		ScheduledAt: "2025-01-08T09:00:00Z",
	}, fireAt)
	require.NoError(t, err)

	assert.Equal(t, TypeSessionReminder, task.Type())
	assert.Len(t, opts, 2)

	var got models.ReminderPayload
	require.NoError(t, Decode(task, &got))
	assert.Equal(t, "s-1", got.SessionID)
	assert.Equal(t, "Spin", got.Title)
	assert.Equal(t, "reminder:s-1", ReminderTaskID("s-1"))
}

func TestNewPromotionAndCancellationTasks(t *testing.T) {
	promo, _, err := NewPromotionTask(models.PromotionPayload{SessionID: "s-1", ClientID: "c-1", BookingID: "b-1"})
	require.NoError(t, err)
	assert.Equal(t, TypeWaitlistPromoted, promo.Type())

	var p models.PromotionPayload
	require.NoError(t, Decode(promo, &p))
	assert.Equal(t, "c-1", p.ClientID)

	cancelled, _, err := NewCancellationTask(models.CancellationPayload{SessionID: "s-1", ClientIDs: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, TypeSessionCancelled, cancelled.Type())

	var c models.CancellationPayload
	require.NoError(t, Decode(cancelled, &c))
	assert.Equal(t, []string{"a", "b"}, c.ClientIDs)
}

func TestNewPushTask(t *testing.T) {
	id := PushTaskID(TypeSessionCancelled, "s-1", "c-1")
	assert.Equal(t, "push:session:cancelled:s-1:c-1", id)
	assert.NotEqual(t, id, PushTaskID(TypeSessionReminder, "s-1", "c-1"))

	task, opts, err := NewPushTask(models.PushPayload{
		ClientID: "c-1",
		Title:    "Session cancelled",
		Data:     map[string]string{"sessionId": "s-1"},
	}, id)
	require.NoError(t, err)
	assert.Equal(t, TypeClientPush, task.Type())

	found := map[asynq.OptionType]interface{}{}
	for _, o := range opts {
		found[o.Type()] = o.Value()
	}
	assert.Equal(t, id, found[asynq.TaskIDOpt])
	assert.Equal(t, pushRetention, found[asynq.RetentionOpt])

	var p models.PushPayload
	require.NoError(t, Decode(task, &p))
	assert.Equal(t, "c-1", p.ClientID)
	assert.Equal(t, "s-1", p.Data["sessionId"])
}

func TestDecodeRejectsGarbage(t *testing.T) {
	err := Decode(asynq.NewTask(TypeSessionReminder, []byte("{not json")), &models.ReminderPayload{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), TypeSessionReminder)
}
