package notification

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// ClientTopic is the FCM topic a client's devices subscribe to.
func ClientTopic(clientID string) string {
	return "client-" + clientID
}

// FCMDispatcher sends pushes through Firebase Cloud Messaging.
type FCMDispatcher struct {
	client *messaging.Client
	logger *zap.Logger
}

func NewFCMDispatcher(client *messaging.Client, logger *zap.Logger) (*FCMDispatcher, error) {
	if client == nil {
		return nil, fmt.Errorf("fcm dispatcher initialization error: messaging client is nil")
	}
	return &FCMDispatcher{client: client, logger: logger}, nil
}

func (d *FCMDispatcher) Send(ctx context.Context, clientID, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Topic: ClientTopic(clientID),
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	id, err := d.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send FCM message to client %s: %w", clientID, err)
	}
	d.logger.Debug("push sent", zap.String("clientId", clientID), zap.String("messageId", id))
	return nil
}

// LogDispatcher only logs messages. It is used when no Firebase credentials are configured.
type LogDispatcher struct {
	logger *zap.Logger
}

func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(_ context.Context, clientID, title, body string, data map[string]string) error {
	d.logger.Info("push (log only)",
		zap.String("clientId", clientID),
		zap.String("title", title),
		zap.String("body", body),
		zap.Any("data", data))
	return nil
}
