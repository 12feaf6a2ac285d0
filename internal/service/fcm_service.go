package service

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type messagingClient interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// FCMService sends push notifications via Firebase Cloud Messaging.
type FCMService struct {
	client messagingClient
	log    *zap.Logger
}

// NewFCMService creates an FCM service. Returns nil if Firebase is not configured.
func NewFCMService(serviceAccountPath string, log *zap.Logger) *FCMService {
	if serviceAccountPath == "" {
		return nil
	}
	ctx := context.Background()
	opt := option.WithCredentialsFile(serviceAccountPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		log.Warn("fcm: failed to init firebase app", zap.Error(err))
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Warn("fcm: failed to get messaging client", zap.Error(err))
		return nil
	}
	return &FCMService{client: client, log: log}
}

// SendToTopic pushes a notification to every device subscribed to topic.
func (s *FCMService) SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) error {
	if s == nil || topic == "" {
		return nil
	}
	msg := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:  data,
		Topic: topic,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
	id, err := s.client.Send(ctx, msg)
	if err != nil {
		s.log.Warn("fcm: send failed", zap.String("topic", topic), zap.Error(err))
		return err
	}
	s.log.Debug("fcm: sent", zap.String("topic", topic), zap.String("message_id", id))
	return nil
}
