package service

import (
	"context"
	"fmt"

	"civicadmin/internal/domain"
	"civicadmin/internal/models"
)

// TopicPusher delivers a notification to a push topic.
type TopicPusher interface {
	SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) error
}

// NotificationService tells a report's followers that its status changed.
// Mobile clients subscribe to the topic "<prefix><report id>".
type NotificationService struct {
	push        TopicPusher
	topicPrefix string
}

func NewNotificationService(push TopicPusher, topicPrefix string) *NotificationService {
	return &NotificationService{push: push, topicPrefix: topicPrefix}
}

func (s *NotificationService) Topic(reportID string) string {
	return s.topicPrefix + reportID
}

func (s *NotificationService) NotifyStatusChanged(ctx context.Context, r *models.Report, from string) error {
	if s == nil || s.push == nil {
		return nil
	}
	title := "Report update"
	body := fmt.Sprintf("%q is now %s", r.Title, domain.StatusLabel(r.Status))
	return s.push.SendToTopic(ctx, s.Topic(r.ID), title, body, map[string]string{
		"type":      "REPORT_STATUS_CHANGED",
		"report_id": r.ID,
		"from":      from,
		"status":    r.Status,
	})
}
