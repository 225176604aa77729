package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/crs-api/internal/models"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Notification, error)
}

type notificationPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NotificationService delivers student notifications. Delivery is best effort: failures are
// logged and never reach the operation that triggered them.
type NotificationService struct {
	repo      notificationRepository
	publisher notificationPublisher
	channel   string
	logger    *zap.Logger
}

// NewNotificationService constructs NotificationService. Publishing is skipped when publisher is
// nil or channel is empty.
func NewNotificationService(repo notificationRepository, publisher notificationPublisher, channel string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, publisher: publisher, channel: channel, logger: logger}
}

// Notify stores the message and fans it out to subscribers.
func (s *NotificationService) Notify(ctx context.Context, studentID string, kind models.NotificationKind, message string) {
	notification := &models.Notification{StudentID: studentID, Kind: kind, Message: message}
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logger.Warn("notification not stored", zap.String("student_id", studentID), zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	if s.publisher == nil || s.channel == "" {
		return
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		s.logger.Warn("notification not encoded", zap.String("id", notification.ID), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.logger.Warn("notification not published", zap.String("id", notification.ID), zap.String("channel", s.channel), zap.Error(err))
	}
}

// List returns the latest notifications of a student.
func (s *NotificationService) List(ctx context.Context, studentID string, limit int) ([]models.Notification, error) {
	notifications, err := s.repo.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}
