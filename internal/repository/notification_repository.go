package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/crs-api/internal/models"
)

// NotificationRepository stores delivered student notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create persists a notification.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	query := r.db.Rebind("INSERT INTO notifications (id, student_id, kind, message, created_at) VALUES (?, ?, ?, ?, ?)")
	if _, err := r.db.ExecContext(ctx, query, notification.ID, notification.StudentID, notification.Kind, notification.Message, notification.CreatedAt); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByStudent returns the latest notifications for a student.
func (r *NotificationRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := r.db.Rebind(fmt.Sprintf("SELECT id, student_id, kind, message, created_at FROM notifications WHERE student_id = ? ORDER BY created_at DESC LIMIT %d", limit))
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, studentID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}
