package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crs-api/internal/models"
)

type fakeNotificationRepo struct {
	stored    []models.Notification
	createErr error
}

func (f *fakeNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	notification.ID = "n-" + notification.StudentID
	f.stored = append(f.stored, *notification)
	return nil
}

func (f *fakeNotificationRepo) ListByStudent(_ context.Context, studentID string, _ int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.stored {
		if n.StudentID == studentID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakePublisher struct {
	channel  string
	messages [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	if b, ok := message.([]byte); ok {
		f.messages = append(f.messages, b)
	}
	return redis.NewIntResult(1, f.err)
}

func TestNotificationServiceStoresAndPublishes(t *testing.T) {
	repo := &fakeNotificationRepo{}
	publisher := &fakePublisher{}
	svc := NewNotificationService(repo, publisher, "crs.notifications", nil)

	svc.Notify(context.Background(), "stu-1", models.NotificationPayment, "paid")

	require.Len(t, repo.stored, 1)
	assert.Equal(t, "crs.notifications", publisher.channel)
	require.Len(t, publisher.messages, 1)
	var published models.Notification
	require.NoError(t, json.Unmarshal(publisher.messages[0], &published))
	assert.Equal(t, "paid", published.Message)
}

func TestNotificationServiceSwallowsFailures(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("redis down")}
	svc := NewNotificationService(&fakeNotificationRepo{}, publisher, "crs.notifications", nil)
	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), "stu-1", models.NotificationRegistration, "registered")
	})

	failing := NewNotificationService(&fakeNotificationRepo{createErr: errors.New("db down")}, publisher, "crs.notifications", nil)
	failing.Notify(context.Background(), "stu-1", models.NotificationRegistration, "registered")
	assert.Len(t, publisher.messages, 1)
}

func TestNotificationServiceListReturnsEmptySlice(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationRepo{}, nil, "", nil)
	notifications, err := svc.List(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.NotNil(t, notifications)
	assert.Empty(t, notifications)
}
