package models

import "time"

// NotificationKind classifies student-facing messages.
type NotificationKind string

const (
	NotificationRegistration NotificationKind = "REGISTRATION"
	NotificationPayment      NotificationKind = "PAYMENT"
)

// Notification is a human-readable status message delivered to a student.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Kind      NotificationKind `db:"kind" json:"kind"`
	Message   string           `db:"message" json:"message"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
