package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/crs-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID loads a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := r.db.Rebind("SELECT id, full_name, email, approved, created_at, updated_at FROM students WHERE id = ?")
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Upsert inserts a student or refreshes name, email and approval.
func (r *StudentRepository) Upsert(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	query := r.db.Rebind(`INSERT INTO students (id, full_name, email, approved, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET full_name = excluded.full_name, email = excluded.email, approved = excluded.approved, updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, query, student.ID, student.FullName, student.Email, student.Approved, student.CreatedAt, student.UpdatedAt); err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}
	return nil
}
