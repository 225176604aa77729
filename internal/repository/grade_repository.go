package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/crs-api/internal/models"
)

// GradeRepository reads professor-entered grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// ListForStudent returns the grades a student holds for allotted courses in a semester.
func (r *GradeRepository) ListForStudent(ctx context.Context, studentID, semesterID string) ([]models.Grade, error) {
	query := r.db.Rebind(`SELECT g.id, g.student_id, g.course_id, g.semester_id, g.grade, g.grade_points, g.created_at,
        c.code AS course_code, c.name AS course_name
        FROM grades g
        JOIN courses c ON c.id = g.course_id
        JOIN registrations r ON r.student_id = g.student_id AND r.semester_id = g.semester_id
        JOIN selections s ON s.registration_id = r.id AND s.course_id = g.course_id AND s.allotted = TRUE
        WHERE g.student_id = ? AND g.semester_id = ?
        ORDER BY c.code`)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID, semesterID); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// Upsert records a grade for a (student, course, semester) triple.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = time.Now().UTC()
	}
	query := r.db.Rebind(`INSERT INTO grades (id, student_id, course_id, semester_id, grade, grade_points, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (student_id, course_id, semester_id) DO UPDATE SET grade = excluded.grade, grade_points = excluded.grade_points`)
	if _, err := r.db.ExecContext(ctx, query, grade.ID, grade.StudentID, grade.CourseID, grade.SemesterID, grade.Grade, grade.GradePoints, grade.CreatedAt); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}
