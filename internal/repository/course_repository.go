package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/crs-api/internal/models"
)

// CourseRepository reads the course catalogue.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns catalogue entries matching the filter ordered by course code.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses WHERE 1=1"
	var args []interface{}
	if filter.Search != "" {
		base += " AND (LOWER(code) LIKE ? OR LOWER(name) LIKE ?)"
		term := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, term, term)
	}
	if filter.AvailableOnly {
		base += " AND enrolled_count < capacity"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY code ASC LIMIT %d OFFSET %d", courseColumns, base, size, offset)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) "+base), args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID loads a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM courses WHERE id = ?", courseColumns))
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Upsert inserts a course or refreshes its catalogue fields, keyed by code. Enrolled counts are
// never overwritten.
func (r *CourseRepository) Upsert(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	query := r.db.Rebind(`INSERT INTO courses (id, code, name, fee, enrolled_count, capacity, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (code) DO UPDATE SET name = excluded.name, fee = excluded.fee, capacity = excluded.capacity, updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, query, course.ID, course.Code, course.Name, course.Fee, course.EnrolledCount, course.Capacity, course.CreatedAt, course.UpdatedAt); err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}
	return nil
}
