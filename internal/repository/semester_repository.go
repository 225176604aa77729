package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/crs-api/internal/models"
)

const semesterColumns = "id, name, is_active, starts_on, ends_on, created_at, updated_at"

// SemesterRepository handles persistence for semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository instantiates a semester repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// List returns all semesters, most recent first.
func (r *SemesterRepository) List(ctx context.Context) ([]models.Semester, error) {
	query := fmt.Sprintf("SELECT %s FROM semesters ORDER BY created_at DESC", semesterColumns)
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// FindByID loads a semester by identifier.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM semesters WHERE id = ?", semesterColumns))
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// FindActive returns the currently active semester.
func (r *SemesterRepository) FindActive(ctx context.Context) (*models.Semester, error) {
	query := fmt.Sprintf("SELECT %s FROM semesters WHERE is_active = TRUE LIMIT 1", semesterColumns)
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query); err != nil {
		return nil, err
	}
	return &semester, nil
}

// Upsert inserts a semester or refreshes its name and dates. The active flag is only changed
// through SetActive.
func (r *SemesterRepository) Upsert(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if semester.CreatedAt.IsZero() {
		semester.CreatedAt = now
	}
	semester.UpdatedAt = now

	query := r.db.Rebind(`INSERT INTO semesters (id, name, is_active, starts_on, ends_on, created_at, updated_at)
VALUES (?, ?, FALSE, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET name = excluded.name, starts_on = excluded.starts_on, ends_on = excluded.ends_on, updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, query, semester.ID, semester.Name, semester.StartsOn, semester.EndsOn, semester.CreatedAt, semester.UpdatedAt); err != nil {
		return fmt.Errorf("upsert semester: %w", err)
	}
	return nil
}

// SetActive marks the provided semester as active and deactivates the rest. Registrations of the
// previous semester are left untouched.
func (r *SemesterRepository) SetActive(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set active tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, tx.Rebind("UPDATE semesters SET is_active = FALSE, updated_at = ? WHERE is_active = TRUE AND id <> ?"), now, id); err != nil {
		return fmt.Errorf("deactivate other semesters: %w", err)
	}

	if _, err = tx.ExecContext(ctx, tx.Rebind("UPDATE semesters SET is_active = TRUE, updated_at = ? WHERE id = ?"), now, id); err != nil {
		return fmt.Errorf("activate semester: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit set active tx: %w", err)
	}
	return nil
}
