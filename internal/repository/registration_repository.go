package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/crs-api/internal/models"
)

// ErrRegistrationNotFound is returned when a unit of work is requested for a registration that
// does not exist and lazy creation was not asked for.
var ErrRegistrationNotFound = errors.New("registration not found")

const (
	registrationColumns = "id, student_id, semester_id, submitted, fee_paid, total_fee, submitted_at, paid_at, created_at, updated_at"
	selectionDetailSQL  = `SELECT s.id, s.registration_id, s.course_id, s.is_primary, s.allotted, s.seq, s.created_at,
        c.code AS course_code, c.name AS course_name, c.fee
        FROM selections s JOIN courses c ON c.id = s.course_id`
	courseColumns = "id, code, name, fee, enrolled_count, capacity, created_at, updated_at"
)

// RegistrationLedger exposes the reads and writes permitted while a student's registration row is
// held exclusively. Every method runs on the enclosing transaction.
type RegistrationLedger interface {
	Registration() models.Registration
	Selections(ctx context.Context) ([]models.SelectionDetail, error)
	Course(ctx context.Context, courseID string) (*models.Course, error)
	AddSelection(ctx context.Context, courseID string, primary bool) (*models.Selection, error)
	DropSelection(ctx context.Context, courseID string) (bool, error)
	ClaimSeat(ctx context.Context, courseID string) (bool, error)
	MarkAllotted(ctx context.Context, selectionID string) error
	MarkSubmitted(ctx context.Context, totalFee float64, at time.Time) (bool, error)
	MarkFeePaid(ctx context.Context, payment *models.Payment) (bool, error)
}

// RegistrationRepository persists registrations, selections and payments.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// FindByStudent loads the registration of a student for a semester.
func (r *RegistrationRepository) FindByStudent(ctx context.Context, studentID, semesterID string) (*models.Registration, error) {
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM registrations WHERE student_id = ? AND semester_id = ?", registrationColumns))
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, studentID, semesterID); err != nil {
		return nil, err
	}
	return &registration, nil
}

// ListSelections returns the selections of a registration in insertion order.
func (r *RegistrationRepository) ListSelections(ctx context.Context, registrationID string, allottedOnly bool) ([]models.SelectionDetail, error) {
	query := selectionDetailSQL + " WHERE s.registration_id = ?"
	if allottedOnly {
		query += " AND s.allotted = TRUE"
	}
	query += " ORDER BY s.seq"

	var selections []models.SelectionDetail
	if err := r.db.SelectContext(ctx, &selections, r.db.Rebind(query), registrationID); err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	return selections, nil
}

// ListPayments returns payments recorded against a registration.
func (r *RegistrationRepository) ListPayments(ctx context.Context, registrationID string) ([]models.Payment, error) {
	query := r.db.Rebind("SELECT id, registration_id, amount, method, reference, paid_at FROM payments WHERE registration_id = ? ORDER BY paid_at")
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, registrationID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// WithRegistration runs fn in a transaction that holds the (student, semester) registration row.
// When create is set the row is created on demand; a failing fn rolls the creation back.
func (r *RegistrationRepository) WithRegistration(ctx context.Context, studentID, semesterID string, create bool, fn func(RegistrationLedger) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if create {
		insert := tx.Rebind(`INSERT INTO registrations (id, student_id, semester_id, submitted, fee_paid, total_fee, created_at, updated_at)
VALUES (?, ?, ?, FALSE, FALSE, 0, ?, ?) ON CONFLICT (student_id, semester_id) DO NOTHING`)
		if _, err = tx.ExecContext(ctx, insert, uuid.NewString(), studentID, semesterID, now, now); err != nil {
			return fmt.Errorf("create registration: %w", err)
		}
	}

	// The touch takes the row lock for the remainder of the transaction.
	res, err := tx.ExecContext(ctx, tx.Rebind("UPDATE registrations SET updated_at = ? WHERE student_id = ? AND semester_id = ?"), now, studentID, semesterID)
	if err != nil {
		return fmt.Errorf("lock registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("lock registration rows: %w", err)
	}
	if affected == 0 {
		return ErrRegistrationNotFound
	}

	var registration models.Registration
	if err = tx.GetContext(ctx, &registration, tx.Rebind(fmt.Sprintf("SELECT %s FROM registrations WHERE student_id = ? AND semester_id = ?", registrationColumns)), studentID, semesterID); err != nil {
		return fmt.Errorf("load registration: %w", err)
	}

	if err = fn(&txLedger{tx: tx, registration: registration}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit registration tx: %w", err)
	}
	committed = true
	return nil
}

// IsRetryable reports whether err is a transient postgres conflict worth replaying.
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "40001", "40P01":
		return true
	default:
		return false
	}
}

type txLedger struct {
	tx           *sqlx.Tx
	registration models.Registration
}

func (l *txLedger) Registration() models.Registration {
	return l.registration
}

func (l *txLedger) Selections(ctx context.Context) ([]models.SelectionDetail, error) {
	var selections []models.SelectionDetail
	query := l.tx.Rebind(selectionDetailSQL + " WHERE s.registration_id = ? ORDER BY s.seq")
	if err := l.tx.SelectContext(ctx, &selections, query, l.registration.ID); err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	return selections, nil
}

func (l *txLedger) Course(ctx context.Context, courseID string) (*models.Course, error) {
	var course models.Course
	query := l.tx.Rebind(fmt.Sprintf("SELECT %s FROM courses WHERE id = ?", courseColumns))
	if err := l.tx.GetContext(ctx, &course, query, courseID); err != nil {
		return nil, err
	}
	return &course, nil
}

func (l *txLedger) AddSelection(ctx context.Context, courseID string, primary bool) (*models.Selection, error) {
	var seq int
	if err := l.tx.GetContext(ctx, &seq, l.tx.Rebind("SELECT COALESCE(MAX(seq), 0) + 1 FROM selections WHERE registration_id = ?"), l.registration.ID); err != nil {
		return nil, fmt.Errorf("next selection seq: %w", err)
	}

	selection := &models.Selection{
		ID:             uuid.NewString(),
		RegistrationID: l.registration.ID,
		CourseID:       courseID,
		IsPrimary:      primary,
		Seq:            seq,
		CreatedAt:      time.Now().UTC(),
	}
	query := l.tx.Rebind("INSERT INTO selections (id, registration_id, course_id, is_primary, allotted, seq, created_at) VALUES (?, ?, ?, ?, FALSE, ?, ?)")
	if _, err := l.tx.ExecContext(ctx, query, selection.ID, selection.RegistrationID, selection.CourseID, selection.IsPrimary, selection.Seq, selection.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert selection: %w", err)
	}
	return selection, nil
}

func (l *txLedger) DropSelection(ctx context.Context, courseID string) (bool, error) {
	res, err := l.tx.ExecContext(ctx, l.tx.Rebind("DELETE FROM selections WHERE registration_id = ? AND course_id = ?"), l.registration.ID, courseID)
	if err != nil {
		return false, fmt.Errorf("delete selection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete selection rows: %w", err)
	}
	return affected == 1, nil
}

// ClaimSeat increments the enrolled count only while a seat is free, so concurrent claims on the
// last seat cannot both succeed.
func (l *txLedger) ClaimSeat(ctx context.Context, courseID string) (bool, error) {
	query := l.tx.Rebind("UPDATE courses SET enrolled_count = enrolled_count + 1, updated_at = ? WHERE id = ? AND enrolled_count < capacity")
	res, err := l.tx.ExecContext(ctx, query, time.Now().UTC(), courseID)
	if err != nil {
		return false, fmt.Errorf("claim seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim seat rows: %w", err)
	}
	return affected == 1, nil
}

func (l *txLedger) MarkAllotted(ctx context.Context, selectionID string) error {
	query := l.tx.Rebind("UPDATE selections SET allotted = TRUE WHERE id = ? AND registration_id = ?")
	if _, err := l.tx.ExecContext(ctx, query, selectionID, l.registration.ID); err != nil {
		return fmt.Errorf("mark selection allotted: %w", err)
	}
	return nil
}

func (l *txLedger) MarkSubmitted(ctx context.Context, totalFee float64, at time.Time) (bool, error) {
	query := l.tx.Rebind("UPDATE registrations SET submitted = TRUE, total_fee = ?, submitted_at = ?, updated_at = ? WHERE id = ? AND submitted = FALSE")
	res, err := l.tx.ExecContext(ctx, query, totalFee, at, at, l.registration.ID)
	if err != nil {
		return false, fmt.Errorf("mark registration submitted: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark registration submitted rows: %w", err)
	}
	if affected != 1 {
		return false, nil
	}
	l.registration.Submitted = true
	l.registration.TotalFee = totalFee
	l.registration.SubmittedAt = &at
	return true, nil
}

func (l *txLedger) MarkFeePaid(ctx context.Context, payment *models.Payment) (bool, error) {
	query := l.tx.Rebind("UPDATE registrations SET fee_paid = TRUE, paid_at = ?, updated_at = ? WHERE id = ? AND submitted = TRUE AND fee_paid = FALSE")
	res, err := l.tx.ExecContext(ctx, query, payment.PaidAt, payment.PaidAt, l.registration.ID)
	if err != nil {
		return false, fmt.Errorf("mark fee paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark fee paid rows: %w", err)
	}
	if affected != 1 {
		return false, nil
	}

	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.Reference == "" {
		payment.Reference = uuid.NewString()
	}
	payment.RegistrationID = l.registration.ID
	insert := l.tx.Rebind("INSERT INTO payments (id, registration_id, amount, method, reference, paid_at) VALUES (?, ?, ?, ?, ?, ?)")
	if _, err := l.tx.ExecContext(ctx, insert, payment.ID, payment.RegistrationID, payment.Amount, payment.Method, payment.Reference, payment.PaidAt); err != nil {
		return false, fmt.Errorf("insert payment: %w", err)
	}

	l.registration.FeePaid = true
	l.registration.PaidAt = &payment.PaidAt
	return true, nil
}

var _ RegistrationLedger = (*txLedger)(nil)
