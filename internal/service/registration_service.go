package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/crs-api/internal/models"
	"github.com/noah-isme/crs-api/internal/repository"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
)

// Selection quotas and allotment bounds.
const (
	MaxPrimaryCourses   = 4
	MaxSecondaryCourses = 2
	// RequiredSelections is the eligibility floor for submission, not a cap.
	RequiredSelections = MaxPrimaryCourses + MaxSecondaryCourses
	// MaxStudentLimit is the default seat capacity of a course.
	MaxStudentLimit = 10
	// MaxAllottedCourses bounds the seats one student can be allotted; the secondary phase stops
	// once it is reached.
	MaxAllottedCourses = 6
)

const (
	selectionAdded   = "added"
	selectionDropped = "dropped"
)

const tracerName = "github.com/noah-isme/crs-api/internal/service"

type registrationStore interface {
	FindByStudent(ctx context.Context, studentID, semesterID string) (*models.Registration, error)
	ListSelections(ctx context.Context, registrationID string, allottedOnly bool) ([]models.SelectionDetail, error)
	ListPayments(ctx context.Context, registrationID string) ([]models.Payment, error)
	WithRegistration(ctx context.Context, studentID, semesterID string, create bool, fn func(repository.RegistrationLedger) error) error
}

type activeSemesterReader interface {
	FindActive(ctx context.Context) (*models.Semester, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type registrationNotifier interface {
	Notify(ctx context.Context, studentID string, kind models.NotificationKind, message string)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// AddSelectionRequest describes a candidate course selection.
type AddSelectionRequest struct {
	CourseID string `json:"course_id" validate:"required"`
	Primary  bool   `json:"primary"`
}

// RegistrationSummary is the read model of a student's registration for the active semester.
type RegistrationSummary struct {
	RegistrationID string                   `json:"registration_id,omitempty"`
	SemesterID     string                   `json:"semester_id"`
	SemesterName   string                   `json:"semester_name"`
	State          models.RegistrationState `json:"state"`
	PrimaryCount   int                      `json:"primary_count"`
	SecondaryCount int                      `json:"secondary_count"`
	AllottedCount  int                      `json:"allotted_count"`
	TotalFee       float64                  `json:"total_fee"`
	PendingFee     float64                  `json:"pending_fee"`
	SubmittedAt    *time.Time               `json:"submitted_at,omitempty"`
	PaidAt         *time.Time               `json:"paid_at,omitempty"`
	Payments       []models.Payment         `json:"payments,omitempty"`
}

// RegistrationService is the single implementation of course selection, allocation and the fee
// ledger. Every operation is scoped to one student of the active semester.
type RegistrationService struct {
	store     registrationStore
	semesters activeSemesterReader
	students  studentReader
	notifier  registrationNotifier
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	tracer    trace.Tracer
	retries   int
	now       func() time.Time
}

// NewRegistrationService constructs RegistrationService. submitRetries bounds how often a submit
// is replayed after a transient database conflict.
func NewRegistrationService(store registrationStore, semesters activeSemesterReader, students studentReader, notifier registrationNotifier, cache cacheInvalidator, metrics *MetricsService, submitRetries int, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if submitRetries < 0 {
		submitRetries = 0
	}
	return &RegistrationService{
		store:     store,
		semesters: semesters,
		students:  students,
		notifier:  notifier,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		retries:   submitRetries,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type registrationScope struct {
	semester *models.Semester
	student  *models.Student
}

// scope resolves the active semester and the approved student an operation acts on.
func (s *RegistrationService) scope(ctx context.Context, studentID string) (*registrationScope, error) {
	semester, err := s.semesters.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNoActiveSemester
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active semester")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithDetails(appErrors.ErrNotFound, "student not found", map[string]interface{}{"student_id": studentID})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Approved {
		return nil, appErrors.WithDetails(appErrors.ErrStudentNotApproved, "", map[string]interface{}{"student_id": studentID})
	}
	return &registrationScope{semester: semester, student: student}, nil
}

// AddSelection records a candidate course for the student, creating the registration on the
// first selection of the semester.
func (s *RegistrationService) AddSelection(ctx context.Context, studentID string, req AddSelectionRequest) (detail *models.SelectionDetail, err error) {
	ctx, span := s.startSpan(ctx, "registration.AddSelection", studentID,
		attribute.String("course.id", req.CourseID), attribute.Bool("selection.primary", req.Primary))
	defer func() { err = s.finish(span, "add_selection", err, "failed to add selection") }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection payload")
	}
	scope, err := s.scope(ctx, studentID)
	if err != nil {
		return nil, err
	}

	tier := models.TierOf(req.Primary)
	err = s.store.WithRegistration(ctx, studentID, scope.semester.ID, true, func(ledger repository.RegistrationLedger) error {
		if ledger.Registration().Submitted {
			return alreadyRegistered(studentID, scope.semester.ID)
		}

		selections, err := ledger.Selections(ctx)
		if err != nil {
			return err
		}
		limit := tierQuota(tier)
		if countTier(selections, tier) >= limit {
			return appErrors.WithDetails(appErrors.ErrQuotaExceeded,
				fmt.Sprintf("only %d %s courses may be selected", limit, tier),
				map[string]interface{}{"student_id": studentID, "tier": tier, "limit": limit})
		}
		for _, selection := range selections {
			if selection.CourseID == req.CourseID {
				return appErrors.WithDetails(appErrors.ErrDuplicateSelection,
					fmt.Sprintf("course %s already selected", selection.CourseCode),
					map[string]interface{}{"student_id": studentID, "course_id": req.CourseID})
			}
		}

		course, err := ledger.Course(ctx, req.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.WithDetails(appErrors.ErrNotFound, "course not found", map[string]interface{}{"course_id": req.CourseID})
			}
			return err
		}
		if !course.HasSeat() {
			return appErrors.WithDetails(appErrors.ErrSeatUnavailable,
				fmt.Sprintf("course %s is full", course.Code),
				map[string]interface{}{"course_id": course.ID, "capacity": course.Capacity})
		}

		selection, err := ledger.AddSelection(ctx, course.ID, req.Primary)
		if err != nil {
			return err
		}
		detail = &models.SelectionDetail{Selection: *selection, CourseCode: course.Code, CourseName: course.Name, Fee: course.Fee}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSelection(selectionAdded, tier)
	s.logger.Info("course selected",
		zap.String("student_id", studentID),
		zap.String("course_id", req.CourseID),
		zap.String("tier", string(tier)),
	)
	return detail, nil
}

// DropSelection removes a candidate course before submission.
func (s *RegistrationService) DropSelection(ctx context.Context, studentID, courseID string) (err error) {
	ctx, span := s.startSpan(ctx, "registration.DropSelection", studentID, attribute.String("course.id", courseID))
	defer func() { err = s.finish(span, "drop_selection", err, "failed to drop selection") }()

	scope, err := s.scope(ctx, studentID)
	if err != nil {
		return err
	}

	notSelected := appErrors.WithDetails(appErrors.ErrNotSelected, "course not among current selections",
		map[string]interface{}{"student_id": studentID, "course_id": courseID})

	var tier models.Tier
	err = s.store.WithRegistration(ctx, studentID, scope.semester.ID, false, func(ledger repository.RegistrationLedger) error {
		if ledger.Registration().Submitted {
			return alreadyRegistered(studentID, scope.semester.ID)
		}
		selections, err := ledger.Selections(ctx)
		if err != nil {
			return err
		}
		found := false
		for _, selection := range selections {
			if selection.CourseID == courseID {
				tier, found = selection.Tier(), true
				break
			}
		}
		if !found {
			return notSelected
		}
		dropped, err := ledger.DropSelection(ctx, courseID)
		if err != nil {
			return err
		}
		if !dropped {
			return notSelected
		}
		return nil
	})
	if errors.Is(err, repository.ErrRegistrationNotFound) {
		return notSelected
	}
	if err != nil {
		return err
	}

	s.metrics.RecordSelection(selectionDropped, tier)
	s.logger.Info("course dropped", zap.String("student_id", studentID), zap.String("course_id", courseID))
	return nil
}

// ListSelections returns the candidate list, or the allotted subset once registeredOnly is set.
func (s *RegistrationService) ListSelections(ctx context.Context, studentID string, registeredOnly bool) (selections []models.SelectionDetail, err error) {
	ctx, span := s.startSpan(ctx, "registration.ListSelections", studentID, attribute.Bool("registered_only", registeredOnly))
	defer func() { err = s.finish(span, "list_selections", err, "failed to list selections") }()

	scope, err := s.scope(ctx, studentID)
	if err != nil {
		return nil, err
	}
	noSelections := appErrors.WithDetails(appErrors.ErrNoSelections, "", map[string]interface{}{"student_id": studentID})

	registration, err := s.store.FindByStudent(ctx, studentID, scope.semester.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if registeredOnly {
				return nil, notRegistered(studentID, scope.semester.ID)
			}
			return nil, noSelections
		}
		return nil, err
	}
	if registeredOnly && !registration.Submitted {
		return nil, notRegistered(studentID, scope.semester.ID)
	}

	selections, err = s.store.ListSelections(ctx, registration.ID, registeredOnly)
	if err != nil {
		return nil, err
	}
	if len(selections) == 0 {
		return nil, noSelections
	}
	return selections, nil
}

// Registration summarises the student's registration for the active semester. A student who has
// not selected anything yet is reported in the building state.
func (s *RegistrationService) Registration(ctx context.Context, studentID string) (summary *RegistrationSummary, err error) {
	ctx, span := s.startSpan(ctx, "registration.Summary", studentID)
	defer func() { err = s.finish(span, "registration_summary", err, "failed to load registration") }()

	scope, err := s.scope(ctx, studentID)
	if err != nil {
		return nil, err
	}
	summary = &RegistrationSummary{
		SemesterID:   scope.semester.ID,
		SemesterName: scope.semester.Name,
		State:        models.RegistrationBuilding,
	}

	registration, err := s.store.FindByStudent(ctx, studentID, scope.semester.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return summary, nil
		}
		return nil, err
	}
	selections, err := s.store.ListSelections(ctx, registration.ID, false)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPayments(ctx, registration.ID)
	if err != nil {
		return nil, err
	}

	summary.RegistrationID = registration.ID
	summary.State = registration.State()
	summary.TotalFee = registration.TotalFee
	summary.PendingFee = pendingAmount(registration)
	summary.SubmittedAt = registration.SubmittedAt
	summary.PaidAt = registration.PaidAt
	summary.Payments = payments
	summary.PrimaryCount = countTier(selections, models.TierPrimary)
	summary.SecondaryCount = countTier(selections, models.TierSecondary)
	for _, selection := range selections {
		if selection.Allotted {
			summary.AllottedCount++
		}
	}
	return summary, nil
}

func (s *RegistrationService) startSpan(ctx context.Context, name, studentID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("student.id", studentID))
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// finish normalises err into an application error, records it on the span and ends the span.
func (s *RegistrationService) finish(span trace.Span, operation string, err error, message string) error {
	defer span.End()
	if err == nil {
		return nil
	}
	appErr := toAppError(err, message)
	span.RecordError(appErr)
	span.SetStatus(codes.Error, appErr.Code)
	if appErr.Status >= 500 {
		s.logger.Error(message, zap.String("operation", operation), zap.Error(err))
	} else {
		s.metrics.RecordRejection(operation, appErr.Code)
	}
	return appErr
}

// afterCommit runs post-commit side effects detached from the caller's cancellation.
func (s *RegistrationService) afterCommit(ctx context.Context, studentID string, kind models.NotificationKind, message string) {
	ctx = context.WithoutCancel(ctx)
	if s.notifier != nil {
		s.notifier.Notify(ctx, studentID, kind, message)
	}
}

func toAppError(err error, message string) *appErrors.Error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func alreadyRegistered(studentID, semesterID string) error {
	return appErrors.WithDetails(appErrors.ErrAlreadyRegistered, "", map[string]interface{}{"student_id": studentID, "semester_id": semesterID})
}

func notRegistered(studentID, semesterID string) error {
	return appErrors.WithDetails(appErrors.ErrNotRegistered, "", map[string]interface{}{"student_id": studentID, "semester_id": semesterID})
}

func tierQuota(tier models.Tier) int {
	if tier == models.TierPrimary {
		return MaxPrimaryCourses
	}
	return MaxSecondaryCourses
}

func countTier(selections []models.SelectionDetail, tier models.Tier) int {
	count := 0
	for _, selection := range selections {
		if selection.Tier() == tier {
			count++
		}
	}
	return count
}
