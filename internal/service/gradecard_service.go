package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/crs-api/internal/models"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
	"github.com/noah-isme/crs-api/pkg/export"
)

type gradeRepository interface {
	ListForStudent(ctx context.Context, studentID, semesterID string) ([]models.Grade, error)
}

type gradeGate interface {
	RequireGradeAccess(ctx context.Context, studentID string) (*models.Registration, error)
}

// GradeCardExport is a rendered grade card.
type GradeCardExport struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// GradeCardService assembles grade cards for students whose registration is submitted and paid.
type GradeCardService struct {
	grades gradeRepository
	gate   gradeGate
	logger *zap.Logger
}

// NewGradeCardService constructs GradeCardService.
func NewGradeCardService(grades gradeRepository, gate gradeGate, logger *zap.Logger) *GradeCardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeCardService{grades: grades, gate: gate, logger: logger}
}

// GradeCard returns the student's grades for the active semester and their CGPA.
func (s *GradeCardService) GradeCard(ctx context.Context, studentID string) (*models.GradeCard, error) {
	registration, err := s.gate.RequireGradeAccess(ctx, studentID)
	if err != nil {
		return nil, err
	}
	grades, err := s.grades.ListForStudent(ctx, studentID, registration.SemesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	if grades == nil {
		grades = []models.Grade{}
	}
	return &models.GradeCard{
		StudentID:  studentID,
		SemesterID: registration.SemesterID,
		Grades:     grades,
		CGPA:       cgpa(grades),
	}, nil
}

// Export renders the grade card as CSV or PDF.
func (s *GradeCardService) Export(ctx context.Context, studentID, format string) (*GradeCardExport, error) {
	exportFormat, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported grade card format")
	}
	card, err := s.GradeCard(ctx, studentID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title: "Grade Card",
		Fields: []export.Field{
			{Label: "Student", Value: card.StudentID},
			{Label: "Semester", Value: card.SemesterID},
			{Label: "CGPA", Value: strconv.FormatFloat(card.CGPA, 'f', 2, 64)},
		},
		Headers: []string{"Code", "Course", "Grade", "Points"},
	}
	for _, grade := range card.Grades {
		dataset.Rows = append(dataset.Rows, []string{
			grade.CourseCode,
			grade.CourseName,
			grade.Grade,
			strconv.FormatFloat(grade.GradePoints, 'f', 2, 64),
		})
	}

	payload, err := export.Render(exportFormat, dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render grade card")
	}
	s.logger.Info("grade card exported", zap.String("student_id", studentID), zap.String("format", string(exportFormat)))
	return &GradeCardExport{
		Filename:    fmt.Sprintf("gradecard-%s-%s.%s", card.StudentID, card.SemesterID, exportFormat),
		ContentType: exportFormat.ContentType(),
		Payload:     payload,
	}, nil
}

// cgpa is the mean grade point, 0 when no grades are recorded.
func cgpa(grades []models.Grade) float64 {
	if len(grades) == 0 {
		return 0
	}
	sum := 0.0
	for _, grade := range grades {
		sum += grade.GradePoints
	}
	return roundCents(sum / float64(len(grades)))
}
