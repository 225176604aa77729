// Package seed loads catalogue, student and grade fixtures from YAML.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/crs-api/internal/models"
)

// DefaultCapacity is the seat capacity applied to courses that do not set one.
const DefaultCapacity = 10

// Fixture is the document accepted by Load.
type Fixture struct {
	Semesters []SemesterFixture `yaml:"semesters" validate:"dive"`
	Students  []StudentFixture  `yaml:"students" validate:"dive"`
	Courses   []CourseFixture   `yaml:"courses" validate:"dive"`
	Grades    []GradeFixture    `yaml:"grades" validate:"dive"`
}

// SemesterFixture seeds a semester; at most one should be active.
type SemesterFixture struct {
	ID       string `yaml:"id" validate:"required"`
	Name     string `yaml:"name" validate:"required"`
	Active   bool   `yaml:"active"`
	StartsOn string `yaml:"starts_on" validate:"omitempty,datetime=2006-01-02"`
	EndsOn   string `yaml:"ends_on" validate:"omitempty,datetime=2006-01-02"`
}

// StudentFixture seeds a student. Approved defaults to true and Email to <id>@students.local.
type StudentFixture struct {
	ID       string `yaml:"id" validate:"required"`
	FullName string `yaml:"full_name" validate:"required"`
	Email    string `yaml:"email" validate:"omitempty,email"`
	Approved *bool  `yaml:"approved"`
}

// CourseFixture seeds a catalogue entry.
type CourseFixture struct {
	ID       string  `yaml:"id" validate:"required"`
	Code     string  `yaml:"code" validate:"required"`
	Name     string  `yaml:"name" validate:"required"`
	Fee      float64 `yaml:"fee" validate:"gte=0"`
	Capacity int     `yaml:"capacity" validate:"gte=0"`
}

// GradeFixture seeds a grade for an allotted course.
type GradeFixture struct {
	StudentID   string  `yaml:"student_id" validate:"required"`
	CourseID    string  `yaml:"course_id" validate:"required"`
	SemesterID  string  `yaml:"semester_id" validate:"required"`
	Grade       string  `yaml:"grade" validate:"required"`
	GradePoints float64 `yaml:"grade_points" validate:"gte=0,lte=10"`
}

// Stores receives the seeded rows.
type Stores struct {
	Semesters interface {
		Upsert(ctx context.Context, semester *models.Semester) error
		SetActive(ctx context.Context, id string) error
	}
	Students interface {
		Upsert(ctx context.Context, student *models.Student) error
	}
	Courses interface {
		Upsert(ctx context.Context, course *models.Course) error
	}
	Grades interface {
		Upsert(ctx context.Context, grade *models.Grade) error
	}
}

// Summary counts the rows written by Apply.
type Summary struct {
	Semesters int
	Students  int
	Courses   int
	Grades    int
}

// LoadFile reads and validates a fixture file.
func LoadFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a fixture document.
func Load(r io.Reader) (*Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if err := validator.New().Struct(fixture); err != nil {
		return nil, fmt.Errorf("validate seed file: %w", err)
	}
	active := 0
	for _, semester := range fixture.Semesters {
		if semester.Active {
			active++
		}
	}
	if active > 1 {
		return nil, fmt.Errorf("validate seed file: %d active semesters, at most one allowed", active)
	}
	return &fixture, nil
}

// Apply upserts the fixture in dependency order and activates the active semester last.
func Apply(ctx context.Context, fixture *Fixture, stores Stores) (*Summary, error) {
	summary := &Summary{}
	activeID := ""
	for _, s := range fixture.Semesters {
		semester := &models.Semester{ID: s.ID, Name: s.Name, StartsOn: parseDate(s.StartsOn), EndsOn: parseDate(s.EndsOn)}
		if err := stores.Semesters.Upsert(ctx, semester); err != nil {
			return summary, err
		}
		if s.Active {
			activeID = s.ID
		}
		summary.Semesters++
	}
	for _, s := range fixture.Students {
		approved := true
		if s.Approved != nil {
			approved = *s.Approved
		}
		email := s.Email
		if email == "" {
			email = s.ID + "@students.local"
		}
		if err := stores.Students.Upsert(ctx, &models.Student{ID: s.ID, FullName: s.FullName, Email: email, Approved: approved}); err != nil {
			return summary, err
		}
		summary.Students++
	}
	for _, c := range fixture.Courses {
		capacity := c.Capacity
		if capacity == 0 {
			capacity = DefaultCapacity
		}
		if err := stores.Courses.Upsert(ctx, &models.Course{ID: c.ID, Code: c.Code, Name: c.Name, Fee: c.Fee, Capacity: capacity}); err != nil {
			return summary, err
		}
		summary.Courses++
	}
	for _, g := range fixture.Grades {
		grade := &models.Grade{StudentID: g.StudentID, CourseID: g.CourseID, SemesterID: g.SemesterID, Grade: g.Grade, GradePoints: g.GradePoints}
		if err := stores.Grades.Upsert(ctx, grade); err != nil {
			return summary, err
		}
		summary.Grades++
	}
	if activeID != "" {
		if err := stores.Semesters.SetActive(ctx, activeID); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
