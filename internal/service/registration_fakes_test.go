package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/crs-api/internal/models"
	"github.com/noah-isme/crs-api/internal/repository"
)

type fakeRegistrationStore struct {
	mu            sync.Mutex
	courses       map[string]*models.Course
	registrations map[string]*models.Registration
	selections    map[string][]models.Selection
	payments      map[string][]models.Payment
	failures      []error
	units         int
	nextID        int
}

func newFakeRegistrationStore(courses ...models.Course) *fakeRegistrationStore {
	store := &fakeRegistrationStore{
		courses:       map[string]*models.Course{},
		registrations: map[string]*models.Registration{},
		selections:    map[string][]models.Selection{},
		payments:      map[string][]models.Payment{},
	}
	for i := range courses {
		course := courses[i]
		store.courses[course.ID] = &course
	}
	return store
}

func registrationKey(studentID, semesterID string) string {
	return studentID + "|" + semesterID
}

func (f *fakeRegistrationStore) FindByStudent(_ context.Context, studentID, semesterID string) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	registration, ok := f.registrations[registrationKey(studentID, semesterID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *registration
	return &copied, nil
}

func (f *fakeRegistrationStore) ListSelections(_ context.Context, registrationID string, allottedOnly bool) ([]models.SelectionDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.details(registrationID, allottedOnly), nil
}

func (f *fakeRegistrationStore) ListPayments(_ context.Context, registrationID string) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Payment(nil), f.payments[registrationID]...), nil
}

// WithRegistration serialises units of work and restores a snapshot when fn fails.
func (f *fakeRegistrationStore) WithRegistration(ctx context.Context, studentID, semesterID string, create bool, fn func(repository.RegistrationLedger) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.units++

	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return err
	}

	snapshot := f.snapshot()
	key := registrationKey(studentID, semesterID)
	registration, ok := f.registrations[key]
	if !ok {
		if !create {
			return repository.ErrRegistrationNotFound
		}
		registration = &models.Registration{ID: f.id("reg"), StudentID: studentID, SemesterID: semesterID}
		f.registrations[key] = registration
	}

	if err := fn(&fakeLedger{store: f, registration: registration}); err != nil {
		f.restore(snapshot)
		return err
	}
	return nil
}

func (f *fakeRegistrationStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeRegistrationStore) details(registrationID string, allottedOnly bool) []models.SelectionDetail {
	var out []models.SelectionDetail
	for _, selection := range f.selections[registrationID] {
		if allottedOnly && !selection.Allotted {
			continue
		}
		course := f.courses[selection.CourseID]
		out = append(out, models.SelectionDetail{Selection: selection, CourseCode: course.Code, CourseName: course.Name, Fee: course.Fee})
	}
	return out
}

type fakeSnapshot struct {
	courses       map[string]models.Course
	registrations map[string]models.Registration
	selections    map[string][]models.Selection
	payments      map[string][]models.Payment
}

func (f *fakeRegistrationStore) snapshot() fakeSnapshot {
	snap := fakeSnapshot{
		courses:       map[string]models.Course{},
		registrations: map[string]models.Registration{},
		selections:    map[string][]models.Selection{},
		payments:      map[string][]models.Payment{},
	}
	for id, course := range f.courses {
		snap.courses[id] = *course
	}
	for key, registration := range f.registrations {
		snap.registrations[key] = *registration
	}
	for id, selections := range f.selections {
		snap.selections[id] = append([]models.Selection(nil), selections...)
	}
	for id, payments := range f.payments {
		snap.payments[id] = append([]models.Payment(nil), payments...)
	}
	return snap
}

func (f *fakeRegistrationStore) restore(snap fakeSnapshot) {
	f.courses = map[string]*models.Course{}
	for id, course := range snap.courses {
		course := course
		f.courses[id] = &course
	}
	f.registrations = map[string]*models.Registration{}
	for key, registration := range snap.registrations {
		registration := registration
		f.registrations[key] = &registration
	}
	f.selections = snap.selections
	f.payments = snap.payments
}

func (f *fakeRegistrationStore) course(id string) models.Course {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.courses[id]
}

func (f *fakeRegistrationStore) registration(studentID string) (models.Registration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	registration, ok := f.registrations[registrationKey(studentID, "sem-1")]
	if !ok {
		return models.Registration{}, false
	}
	return *registration, true
}

func (f *fakeRegistrationStore) selectionCount(studentID string) int {
	registration, ok := f.registration(studentID)
	if !ok {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.selections[registration.ID])
}

type fakeLedger struct {
	store        *fakeRegistrationStore
	registration *models.Registration
}

func (l *fakeLedger) Registration() models.Registration {
	return *l.registration
}

func (l *fakeLedger) Selections(context.Context) ([]models.SelectionDetail, error) {
	return l.store.details(l.registration.ID, false), nil
}

func (l *fakeLedger) Course(_ context.Context, courseID string) (*models.Course, error) {
	course, ok := l.store.courses[courseID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *course
	return &copied, nil
}

func (l *fakeLedger) AddSelection(_ context.Context, courseID string, primary bool) (*models.Selection, error) {
	existing := l.store.selections[l.registration.ID]
	selection := models.Selection{
		ID:             l.store.id("sel"),
		RegistrationID: l.registration.ID,
		CourseID:       courseID,
		IsPrimary:      primary,
		Seq:            len(existing) + 1,
		CreatedAt:      time.Now().UTC(),
	}
	l.store.selections[l.registration.ID] = append(existing, selection)
	return &selection, nil
}

func (l *fakeLedger) DropSelection(_ context.Context, courseID string) (bool, error) {
	existing := l.store.selections[l.registration.ID]
	for i, selection := range existing {
		if selection.CourseID == courseID {
			l.store.selections[l.registration.ID] = append(existing[:i:i], existing[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (l *fakeLedger) ClaimSeat(_ context.Context, courseID string) (bool, error) {
	course := l.store.courses[courseID]
	if course.EnrolledCount >= course.Capacity {
		return false, nil
	}
	course.EnrolledCount++
	return true, nil
}

func (l *fakeLedger) MarkAllotted(_ context.Context, selectionID string) error {
	selections := l.store.selections[l.registration.ID]
	for i := range selections {
		if selections[i].ID == selectionID {
			selections[i].Allotted = true
		}
	}
	return nil
}

func (l *fakeLedger) MarkSubmitted(_ context.Context, totalFee float64, at time.Time) (bool, error) {
	if l.registration.Submitted {
		return false, nil
	}
	l.registration.Submitted = true
	l.registration.TotalFee = totalFee
	l.registration.SubmittedAt = &at
	return true, nil
}

func (l *fakeLedger) MarkFeePaid(_ context.Context, payment *models.Payment) (bool, error) {
	if !l.registration.Submitted || l.registration.FeePaid {
		return false, nil
	}
	payment.ID = l.store.id("pay")
	payment.RegistrationID = l.registration.ID
	l.store.payments[l.registration.ID] = append(l.store.payments[l.registration.ID], *payment)
	l.registration.FeePaid = true
	l.registration.PaidAt = &payment.PaidAt
	return true, nil
}

type fakeSemesterRepo struct {
	active *models.Semester
	err    error
}

func (f *fakeSemesterRepo) FindActive(context.Context) (*models.Semester, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.active == nil {
		return nil, sql.ErrNoRows
	}
	return f.active, nil
}

type fakeStudentRepo struct {
	students map[string]models.Student
}

func (f *fakeStudentRepo) FindByID(_ context.Context, id string) (*models.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

type recordedNotification struct {
	studentID string
	kind      models.NotificationKind
	message   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []recordedNotification
}

func (f *fakeNotifier) Notify(_ context.Context, studentID string, kind models.NotificationKind, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, recordedNotification{studentID: studentID, kind: kind, message: message})
}

type fakeInvalidator struct {
	mu       sync.Mutex
	patterns []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = append(f.patterns, pattern)
	return nil
}
