package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crs-api/internal/models"
	"github.com/noah-isme/crs-api/pkg/database"
)

func newLedgerDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "crs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func seedLedger(t *testing.T, db *sqlx.DB, students []string, courses ...models.Course) {
	t.Helper()
	ctx := context.Background()
	semesters := NewSemesterRepository(db)
	require.NoError(t, semesters.Upsert(ctx, &models.Semester{ID: "sem-1", Name: "Fall"}))
	require.NoError(t, semesters.SetActive(ctx, "sem-1"))

	studentRepo := NewStudentRepository(db)
	for _, id := range students {
		require.NoError(t, studentRepo.Upsert(ctx, &models.Student{ID: id, FullName: id, Email: id + "@crs.test", Approved: true}))
	}
	courseRepo := NewCourseRepository(db)
	for i := range courses {
		require.NoError(t, courseRepo.Upsert(ctx, &courses[i]))
	}
}

func TestLedgerSQLiteLifecycle(t *testing.T) {
	db := newLedgerDB(t)
	seedLedger(t, db, []string{"stu-1"},
		models.Course{ID: "c1", Code: "CS101", Name: "Intro", Fee: 100, Capacity: 10},
		models.Course{ID: "c2", Code: "CS102", Name: "Data", Fee: 50, Capacity: 0},
	)
	ctx := context.Background()
	repo := NewRegistrationRepository(db)

	_, err := repo.FindByStudent(ctx, "stu-1", "sem-1")
	require.Error(t, err)

	require.NoError(t, repo.WithRegistration(ctx, "stu-1", "sem-1", true, func(ledger RegistrationLedger) error {
		if _, err := ledger.AddSelection(ctx, "c1", true); err != nil {
			return err
		}
		_, err := ledger.AddSelection(ctx, "c2", false)
		return err
	}))

	registration, err := repo.FindByStudent(ctx, "stu-1", "sem-1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationBuilding, registration.State())

	require.NoError(t, repo.WithRegistration(ctx, "stu-1", "sem-1", false, func(ledger RegistrationLedger) error {
		selections, err := ledger.Selections(ctx)
		require.NoError(t, err)
		require.Len(t, selections, 2)
		assert.Equal(t, []int{1, 2}, []int{selections[0].Seq, selections[1].Seq})

		total := 0.0
		for _, selection := range selections {
			claimed, err := ledger.ClaimSeat(ctx, selection.CourseID)
			require.NoError(t, err)
			if claimed {
				require.NoError(t, ledger.MarkAllotted(ctx, selection.ID))
				total += selection.Fee
			}
		}
		ok, err := ledger.MarkSubmitted(ctx, total, time.Now().UTC())
		require.NoError(t, err)
		assert.True(t, ok)

		again, err := ledger.MarkSubmitted(ctx, total, time.Now().UTC())
		require.NoError(t, err)
		assert.False(t, again)
		return nil
	}))

	allotted, err := repo.ListSelections(ctx, registration.ID, true)
	require.NoError(t, err)
	require.Len(t, allotted, 1)
	assert.Equal(t, "c1", allotted[0].CourseID)

	course, err := NewCourseRepository(db).FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, course.EnrolledCount)

	require.NoError(t, repo.WithRegistration(ctx, "stu-1", "sem-1", false, func(ledger RegistrationLedger) error {
		ok, err := ledger.MarkFeePaid(ctx, &models.Payment{Amount: 100, Method: models.PaymentCard, PaidAt: time.Now().UTC()})
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	}))

	registration, err = repo.FindByStudent(ctx, "stu-1", "sem-1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationFeePaid, registration.State())
	assert.Equal(t, 100.0, registration.TotalFee)

	payments, err := repo.ListPayments(ctx, registration.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentCard, payments[0].Method)
}

func TestLedgerSQLiteFailedCallbackDoesNotCreateRegistration(t *testing.T) {
	db := newLedgerDB(t)
	seedLedger(t, db, []string{"stu-1"})
	ctx := context.Background()
	repo := NewRegistrationRepository(db)

	err := repo.WithRegistration(ctx, "stu-1", "sem-1", true, func(RegistrationLedger) error {
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	err = repo.WithRegistration(ctx, "stu-1", "sem-1", false, func(RegistrationLedger) error { return nil })
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
}

func TestLedgerSQLitePanickingCallbackReleasesConnection(t *testing.T) {
	db := newLedgerDB(t)
	seedLedger(t, db, []string{"stu-1"})
	ctx := context.Background()
	repo := NewRegistrationRepository(db)

	assert.Panics(t, func() {
		_ = repo.WithRegistration(ctx, "stu-1", "sem-1", true, func(RegistrationLedger) error {
			panic("callback failed")
		})
	})

	done := make(chan error, 1)
	go func() {
		done <- repo.WithRegistration(ctx, "stu-1", "sem-1", false, func(RegistrationLedger) error { return nil })
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrRegistrationNotFound)
	case <-time.After(5 * time.Second):
		t.Fatal("registration connection still held after panic")
	}
}

func TestLedgerSQLiteConcurrentClaimsOnLastSeat(t *testing.T) {
	db := newLedgerDB(t)
	students := []string{"stu-1", "stu-2", "stu-3", "stu-4"}
	seedLedger(t, db, students, models.Course{ID: "last", Code: "CS900", Name: "Seminar", Fee: 75, Capacity: 1})
	ctx := context.Background()
	repo := NewRegistrationRepository(db)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for _, studentID := range students {
		wg.Add(1)
		go func(studentID string) {
			defer wg.Done()
			err := repo.WithRegistration(ctx, studentID, "sem-1", true, func(ledger RegistrationLedger) error {
				claimed, err := ledger.ClaimSeat(ctx, "last")
				if err != nil {
					return err
				}
				if claimed {
					mu.Lock()
					winners++
					mu.Unlock()
				}
				return nil
			})
			assert.NoError(t, err)
		}(studentID)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	course, err := NewCourseRepository(db).FindByID(ctx, "last")
	require.NoError(t, err)
	assert.Equal(t, 1, course.EnrolledCount)
}
