package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/noah-isme/crs-api/internal/models"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
)

func selectionDetail(courseID string, primary bool, fee float64) models.SelectionDetail {
	return models.SelectionDetail{
		Selection: models.Selection{ID: "sel-" + courseID, CourseID: courseID, IsPrimary: primary},
		Fee:       fee,
	}
}

func claimAllExcept(full ...string) seatClaimer {
	blocked := map[string]bool{}
	for _, id := range full {
		blocked[id] = true
	}
	return func(_ context.Context, selection models.SelectionDetail) (bool, error) {
		return !blocked[selection.CourseID], nil
	}
}

func TestAllocatePrimaryBeforeSecondary(t *testing.T) {
	selections := []models.SelectionDetail{
		selectionDetail("s1", false, 50),
		selectionDetail("p1", true, 100),
		selectionDetail("s2", false, 50),
		selectionDetail("p2", true, 100),
	}

	result, err := allocate(context.Background(), selections, MaxAllottedCourses, claimAllExcept())
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "s1", "s2"}, result.AllottedCourseIDs())
	assert.Equal(t, 300.0, result.TotalFee)
	for _, selection := range result.Allotted {
		assert.True(t, selection.Allotted)
	}
}

func TestAllocateStopsSecondaryPhaseAtLimit(t *testing.T) {
	selections := []models.SelectionDetail{
		selectionDetail("p1", true, 100),
		selectionDetail("p2", true, 100),
		selectionDetail("p3", true, 100),
		selectionDetail("p4", true, 100),
		selectionDetail("s1", false, 50),
		selectionDetail("s2", false, 50),
	}

	result, err := allocate(context.Background(), selections, 5, claimAllExcept())
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "s1"}, result.AllottedCourseIDs())
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "s2", result.Skipped[0].CourseID)
	assert.Equal(t, 450.0, result.TotalFee)
}

func TestAllocateSkipsFullCourses(t *testing.T) {
	selections := []models.SelectionDetail{
		selectionDetail("p1", true, 100),
		selectionDetail("p2", true, 100),
		selectionDetail("s1", false, 50),
	}

	result, err := allocate(context.Background(), selections, MaxAllottedCourses, claimAllExcept("p1", "s1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, result.AllottedCourseIDs())
	assert.Len(t, result.Skipped, 2)
	assert.Equal(t, 100.0, result.TotalFee)
}

func TestAllocateRoundsToCents(t *testing.T) {
	selections := []models.SelectionDetail{
		selectionDetail("p1", true, 0.1),
		selectionDetail("p2", true, 0.2),
	}
	result, err := allocate(context.Background(), selections, MaxAllottedCourses, claimAllExcept())
	require.NoError(t, err)
	assert.Equal(t, 0.3, result.TotalFee)
}

func TestAllocatePropagatesClaimErrors(t *testing.T) {
	boom := errors.New("claim failed")
	selections := []models.SelectionDetail{selectionDetail("p1", true, 100)}

	_, err := allocate(context.Background(), selections, MaxAllottedCourses, func(context.Context, models.SelectionDetail) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

// TestAllocateProperties checks the allocation invariants over random selection lists.
func TestAllocateProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(0, 8).Draw(rt, "count")
		limit := rapid.IntRange(0, 8).Draw(rt, "limit")
		selections := make([]models.SelectionDetail, 0, count)
		full := map[string]bool{}
		for i := 0; i < count; i++ {
			id := fmt.Sprintf("c%d", i)
			primary := rapid.Bool().Draw(rt, "primary")
			cents := rapid.IntRange(0, 100000).Draw(rt, "cents")
			selections = append(selections, selectionDetail(id, primary, float64(cents)/100))
			full[id] = rapid.Bool().Draw(rt, "full")
		}

		result, err := allocate(context.Background(), selections, limit, func(_ context.Context, selection models.SelectionDetail) (bool, error) {
			return !full[selection.CourseID], nil
		})
		if err != nil {
			rt.Fatalf("allocate: %v", err)
		}

		if got := len(result.Allotted) + len(result.Skipped); got != len(selections) {
			rt.Fatalf("every selection is either allotted or skipped: got %d of %d", got, len(selections))
		}

		var sum float64
		primaryDone := false
		secondaryAllotted := 0
		for _, selection := range result.Allotted {
			if full[selection.CourseID] {
				rt.Fatalf("full course %s allotted", selection.CourseID)
			}
			if selection.IsPrimary && primaryDone {
				rt.Fatalf("primary %s allotted after a secondary", selection.CourseID)
			}
			if !selection.IsPrimary {
				primaryDone = true
				secondaryAllotted++
			}
			sum += selection.Fee
		}
		if roundCents(sum) != result.TotalFee {
			rt.Fatalf("total fee %.2f does not match allotted fees %.2f", result.TotalFee, roundCents(sum))
		}
		if secondaryAllotted > 0 && len(result.Allotted) > limit {
			rt.Fatalf("secondary phase exceeded limit %d with %d seats", limit, len(result.Allotted))
		}
	})
}

// TestAddSelectionQuotaProperty replays random add and drop sequences and checks that the tier
// quotas always hold.
func TestAddSelectionQuotaProperty(t *testing.T) {
	courseIDs := []string{"p1", "p2", "p3", "p4", "p5", "s1", "s2", "s3"}
	rapid.Check(t, func(rt *rapid.T) {
		f := newRegistrationFixture(t)
		ctx := context.Background()
		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			courseID := rapid.SampledFrom(courseIDs).Draw(rt, "course")
			if rapid.Bool().Draw(rt, "drop") {
				err := f.svc.DropSelection(ctx, "stu-1", courseID)
				if err != nil && !errors.Is(err, appErrors.ErrNotSelected) {
					rt.Fatalf("drop %s: %v", courseID, err)
				}
				continue
			}
			primary := rapid.Bool().Draw(rt, "primary")
			_, err := f.svc.AddSelection(ctx, "stu-1", AddSelectionRequest{CourseID: courseID, Primary: primary})
			if err != nil && !errors.Is(err, appErrors.ErrQuotaExceeded) && !errors.Is(err, appErrors.ErrDuplicateSelection) {
				rt.Fatalf("add %s: %v", courseID, err)
			}
		}

		summary, err := f.svc.Registration(ctx, "stu-1")
		if err != nil {
			rt.Fatalf("summary: %v", err)
		}
		if summary.PrimaryCount > MaxPrimaryCourses || summary.SecondaryCount > MaxSecondaryCourses {
			rt.Fatalf("quota violated: %d primary, %d secondary", summary.PrimaryCount, summary.SecondaryCount)
		}
	})
}
