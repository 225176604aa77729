package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/crs-api/internal/models"
	"github.com/noah-isme/crs-api/internal/repository"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
)

const catalogueCachePattern = "catalogue:*"

// AllocationResult is the outcome of a submission.
type AllocationResult struct {
	RegistrationID string                   `json:"registration_id"`
	Allotted       []models.SelectionDetail `json:"allotted"`
	Skipped        []models.SelectionDetail `json:"skipped"`
	TotalFee       float64                  `json:"total_fee"`
}

// AllottedCourseIDs lists the courses granted a seat, in allocation order.
func (r *AllocationResult) AllottedCourseIDs() []string {
	ids := make([]string, 0, len(r.Allotted))
	for _, selection := range r.Allotted {
		ids = append(ids, selection.CourseID)
	}
	return ids
}

// seatClaimer grants a seat in the selected course, reporting false when none is left.
type seatClaimer func(ctx context.Context, selection models.SelectionDetail) (bool, error)

// allocate runs the greedy two-phase pass: primary selections in selection order, then secondary
// selections in selection order while fewer than limit seats have been allotted. Selections whose
// seat cannot be claimed are skipped, never retried.
func allocate(ctx context.Context, selections []models.SelectionDetail, limit int, claim seatClaimer) (*AllocationResult, error) {
	result := &AllocationResult{Allotted: []models.SelectionDetail{}, Skipped: []models.SelectionDetail{}}

	var primary, secondary []models.SelectionDetail
	for _, selection := range selections {
		if selection.IsPrimary {
			primary = append(primary, selection)
		} else {
			secondary = append(secondary, selection)
		}
	}

	take := func(selection models.SelectionDetail) error {
		ok, err := claim(ctx, selection)
		if err != nil {
			return err
		}
		if !ok {
			result.Skipped = append(result.Skipped, selection)
			return nil
		}
		selection.Allotted = true
		result.Allotted = append(result.Allotted, selection)
		result.TotalFee += selection.Fee
		return nil
	}

	for _, selection := range primary {
		if err := take(selection); err != nil {
			return nil, err
		}
	}
	for _, selection := range secondary {
		if len(result.Allotted) >= limit {
			result.Skipped = append(result.Skipped, selection)
			continue
		}
		if err := take(selection); err != nil {
			return nil, err
		}
	}

	result.TotalFee = roundCents(result.TotalFee)
	return result, nil
}

// Submit finalises the student's registration: seats are allotted, the fee is computed and the
// registration becomes immutable. Submission succeeds once eligibility is met, even when no seat
// could be allotted.
func (s *RegistrationService) Submit(ctx context.Context, studentID string) (result *AllocationResult, err error) {
	ctx, span := s.startSpan(ctx, "registration.Submit", studentID)
	defer func() { err = s.finish(span, "submit", err, "failed to submit registration") }()

	scope, err := s.scope(ctx, studentID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		result, err = s.submitOnce(ctx, studentID, scope.semester.ID)
		if err == nil || !repository.IsRetryable(err) || attempt >= s.retries {
			break
		}
		s.logger.Warn("retrying registration submit",
			zap.String("student_id", studentID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	if errors.Is(err, repository.ErrRegistrationNotFound) {
		return nil, insufficientSelections(studentID, 0)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAllocation(result)
	s.logger.Info("registration submitted",
		zap.String("student_id", studentID),
		zap.String("registration_id", result.RegistrationID),
		zap.Int("allotted", len(result.Allotted)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Float64("total_fee", result.TotalFee),
	)

	s.afterCommit(ctx, studentID, models.NotificationRegistration,
		fmt.Sprintf("You have successfully registered for %s. Please pay the fee of $%.2f as soon as possible.", scope.semester.Name, result.TotalFee))
	if s.cache != nil {
		if err := s.cache.Invalidate(context.WithoutCancel(ctx), catalogueCachePattern); err != nil {
			s.logger.Warn("catalogue cache invalidation failed", zap.Error(err))
		}
	}
	return result, nil
}

func (s *RegistrationService) submitOnce(ctx context.Context, studentID, semesterID string) (*AllocationResult, error) {
	var result *AllocationResult
	err := s.store.WithRegistration(ctx, studentID, semesterID, false, func(ledger repository.RegistrationLedger) error {
		registration := ledger.Registration()
		if registration.Submitted {
			return alreadyRegistered(studentID, semesterID)
		}

		selections, err := ledger.Selections(ctx)
		if err != nil {
			return err
		}
		if len(selections) < RequiredSelections {
			return insufficientSelections(studentID, len(selections))
		}

		allocation, err := allocate(ctx, selections, MaxAllottedCourses, func(ctx context.Context, selection models.SelectionDetail) (bool, error) {
			claimed, err := ledger.ClaimSeat(ctx, selection.CourseID)
			if err != nil || !claimed {
				return false, err
			}
			return true, ledger.MarkAllotted(ctx, selection.ID)
		})
		if err != nil {
			return err
		}

		marked, err := ledger.MarkSubmitted(ctx, allocation.TotalFee, s.now())
		if err != nil {
			return err
		}
		if !marked {
			return alreadyRegistered(studentID, semesterID)
		}
		allocation.RegistrationID = registration.ID
		result = allocation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func insufficientSelections(studentID string, selected int) error {
	return appErrors.WithDetails(appErrors.ErrInsufficientSelections,
		fmt.Sprintf("at least %d courses must be selected before submitting, %d selected", RequiredSelections, selected),
		map[string]interface{}{"student_id": studentID, "required": RequiredSelections, "selected": selected})
}

func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
