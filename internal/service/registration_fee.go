package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noah-isme/crs-api/internal/models"
	"github.com/noah-isme/crs-api/internal/repository"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
)

// errLedgerUnchanged aborts a unit of work that must leave no trace.
var errLedgerUnchanged = errors.New("ledger unchanged")

// PayFeeRequest describes a fee payment. Partial payments are not modelled: any accepted payment
// settles the whole fee.
type PayFeeRequest struct {
	Amount float64              `json:"amount" validate:"gte=0"`
	Method models.PaymentMethod `json:"method" validate:"omitempty,oneof=CARD NETBANKING SCHOLARSHIP CASH OFFLINE"`
}

// FeeStatus reports the amount still owed for the active semester.
type FeeStatus struct {
	Amount    float64 `json:"amount"`
	Submitted bool    `json:"submitted"`
	Paid      bool    `json:"paid"`
}

// PaymentResult reports whether a payment changed the ledger.
type PaymentResult struct {
	Paid    bool            `json:"paid"`
	Payment *models.Payment `json:"payment,omitempty"`
}

// PendingFee returns the total fee while the registration is submitted and unpaid, otherwise 0.
func (s *RegistrationService) PendingFee(ctx context.Context, studentID string) (status *FeeStatus, err error) {
	ctx, span := s.startSpan(ctx, "registration.PendingFee", studentID)
	defer func() { err = s.finish(span, "pending_fee", err, "failed to load pending fee") }()

	scope, err := s.scope(ctx, studentID)
	if err != nil {
		return nil, err
	}
	registration, err := s.store.FindByStudent(ctx, studentID, scope.semester.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &FeeStatus{}, nil
		}
		return nil, err
	}
	return &FeeStatus{
		Amount:    pendingAmount(registration),
		Submitted: registration.Submitted,
		Paid:      registration.FeePaid,
	}, nil
}

// PayFee settles the fee of a submitted registration. When the ledger update does not affect
// exactly one registration nothing is recorded and Paid is false.
func (s *RegistrationService) PayFee(ctx context.Context, studentID string, req PayFeeRequest) (result *PaymentResult, err error) {
	ctx, span := s.startSpan(ctx, "registration.PayFee", studentID, attribute.Float64("payment.amount", req.Amount))
	defer func() { err = s.finish(span, "pay_fee", err, "failed to record payment") }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	scope, err := s.scope(ctx, studentID)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = models.PaymentCard
	}

	var payment *models.Payment
	err = s.store.WithRegistration(ctx, studentID, scope.semester.ID, false, func(ledger repository.RegistrationLedger) error {
		registration := ledger.Registration()
		amount := req.Amount
		if amount == 0 {
			amount = registration.TotalFee
		}
		candidate := &models.Payment{Amount: amount, Method: method, PaidAt: s.now()}
		paid, err := ledger.MarkFeePaid(ctx, candidate)
		if err != nil {
			return err
		}
		if !paid {
			return errLedgerUnchanged
		}
		payment = candidate
		return nil
	})
	if errors.Is(err, errLedgerUnchanged) || errors.Is(err, repository.ErrRegistrationNotFound) {
		s.logger.Info("fee payment not applied", zap.String("student_id", studentID))
		return &PaymentResult{Paid: false}, nil
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPayment(payment.Amount)
	s.logger.Info("fee paid",
		zap.String("student_id", studentID),
		zap.String("payment_id", payment.ID),
		zap.Float64("amount", payment.Amount),
		zap.String("method", string(payment.Method)),
	)
	s.afterCommit(ctx, studentID, models.NotificationPayment,
		fmt.Sprintf("Fee payment of $%.2f complete. Welcome to %s.", payment.Amount, scope.semester.Name))
	return &PaymentResult{Paid: true, Payment: payment}, nil
}

// RequireGradeAccess gates grade features: the registration must be submitted, then paid.
func (s *RegistrationService) RequireGradeAccess(ctx context.Context, studentID string) (registration *models.Registration, err error) {
	ctx, span := s.startSpan(ctx, "registration.RequireGradeAccess", studentID)
	defer func() { err = s.finish(span, "grade_access", err, "failed to check grade access") }()

	scope, err := s.scope(ctx, studentID)
	if err != nil {
		return nil, err
	}
	registration, err = s.store.FindByStudent(ctx, studentID, scope.semester.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notRegistered(studentID, scope.semester.ID)
		}
		return nil, err
	}
	if !registration.Submitted {
		return nil, notRegistered(studentID, scope.semester.ID)
	}
	if !registration.FeePaid {
		return nil, appErrors.WithDetails(appErrors.ErrPaymentIncomplete,
			fmt.Sprintf("semester fee of $%.2f is still pending", registration.TotalFee),
			map[string]interface{}{"student_id": studentID, "amount": registration.TotalFee})
	}
	return registration, nil
}

func pendingAmount(registration *models.Registration) float64 {
	if registration.Submitted && !registration.FeePaid {
		return registration.TotalFee
	}
	return 0
}
