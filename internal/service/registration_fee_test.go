package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crs-api/internal/models"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
)

func TestRegistrationServiceFeeLifecycle(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	status, err := f.svc.PendingFee(ctx, "stu-1")
	require.NoError(t, err)
	assert.Zero(t, status.Amount)

	result, err := f.svc.PayFee(ctx, "stu-1", PayFeeRequest{})
	require.NoError(t, err)
	assert.False(t, result.Paid, "nothing to pay without a registration")

	f.selectFullLoad(t, "stu-1")
	result, err = f.svc.PayFee(ctx, "stu-1", PayFeeRequest{})
	require.NoError(t, err)
	assert.False(t, result.Paid, "unsubmitted registrations cannot be paid")
	registration, _ := f.store.registration("stu-1")
	assert.False(t, registration.FeePaid)

	_, err = f.svc.Submit(ctx, "stu-1")
	require.NoError(t, err)

	status, err = f.svc.PendingFee(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 500.0, status.Amount)
	assert.True(t, status.Submitted)
	assert.False(t, status.Paid)

	result, err = f.svc.PayFee(ctx, "stu-1", PayFeeRequest{Method: models.PaymentNetBank})
	require.NoError(t, err)
	require.True(t, result.Paid)
	require.NotNil(t, result.Payment)
	assert.Equal(t, 500.0, result.Payment.Amount)
	assert.Equal(t, models.PaymentNetBank, result.Payment.Method)

	status, err = f.svc.PendingFee(ctx, "stu-1")
	require.NoError(t, err)
	assert.Zero(t, status.Amount)
	assert.True(t, status.Paid)

	result, err = f.svc.PayFee(ctx, "stu-1", PayFeeRequest{})
	require.NoError(t, err)
	assert.False(t, result.Paid, "a second payment changes nothing")

	payments, err := f.store.ListPayments(ctx, registration.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, models.NotificationPayment, f.notifier.sent[1].kind)
	assert.Contains(t, f.notifier.sent[1].message, "Welcome to Fall 2026")
}

func TestRegistrationServicePayFeeDefaultsToCard(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()
	f.selectFullLoad(t, "stu-1")
	_, err := f.svc.Submit(ctx, "stu-1")
	require.NoError(t, err)

	result, err := f.svc.PayFee(ctx, "stu-1", PayFeeRequest{Amount: 200})
	require.NoError(t, err)
	require.True(t, result.Paid)
	assert.Equal(t, models.PaymentCard, result.Payment.Method)
	assert.Equal(t, 200.0, result.Payment.Amount)

	summary, err := f.svc.Registration(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationFeePaid, summary.State)
	assert.Zero(t, summary.PendingFee)
	assert.Len(t, summary.Payments, 1)
}

func TestRegistrationServicePayFeeValidation(t *testing.T) {
	f := newRegistrationFixture(t)

	_, err := f.svc.PayFee(context.Background(), "stu-1", PayFeeRequest{Amount: -1})
	assertAppError(t, err, appErrors.ErrValidation)

	_, err = f.svc.PayFee(context.Background(), "stu-1", PayFeeRequest{Method: "BITCOIN"})
	assertAppError(t, err, appErrors.ErrValidation)
}

func TestRegistrationServiceRequireGradeAccess(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequireGradeAccess(ctx, "stu-1")
	assertAppError(t, err, appErrors.ErrNotRegistered)

	f.selectFullLoad(t, "stu-1")
	_, err = f.svc.RequireGradeAccess(ctx, "stu-1")
	assertAppError(t, err, appErrors.ErrNotRegistered)

	_, err = f.svc.Submit(ctx, "stu-1")
	require.NoError(t, err)
	_, err = f.svc.RequireGradeAccess(ctx, "stu-1")
	appErr := assertAppError(t, err, appErrors.ErrPaymentIncomplete)
	assert.Equal(t, 500.0, appErr.Details["amount"])

	_, err = f.svc.PayFee(ctx, "stu-1", PayFeeRequest{})
	require.NoError(t, err)
	registration, err := f.svc.RequireGradeAccess(ctx, "stu-1")
	require.NoError(t, err)
	assert.True(t, registration.FeePaid)

	_, err = f.svc.RequireGradeAccess(ctx, "stu-x")
	assertAppError(t, err, appErrors.ErrStudentNotApproved)
}
