package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/metrics"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreatePayment_ValidationError(t *testing.T) {
	// Arrange
	payments := new(MockRepository[models.Payment])
	bills := new(MockBillRepository)
	service := NewPaymentService(payments, bills, inlineTransactor{}, fixedClock(testNow), logger.New("test"))

	// Act
	_, err := service.Create(context.Background(), PaymentDraft{Amount: 0, Method: models.MethodCash})

	// Assert
	assert.True(t, errors.Is(err, ErrValidation))
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	bills.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestCreatePayment_PendingDoesNotSettle(t *testing.T) {
	// Arrange
	payments := new(MockRepository[models.Payment])
	bills := new(MockBillRepository)
	service := NewPaymentService(payments, bills, inlineTransactor{}, fixedClock(testNow), logger.New("test"))
	ctx := context.Background()
	billID := "bill-1"

	var stored *models.Payment
	payments.On("Create", ctx, mock.AnythingOfType("*models.Payment")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*models.Payment)
			stored.ID = "pay-1"
		}).
		Return(nil)
	payments.On("Get", ctx, "pay-1").Return(&models.Payment{Status: models.PaymentPending, BillingID: &billID}, nil)

	// Act
	got, err := service.Create(ctx, PaymentDraft{BillingID: &billID, Amount: 44000, Method: models.MethodMobileMoney})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, got.Status)
	assert.Equal(t, models.PaymentPending, stored.Status, "status defaults to pending")
	assert.Nil(t, stored.PaymentDate)
	bills.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestPaymentLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	prop := env.property(t, "Westlands Apartments", models.PropertyResidential)
	tn := env.tenant(t, "John Kamau", prop, 35000)

	bill, err := env.bills.Create(ctx, BillDraft{TenantID: &tn.ID, BillType: models.BillMonthly, Rent: 35000, DueDate: "2024-07-05"})
	require.NoError(t, err)

	receipt := "QHX7Y8Z9"
	payment, err := env.payments.Create(ctx, PaymentDraft{
		TenantID:     &tn.ID,
		BillingID:    &bill.ID,
		Amount:       35000,
		Method:       models.MethodMobileMoney,
		MpesaReceipt: &receipt,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, payment.Status)

	stillPending, err := env.bills.Get(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillPending, stillPending.Status)

	completed := models.PaymentCompleted
	payment, err = env.payments.Update(ctx, payment.ID, PaymentPatch{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, payment.Status)
	require.NotNil(t, payment.PaymentDate)

	settled, err := env.bills.Get(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillPaid, settled.Status)
	require.NotNil(t, settled.PaidDate)
	assert.Equal(t, "2024-07-20", time.Time(*settled.PaidDate).Format(models.DateLayout))

	pending := models.PaymentPending
	_, err = env.payments.Update(ctx, payment.ID, PaymentPatch{Status: &pending})
	assert.True(t, errors.Is(err, ErrInvalidTransition), "payments never go backward")

	found, err := env.payments.List(ctx, PaymentFilter{Query: "qhx7"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, payment.ID, found[0].ID)
}

func TestCreatePayment_CompletedSettlesBill(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	bill, err := env.bills.Create(ctx, BillDraft{BillType: models.BillDeposit, Rent: 70000, DueDate: "2024-07-01"})
	require.NoError(t, err)

	paidAt := time.Date(2024, time.July, 2, 15, 4, 0, 0, time.UTC)
	_, err = env.payments.Create(ctx, PaymentDraft{
		BillingID:   &bill.ID,
		Amount:      70000,
		Method:      models.MethodBank,
		Status:      models.PaymentCompleted,
		PaymentDate: &paidAt,
	})
	require.NoError(t, err)

	settled, err := env.bills.Get(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillPaid, settled.Status)
	assert.Equal(t, "2024-07-02", time.Time(*settled.PaidDate).Format(models.DateLayout))
}

func TestPartialPaymentsSettleOnlyWhenCovered(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	prop := env.property(t, "Westlands Apartments", models.PropertyResidential)
	tn := env.tenant(t, "John Kamau", prop, 35000)

	bill, err := env.bills.Create(ctx, BillDraft{TenantID: &tn.ID, BillType: models.BillMonthly, Rent: 35000, Water: 9000, DueDate: "2024-07-05"})
	require.NoError(t, err)
	require.Equal(t, int64(44000), bill.AmountDue())

	pay := func(amount int64) {
		t.Helper()
		_, err := env.payments.Create(ctx, PaymentDraft{
			TenantID:  &tn.ID,
			BillingID: &bill.ID,
			Amount:    amount,
			Method:    models.MethodMobileMoney,
			Status:    models.PaymentCompleted,
		})
		require.NoError(t, err)
	}

	pay(1)
	got, err := env.bills.Get(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillPending, got.Status)
	assert.Nil(t, got.PaidDate)
	assert.Equal(t, int64(44000), metrics.OutstandingAmount([]models.Bill{*got}))

	// failed payments do not count towards the bill
	_, err = env.payments.Create(ctx, PaymentDraft{BillingID: &bill.ID, Amount: 43999, Method: models.MethodCash, Status: models.PaymentFailed})
	require.NoError(t, err)
	got, err = env.bills.Get(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillPending, got.Status)

	pay(20000)
	got, err = env.bills.Get(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillPending, got.Status)

	pay(23999)
	got, err = env.bills.Get(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillPaid, got.Status)
	require.NotNil(t, got.PaidDate)
	assert.Equal(t, "2024-07-20", time.Time(*got.PaidDate).Format(models.DateLayout))
}

func TestCreatePayment_UnknownBillRollsBack(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	missing := "00000000-0000-0000-0000-000000000000"

	_, err := env.payments.Create(ctx, PaymentDraft{BillingID: &missing, Amount: 500, Method: models.MethodCash, Status: models.PaymentCompleted})
	require.Error(t, err)

	all, err := env.payments.List(ctx, PaymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
