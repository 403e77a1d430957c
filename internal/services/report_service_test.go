package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/metrics"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_Empty(t *testing.T) {
	env := newTestEnv(t, nil)

	report, err := env.reports.Dashboard(context.Background(), testNow)
	require.NoError(t, err)
	assert.Nil(t, report.Occupancy, "no units means no occupancy rate")
	assert.Zero(t, report.OutstandingBalance)
	assert.NotNil(t, report.RecentPayments)
}

func TestReports(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	residential := env.property(t, "Westlands Apartments", models.PropertyResidential)
	commercial := env.property(t, "Kilimani Business Center", models.PropertyCommercial)
	john := env.tenant(t, "John Kamau", residential, 35000)
	abc := env.tenant(t, "ABC Company Ltd", commercial, 85000)

	paidBill, err := env.bills.Create(ctx, BillDraft{TenantID: &john.ID, BillType: models.BillMonthly, Period: "2024-07", Rent: 35000, DueDate: "2024-07-05"})
	require.NoError(t, err)
	_, err = env.bills.Create(ctx, BillDraft{TenantID: &abc.ID, BillType: models.BillMonthly, Period: "2024-07", Rent: 85000, DueDate: "2024-06-01", Status: models.BillOverdue})
	require.NoError(t, err)

	paidAt := time.Date(2024, time.July, 3, 10, 0, 0, 0, time.UTC)
	_, err = env.payments.Create(ctx, PaymentDraft{
		TenantID:    &john.ID,
		BillingID:   &paidBill.ID,
		Amount:      35000,
		Method:      models.MethodMobileMoney,
		Status:      models.PaymentCompleted,
		PaymentDate: &paidAt,
	})
	require.NoError(t, err)

	t.Run("dashboard", func(t *testing.T) {
		report, err := env.reports.Dashboard(ctx, testNow)
		require.NoError(t, err)

		assert.Equal(t, 2, report.Properties.Total)
		assert.Equal(t, 1, report.Properties.Commercial)
		assert.Equal(t, 20, report.TotalUnits)
		assert.Equal(t, 16, report.OccupiedUnits)
		require.NotNil(t, report.Occupancy)
		assert.Equal(t, 80, *report.Occupancy)
		assert.Equal(t, 2, report.ActiveTenants)
		assert.Equal(t, int64(35000), report.MonthlyRevenue)
		assert.Equal(t, int64(98600), report.OutstandingBalance)
		assert.Equal(t, 1, report.OverdueBills)
		assert.Len(t, report.RecentPayments, 1)
	})

	t.Run("billing", func(t *testing.T) {
		report, err := env.reports.Billing(ctx, "2024-07", testNow)
		require.NoError(t, err)

		assert.Equal(t, int64(133600), report.TotalBilled)
		assert.Equal(t, int64(35000), report.Collected)
		assert.Equal(t, int64(98600), report.Outstanding)
		require.NotNil(t, report.CollectionRate)
		assert.Equal(t, 50, *report.CollectionRate)
		require.NotNil(t, report.AmountCollectionRate)
		assert.Equal(t, 26, *report.AmountCollectionRate)
		assert.Equal(t, BillCounts{Paid: 1, Overdue: 1}, report.Bills)
		assert.Equal(t, int64(35000), report.RevenueByMethod[models.MethodMobileMoney])
		assert.Equal(t, int64(98600), report.Ageing[metrics.Bucket31To60])
		assert.Equal(t, int64(85000), report.CommercialRent)
		assert.Equal(t, int64(8500), report.WithholdingTax)
		assert.Zero(t, report.VATCollected, "the commercial bill is unpaid")

		require.Len(t, report.Properties, 2)
		for _, p := range report.Properties {
			if p.PropertyID == residential.ID {
				assert.Equal(t, int64(35000), p.Collected)
			}
		}
	})

	t.Run("other period is empty", func(t *testing.T) {
		report, err := env.reports.Billing(ctx, "2024-01", testNow)
		require.NoError(t, err)
		assert.Zero(t, report.TotalBilled)
		assert.Nil(t, report.CollectionRate)
	})

	t.Run("bad period", func(t *testing.T) {
		_, err := env.reports.Billing(ctx, "July", testNow)
		assert.True(t, errors.Is(err, ErrValidation))
	})
}
