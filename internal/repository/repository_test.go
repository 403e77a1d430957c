package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/database"
	"github.com/Lelcaren/mwangaza-rentals/internal/database/dbtest"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newProperty(name string, kind models.PropertyType) *models.Property {
	return &models.Property{
		Name:          name,
		Type:          kind,
		Address:       "Westlands, Nairobi",
		TotalUnits:    24,
		OccupiedUnits: 22,
		MonthlyRent:   840000,
		Status:        models.PropertyActive,
	}
}

func seedTenant(t *testing.T, db *database.Database, name string) (*models.Property, *models.Tenant) {
	t.Helper()
	ctx := context.Background()

	prop := newProperty(name+" Apartments", models.PropertyResidential)
	require.NoError(t, NewPropertyRepository(db).Create(ctx, prop))

	tenant := &models.Tenant{
		PropertyID:  &prop.ID,
		FullName:    name,
		Phone:       "+254 712 345 678",
		Unit:        "A1",
		MonthlyRent: 35000,
		Status:      models.TenantCurrent,
	}
	require.NoError(t, NewTenantRepository(db).Create(ctx, tenant))
	return prop, tenant
}

func TestNewPropertyRepository(t *testing.T) {
	repo := NewPropertyRepository(dbtest.New(t))
	require.NotNil(t, repo)

	_, ok := repo.(*gormRepository[models.Property])
	assert.True(t, ok, "expected gorm implementation")
}

func TestPropertyRepository_CreateGetList(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository(dbtest.New(t))

	p := newProperty("Riverside Apartments", models.PropertyResidential)
	p.Amenities = models.StringList{"Parking", "Security"}
	require.NoError(t, repo.Create(ctx, p))
	assert.NotEmpty(t, p.ID)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Riverside Apartments", got.Name)
	assert.Equal(t, models.StringList{"Parking", "Security"}, got.Amenities)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, repo.Create(ctx, newProperty("Commercial Plaza", models.PropertyCommercial)))

	all, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// ordered by name
	assert.Equal(t, "Commercial Plaza", all[0].Name)
	assert.Equal(t, "Riverside Apartments", all[1].Name)

	commercial, err := repo.List(ctx, Filter{}.Eq("type", models.PropertyCommercial))
	require.NoError(t, err)
	require.Len(t, commercial, 1)
	assert.Equal(t, "Commercial Plaza", commercial[0].Name)

	limited, err := repo.List(ctx, Filter{Limit: 1, Order: "name DESC"})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "Riverside Apartments", limited[0].Name)
}

func TestRepository_ListEmptyIsNotNil(t *testing.T) {
	list, err := NewProfileRepository(dbtest.New(t)).List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository(dbtest.New(t))

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ghost := newProperty("Ghost", models.PropertyResidential)
	ghost.ID = "missing"
	err = repo.Update(ctx, ghost)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_UpdateWritesZeroValues(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository(dbtest.New(t))

	p := newProperty("Sunset Villas", models.PropertyResidential)
	require.NoError(t, repo.Create(ctx, p))

	p.OccupiedUnits = 0
	p.Status = models.PropertyMaintenance
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.OccupiedUnits)
	assert.Equal(t, models.PropertyMaintenance, got.Status)
	assert.Equal(t, 24, got.TotalUnits)
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository(dbtest.New(t))

	p := newProperty("Tech Hub", models.PropertyCommercial)
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, repo.Delete(ctx, p.ID))

	_, err := repo.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_ReferentialIntegrity(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)

	t.Run("dangling foreign key on create", func(t *testing.T) {
		tenant := &models.Tenant{
			PropertyID:  strPtr("does-not-exist"),
			FullName:    "Nobody",
			Phone:       "0700000000",
			MonthlyRent: 1000,
			Status:      models.TenantPending,
		}
		err := NewTenantRepository(db).Create(ctx, tenant)
		assert.ErrorIs(t, err, ErrReferential)
	})

	t.Run("deleting a referenced property", func(t *testing.T) {
		prop, _ := seedTenant(t, db, "Alice Wanjiku")
		err := NewPropertyRepository(db).Delete(ctx, prop.ID)
		assert.ErrorIs(t, err, ErrReferential)

		_, err = NewPropertyRepository(db).Get(ctx, prop.ID)
		assert.NoError(t, err)
	})
}

func TestTenantRepository_PreloadsProperty(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	prop, tenant := seedTenant(t, db, "John Kimani")

	got, err := NewTenantRepository(db).Get(ctx, tenant.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Property)
	assert.Equal(t, prop.Name, got.PropertyName())

	byProperty, err := NewTenantRepository(db).List(ctx, Filter{}.Eq("property_id", prop.ID))
	require.NoError(t, err)
	assert.Len(t, byProperty, 1)
}

func TestBillRepository(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	prop, tenant := seedTenant(t, db, "Mary Atieno")
	repo := NewBillRepository(db)

	due := models.NewDate(2024, time.July, 5)
	pending := &models.Bill{
		TenantID:   &tenant.ID,
		PropertyID: &prop.ID,
		BillType:   models.BillMonthly,
		Period:     "2024-07",
		Charges:    models.Charges{Rent: 28000, ServiceCharge: 2800, Water: 900, Electricity: 2200, Garbage: 500, Security: 800},
		Total:      35200,
		GrandTotal: 35200,
		DueDate:    due,
		Status:     models.BillPending,
	}
	require.NoError(t, repo.Create(ctx, pending))

	paid := &models.Bill{
		TenantID:   &tenant.ID,
		PropertyID: &prop.ID,
		BillType:   models.BillMonthly,
		Period:     "2024-06",
		Total:      35200,
		GrandTotal: 35200,
		DueDate:    models.NewDate(2024, time.June, 5),
		Status:     models.BillPaid,
		PaidDate:   models.DatePtr(models.NewDate(2024, time.June, 3)),
	}
	require.NoError(t, repo.Create(ctx, paid))

	t.Run("get preloads tenant and property", func(t *testing.T) {
		got, err := repo.Get(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mary Atieno", got.TenantName())
		assert.Equal(t, prop.Name, got.PropertyName())
		assert.Equal(t, int64(2200), got.Electricity)
		assert.True(t, time.Time(due).Equal(time.Time(got.DueDate)))
	})

	t.Run("exists for period", func(t *testing.T) {
		exists, err := repo.ExistsForPeriod(ctx, tenant.ID, "2024-07")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsForPeriod(ctx, tenant.ID, "2024-08")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("mark overdue only touches pending bills past due", func(t *testing.T) {
		n, err := repo.MarkOverdue(ctx, time.Date(2024, time.July, 5, 12, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		n, err = repo.MarkOverdue(ctx, time.Date(2024, time.July, 6, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.Get(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BillOverdue, got.Status)

		stillPaid, err := repo.Get(ctx, paid.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BillPaid, stillPaid.Status)
	})

	t.Run("where condition", func(t *testing.T) {
		overdue, err := repo.List(ctx, Filter{}.Where("status = ?", models.BillOverdue))
		require.NoError(t, err)
		require.Len(t, overdue, 1)
		assert.Equal(t, pending.ID, overdue[0].ID)
	})
}

func TestTransactor(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	tx := NewTransactor(db)
	repo := NewPropertyRepository(db)

	t.Run("commits on success", func(t *testing.T) {
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, newProperty("Garden Courts", models.PropertyResidential))
		})
		require.NoError(t, err)

		list, err := repo.List(ctx, Filter{}.Eq("name", "Garden Courts"))
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := repo.Create(ctx, newProperty("Office Complex", models.PropertyCommercial)); err != nil {
				return err
			}
			// nested calls join the outer transaction
			return tx.WithinTx(ctx, func(context.Context) error { return boom })
		})
		assert.ErrorIs(t, err, boom)

		list, err := repo.List(ctx, Filter{}.Eq("name", "Office Complex"))
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestRepository_ContextCancellation(t *testing.T) {
	repo := NewPropertyRepository(dbtest.New(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.List(ctx, Filter{})
	assert.Error(t, err)
}
