package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/database"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"gorm.io/datatypes"
)

// PropertyRepository stores properties.
type PropertyRepository interface {
	Repository[models.Property]
}

// TenantRepository stores tenants. Reads preload the tenant's property.
type TenantRepository interface {
	Repository[models.Tenant]
}

// BillRepository stores bills. Reads preload the tenant and property.
type BillRepository interface {
	Repository[models.Bill]

	// ExistsForPeriod reports whether the tenant already has a bill for period.
	ExistsForPeriod(ctx context.Context, tenantID, period string) (bool, error)

	// MarkOverdue flags pending bills due before asOf as overdue and returns how many changed.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// PaymentRepository stores payments. Reads preload the tenant.
type PaymentRepository interface {
	Repository[models.Payment]
}

// NotificationRepository stores notifications.
type NotificationRepository interface {
	Repository[models.Notification]
}

// ProfileRepository stores profiles.
type ProfileRepository interface {
	Repository[models.Profile]
}

// NewPropertyRepository creates a new instance of PropertyRepository.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return newGormRepository[models.Property](db, "name ASC")
}

// NewTenantRepository creates a new instance of TenantRepository.
func NewTenantRepository(db *database.Database) TenantRepository {
	return newGormRepository[models.Tenant](db, "full_name ASC", "Property")
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *database.Database) PaymentRepository {
	return newGormRepository[models.Payment](db, "payment_date DESC, created_at DESC", "Tenant")
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *database.Database) NotificationRepository {
	return newGormRepository[models.Notification](db, "created_at DESC")
}

// NewProfileRepository creates a new instance of ProfileRepository.
func NewProfileRepository(db *database.Database) ProfileRepository {
	return newGormRepository[models.Profile](db, "created_at ASC")
}

type billRepository struct {
	*gormRepository[models.Bill]
}

// NewBillRepository creates a new instance of BillRepository.
func NewBillRepository(db *database.Database) BillRepository {
	return &billRepository{
		gormRepository: newGormRepository[models.Bill](db, "due_date DESC, created_at DESC", "Tenant", "Property"),
	}
}

func (r *billRepository) ExistsForPeriod(ctx context.Context, tenantID, period string) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&models.Bill{}).
		Where("tenant_id = ? AND period = ?", tenantID, period).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check bills for tenant %s: %w", tenantID, translate(err))
	}
	return count > 0, nil
}

func (r *billRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	today := datatypes.Date(time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC))
	res := r.conn(ctx).
		Model(&models.Bill{}).
		Where("status = ? AND due_date < ? AND paid_date IS NULL", models.BillPending, today).
		Update("status", models.BillOverdue)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark overdue bills: %w", translate(res.Error))
	}
	return res.RowsAffected, nil
}
