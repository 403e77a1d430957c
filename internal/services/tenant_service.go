package services

import (
	"context"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/repository"
	"github.com/Lelcaren/mwangaza-rentals/internal/search"
	"github.com/Lelcaren/mwangaza-rentals/internal/validation"
)

// TenantDraft is the input for creating a tenant. Every tenant occupies a unit of a property.
// Dates are ISO "2006-01-02".
type TenantDraft struct {
	UserID           *string             `json:"userId,omitempty" validate:"omitempty,max=36"`
	PropertyID       *string             `json:"propertyId" validate:"required,max=36"`
	FullName         string              `json:"fullName" validate:"required,max=255"`
	Phone            string              `json:"phone" validate:"required,max=50"`
	Email            *string             `json:"email,omitempty" validate:"omitempty,email"`
	NationalID       *string             `json:"nationalId,omitempty" validate:"omitempty,max=50"`
	EmergencyContact *string             `json:"emergencyContact,omitempty"`
	EmergencyPhone   *string             `json:"emergencyPhone,omitempty" validate:"omitempty,max=50"`
	Unit             string              `json:"unit" validate:"max=100"`
	MonthlyRent      int64               `json:"monthlyRent" validate:"gt=0"`
	DepositPaid      int64               `json:"depositPaid" validate:"gte=0"`
	LeaseStart       *string             `json:"leaseStart,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LeaseEnd         *string             `json:"leaseEnd,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status           models.TenantStatus `json:"status,omitempty" validate:"omitempty,oneof=current overdue pending"`
}

// TenantPatch changes only the supplied fields of a tenant.
type TenantPatch struct {
	UserID           *string              `json:"userId"`
	PropertyID       *string              `json:"propertyId"`
	FullName         *string              `json:"fullName"`
	Phone            *string              `json:"phone"`
	Email            *string              `json:"email"`
	NationalID       *string              `json:"nationalId"`
	EmergencyContact *string              `json:"emergencyContact"`
	EmergencyPhone   *string              `json:"emergencyPhone"`
	Unit             *string              `json:"unit"`
	MonthlyRent      *int64               `json:"monthlyRent"`
	DepositPaid      *int64               `json:"depositPaid"`
	LeaseStart       *string              `json:"leaseStart"`
	LeaseEnd         *string              `json:"leaseEnd"`
	Status           *models.TenantStatus `json:"status"`
}

// TenantFilter narrows a tenant listing.
type TenantFilter struct {
	Query      string              `form:"q"`
	PropertyID string              `form:"propertyId"`
	Status     models.TenantStatus `form:"status"`
}

// TenantService manages tenants.
type TenantService interface {
	Create(ctx context.Context, draft TenantDraft) (*models.Tenant, error)
	List(ctx context.Context, filter TenantFilter) ([]models.Tenant, error)
	Get(ctx context.Context, id string) (*models.Tenant, error)
	Update(ctx context.Context, id string, patch TenantPatch) (*models.Tenant, error)
	Delete(ctx context.Context, id string) error
}

type tenantService struct {
	crud crud[models.Tenant]
}

// NewTenantService creates a new instance of TenantService.
func NewTenantService(repo repository.TenantRepository, log *logger.Logger) TenantService {
	return &tenantService{
		crud: crud[models.Tenant]{name: "tenant", repo: repo, log: log},
	}
}

// validate runs the tag checks then the lease ordering check.
func (d TenantDraft) validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	if d.LeaseStart != nil && d.LeaseEnd != nil && *d.LeaseStart != "" && *d.LeaseEnd != "" {
		start, _ := time.Parse(models.DateLayout, *d.LeaseStart)
		end, _ := time.Parse(models.DateLayout, *d.LeaseEnd)
		if !start.Before(end) {
			return validation.Field("leaseEnd", "Must be after leaseStart")
		}
	}
	return nil
}

func (d TenantDraft) record() (*models.Tenant, error) {
	start, err := parseOptionalDate(d.LeaseStart)
	if err != nil {
		return nil, validation.Field("leaseStart", err.Error())
	}
	end, err := parseOptionalDate(d.LeaseEnd)
	if err != nil {
		return nil, validation.Field("leaseEnd", err.Error())
	}

	status := d.Status
	if status == "" {
		status = models.TenantCurrent
	}
	return &models.Tenant{
		UserID:           d.UserID,
		PropertyID:       d.PropertyID,
		FullName:         d.FullName,
		Phone:            d.Phone,
		Email:            d.Email,
		NationalID:       d.NationalID,
		EmergencyContact: d.EmergencyContact,
		EmergencyPhone:   d.EmergencyPhone,
		Unit:             d.Unit,
		MonthlyRent:      d.MonthlyRent,
		DepositPaid:      d.DepositPaid,
		LeaseStart:       start,
		LeaseEnd:         end,
		Status:           status,
	}, nil
}

func tenantDraftOf(t *models.Tenant) TenantDraft {
	return TenantDraft{
		UserID:           t.UserID,
		PropertyID:       t.PropertyID,
		FullName:         t.FullName,
		Phone:            t.Phone,
		Email:            t.Email,
		NationalID:       t.NationalID,
		EmergencyContact: t.EmergencyContact,
		EmergencyPhone:   t.EmergencyPhone,
		Unit:             t.Unit,
		MonthlyRent:      t.MonthlyRent,
		DepositPaid:      t.DepositPaid,
		LeaseStart:       formatOptionalDate(t.LeaseStart),
		LeaseEnd:         formatOptionalDate(t.LeaseEnd),
		Status:           t.Status,
	}
}

func (p TenantPatch) apply(rec *models.Tenant) error {
	if p.UserID != nil {
		rec.UserID = p.UserID
	}
	if p.PropertyID != nil {
		rec.PropertyID = p.PropertyID
		// drop the stale preload so it is not mistaken for the new property
		rec.Property = nil
	}
	if p.FullName != nil {
		rec.FullName = *p.FullName
	}
	if p.Phone != nil {
		rec.Phone = *p.Phone
	}
	if p.Email != nil {
		rec.Email = p.Email
	}
	if p.NationalID != nil {
		rec.NationalID = p.NationalID
	}
	if p.EmergencyContact != nil {
		rec.EmergencyContact = p.EmergencyContact
	}
	if p.EmergencyPhone != nil {
		rec.EmergencyPhone = p.EmergencyPhone
	}
	if p.Unit != nil {
		rec.Unit = *p.Unit
	}
	if p.MonthlyRent != nil {
		rec.MonthlyRent = *p.MonthlyRent
	}
	if p.DepositPaid != nil {
		rec.DepositPaid = *p.DepositPaid
	}
	if p.LeaseStart != nil {
		d, err := parseOptionalDate(p.LeaseStart)
		if err != nil {
			return validation.Field("leaseStart", "Must be a date in the format "+models.DateLayout)
		}
		rec.LeaseStart = d
	}
	if p.LeaseEnd != nil {
		d, err := parseOptionalDate(p.LeaseEnd)
		if err != nil {
			return validation.Field("leaseEnd", "Must be a date in the format "+models.DateLayout)
		}
		rec.LeaseEnd = d
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
	return nil
}

func (s *tenantService) Create(ctx context.Context, draft TenantDraft) (*models.Tenant, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	rec, err := draft.record()
	if err != nil {
		return nil, err
	}
	return s.crud.create(ctx, rec)
}

func (s *tenantService) List(ctx context.Context, filter TenantFilter) ([]models.Tenant, error) {
	f := repository.Filter{}
	if filter.PropertyID != "" {
		f = f.Eq("property_id", filter.PropertyID)
	}
	if filter.Status != "" {
		f = f.Eq("status", filter.Status)
	}
	return s.crud.list(ctx, f, func(ts []models.Tenant) []models.Tenant {
		return search.Tenants(ts, filter.Query)
	})
}

func (s *tenantService) Get(ctx context.Context, id string) (*models.Tenant, error) {
	return s.crud.get(ctx, id)
}

func (s *tenantService) Update(ctx context.Context, id string, patch TenantPatch) (*models.Tenant, error) {
	return s.crud.update(ctx, id, func(rec *models.Tenant) error {
		if err := patch.apply(rec); err != nil {
			return err
		}
		return tenantDraftOf(rec).validate()
	})
}

func (s *tenantService) Delete(ctx context.Context, id string) error {
	return s.crud.delete(ctx, id)
}
