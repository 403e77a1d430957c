package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/metrics"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/repository"
	"github.com/Lelcaren/mwangaza-rentals/internal/search"
	"github.com/Lelcaren/mwangaza-rentals/internal/validation"
)

// BillDraft is the input for creating a bill. Total, VAT and grand total are derived.
type BillDraft struct {
	TenantID      *string           `json:"tenantId,omitempty" validate:"omitempty,max=36"`
	PropertyID    *string           `json:"propertyId,omitempty" validate:"omitempty,max=36"`
	BillType      models.BillType   `json:"billType" validate:"required,oneof=monthly utility deposit other"`
	Period        string            `json:"period" validate:"omitempty,datetime=2006-01"`
	Description   *string           `json:"description,omitempty"`
	Rent          int64             `json:"rent" validate:"gte=0"`
	ServiceCharge int64             `json:"serviceCharge" validate:"gte=0"`
	Water         int64             `json:"water" validate:"gte=0"`
	Electricity   int64             `json:"electricity" validate:"gte=0"`
	Garbage       int64             `json:"garbage" validate:"gte=0"`
	Security      int64             `json:"security" validate:"gte=0"`
	DueDate       string            `json:"dueDate" validate:"required,datetime=2006-01-02"`
	Status        models.BillStatus `json:"status,omitempty" validate:"omitempty,oneof=paid pending overdue"`
	PaidDate      *string           `json:"paidDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// BillPatch changes only the supplied fields of a bill. Derived amounts are recomputed.
type BillPatch struct {
	TenantID      *string            `json:"tenantId"`
	PropertyID    *string            `json:"propertyId"`
	BillType      *models.BillType   `json:"billType"`
	Period        *string            `json:"period"`
	Description   *string            `json:"description"`
	Rent          *int64             `json:"rent"`
	ServiceCharge *int64             `json:"serviceCharge"`
	Water         *int64             `json:"water"`
	Electricity   *int64             `json:"electricity"`
	Garbage       *int64             `json:"garbage"`
	Security      *int64             `json:"security"`
	DueDate       *string            `json:"dueDate"`
	Status        *models.BillStatus `json:"status"`
	PaidDate      *string            `json:"paidDate"`
}

// BillFilter narrows a bill listing.
type BillFilter struct {
	Query      string            `form:"q"`
	TenantID   string            `form:"tenantId"`
	PropertyID string            `form:"propertyId"`
	Status     models.BillStatus `form:"status"`
	Period     string            `form:"period"`
}

// GenerateResult reports a monthly billing run.
type GenerateResult struct {
	Period  string        `json:"period"`
	Created []models.Bill `json:"created"`
	// Skipped lists tenants already billed for the period.
	Skipped []string `json:"skipped"`
}

// BillingService manages bills and the monthly billing cycle.
type BillingService interface {
	Create(ctx context.Context, draft BillDraft) (*models.Bill, error)
	List(ctx context.Context, filter BillFilter) ([]models.Bill, error)
	Get(ctx context.Context, id string) (*models.Bill, error)
	Update(ctx context.Context, id string, patch BillPatch) (*models.Bill, error)
	Delete(ctx context.Context, id string) error

	// GenerateMonthly issues one rent bill per current tenant with a property for period
	// ("2024-07"), due on dueDay of that month. Tenants already billed are skipped.
	// A dueDay of 0 uses the configured default.
	GenerateMonthly(ctx context.Context, period string, dueDay int) (*GenerateResult, error)

	// MarkOverdue flags pending bills due before asOf and returns how many changed.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type billingService struct {
	crud       crud[models.Bill]
	bills      repository.BillRepository
	tenants    repository.TenantRepository
	properties repository.PropertyRepository
	tx         repository.Transactor
	settings   Settings
	log        *logger.Logger
}

// NewBillingService creates a new instance of BillingService.
func NewBillingService(
	bills repository.BillRepository,
	tenants repository.TenantRepository,
	properties repository.PropertyRepository,
	tx repository.Transactor,
	settings Settings,
	log *logger.Logger,
) BillingService {
	return &billingService{
		crud:       crud[models.Bill]{name: "bill", repo: bills, log: log},
		bills:      bills,
		tenants:    tenants,
		properties: properties,
		tx:         tx,
		settings:   settings,
		log:        log,
	}
}

func (d BillDraft) charges() models.Charges {
	return models.Charges{
		Rent:          d.Rent,
		ServiceCharge: d.ServiceCharge,
		Water:         d.Water,
		Electricity:   d.Electricity,
		Garbage:       d.Garbage,
		Security:      d.Security,
	}
}

func (d BillDraft) record() (*models.Bill, error) {
	due, err := models.ParseDate(d.DueDate)
	if err != nil {
		return nil, validation.Field("dueDate", "Must be a date in the format "+models.DateLayout)
	}
	paid, err := parseOptionalDate(d.PaidDate)
	if err != nil {
		return nil, validation.Field("paidDate", "Must be a date in the format "+models.DateLayout)
	}

	status := d.Status
	if status == "" {
		status = models.BillPending
	}
	return &models.Bill{
		TenantID:    d.TenantID,
		PropertyID:  d.PropertyID,
		BillType:    d.BillType,
		Period:      d.Period,
		Description: d.Description,
		Charges:     d.charges(),
		DueDate:     due,
		Status:      status,
		PaidDate:    paid,
	}, nil
}

func billDraftOf(b *models.Bill) BillDraft {
	return BillDraft{
		TenantID:      b.TenantID,
		PropertyID:    b.PropertyID,
		BillType:      b.BillType,
		Period:        b.Period,
		Description:   b.Description,
		Rent:          b.Rent,
		ServiceCharge: b.ServiceCharge,
		Water:         b.Water,
		Electricity:   b.Electricity,
		Garbage:       b.Garbage,
		Security:      b.Security,
		DueDate:       time.Time(b.DueDate).Format(models.DateLayout),
		Status:        b.Status,
		PaidDate:      formatOptionalDate(b.PaidDate),
	}
}

func setAmount(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

func (p BillPatch) apply(rec *models.Bill) error {
	if p.TenantID != nil {
		rec.TenantID = p.TenantID
		rec.Tenant = nil
	}
	if p.PropertyID != nil {
		rec.PropertyID = p.PropertyID
		rec.Property = nil
	}
	if p.BillType != nil {
		rec.BillType = *p.BillType
	}
	if p.Period != nil {
		rec.Period = *p.Period
	}
	if p.Description != nil {
		rec.Description = p.Description
	}
	setAmount(&rec.Rent, p.Rent)
	setAmount(&rec.ServiceCharge, p.ServiceCharge)
	setAmount(&rec.Water, p.Water)
	setAmount(&rec.Electricity, p.Electricity)
	setAmount(&rec.Garbage, p.Garbage)
	setAmount(&rec.Security, p.Security)
	if p.DueDate != nil {
		due, err := models.ParseDate(*p.DueDate)
		if err != nil {
			return validation.Field("dueDate", "Must be a date in the format "+models.DateLayout)
		}
		rec.DueDate = due
	}
	if p.Status != nil {
		rec.Status = *p.Status
		if rec.Status != models.BillPaid && p.PaidDate == nil {
			// reopening a bill drops its settlement date
			rec.PaidDate = nil
		}
	}
	if p.PaidDate != nil {
		paid, err := parseOptionalDate(p.PaidDate)
		if err != nil {
			return validation.Field("paidDate", "Must be a date in the format "+models.DateLayout)
		}
		rec.PaidDate = paid
	}
	return nil
}

// checkStatus enforces the status invariants. A paid bill without a paid date is paid today;
// only paid bills carry a paid date.
func (s *billingService) checkStatus(rec *models.Bill) error {
	today := s.settings.today()
	switch rec.Status {
	case models.BillPaid:
		if rec.PaidDate == nil {
			rec.PaidDate = models.DatePtr(models.Date(today))
		}
	case models.BillPending:
		if rec.PaidDate != nil {
			return validation.Field("paidDate", "Must be empty for a pending bill")
		}
	case models.BillOverdue:
		if rec.PaidDate != nil {
			return validation.Field("paidDate", "Must be empty for an overdue bill")
		}
		if !time.Time(rec.DueDate).Before(today) {
			return validation.Field("status", "Bill is not past its due date")
		}
	}
	return nil
}

// resolveProperty fills in the property from the tenant when absent and reports whether it is
// commercial. Unknown ids are left for the foreign keys to reject.
func (s *billingService) resolveProperty(ctx context.Context, rec *models.Bill) (bool, error) {
	if rec.PropertyID == nil && rec.TenantID != nil {
		tenant, err := s.tenants.Get(ctx, *rec.TenantID)
		switch {
		case errors.Is(err, ErrNotFound):
			return false, nil
		case err != nil:
			return false, err
		}
		rec.PropertyID = tenant.PropertyID
		rec.Property = tenant.Property
	}
	if rec.PropertyID == nil {
		return false, nil
	}
	if rec.Property != nil && rec.Property.ID == *rec.PropertyID {
		return rec.Property.IsCommercial(), nil
	}

	property, err := s.properties.Get(ctx, *rec.PropertyID)
	switch {
	case errors.Is(err, ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return property.IsCommercial(), nil
}

// applyTotals derives total, VAT and grand total. VAT is charged on commercial lettings only.
func (s *billingService) applyTotals(rec *models.Bill, commercial bool) {
	rec.Total = rec.Charges.Sum()
	rec.VAT = nil
	rec.GrandTotal = rec.Total
	if commercial {
		vat := metrics.VATAmount(metrics.VATBase(rec.Charges, s.settings.VATBase), s.settings.VATRate)
		rec.VAT = &vat
		rec.GrandTotal = rec.Total + vat
	}
}

// prepare runs the derivations and checks shared by create and update.
func (s *billingService) prepare(ctx context.Context, rec *models.Bill) error {
	commercial, err := s.resolveProperty(ctx, rec)
	if err != nil {
		return err
	}
	s.applyTotals(rec, commercial)
	return s.checkStatus(rec)
}

func (s *billingService) Create(ctx context.Context, draft BillDraft) (*models.Bill, error) {
	if err := validation.Struct(draft); err != nil {
		return nil, err
	}
	rec, err := draft.record()
	if err != nil {
		return nil, err
	}
	if err := s.prepare(ctx, rec); err != nil {
		return nil, err
	}
	return s.crud.create(ctx, rec)
}

func (s *billingService) List(ctx context.Context, filter BillFilter) ([]models.Bill, error) {
	f := repository.Filter{}
	if filter.TenantID != "" {
		f = f.Eq("tenant_id", filter.TenantID)
	}
	if filter.PropertyID != "" {
		f = f.Eq("property_id", filter.PropertyID)
	}
	if filter.Status != "" {
		f = f.Eq("status", filter.Status)
	}
	if filter.Period != "" {
		f = f.Eq("period", filter.Period)
	}
	return s.crud.list(ctx, f, func(bs []models.Bill) []models.Bill {
		return search.Bills(bs, filter.Query)
	})
}

func (s *billingService) Get(ctx context.Context, id string) (*models.Bill, error) {
	return s.crud.get(ctx, id)
}

func (s *billingService) Update(ctx context.Context, id string, patch BillPatch) (*models.Bill, error) {
	return s.crud.update(ctx, id, func(rec *models.Bill) error {
		if err := patch.apply(rec); err != nil {
			return err
		}
		if err := validation.Struct(billDraftOf(rec)); err != nil {
			return err
		}
		return s.prepare(ctx, rec)
	})
}

func (s *billingService) Delete(ctx context.Context, id string) error {
	return s.crud.delete(ctx, id)
}

func (s *billingService) GenerateMonthly(ctx context.Context, period string, dueDay int) (*GenerateResult, error) {
	month, err := models.ParsePeriod(period)
	if err != nil {
		return nil, validation.Field("period", "Must be a month in the format "+models.PeriodLayout)
	}
	if dueDay == 0 {
		dueDay = s.settings.DueDay
	}
	if dueDay < 1 || dueDay > 28 {
		return nil, validation.Field("dueDay", "Must be between 1 and 28")
	}

	tenants, err := s.tenants.List(ctx, repository.Filter{}.Eq("status", models.TenantCurrent))
	if err != nil {
		return nil, fmt.Errorf("failed to load tenants for billing: %w", err)
	}

	due := models.NewDate(month.Year(), month.Month(), dueDay)
	description := "Rent for " + month.Format("January 2006")
	result := &GenerateResult{Period: period, Created: []models.Bill{}, Skipped: []string{}}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for i := range tenants {
			tenant := tenants[i]
			if tenant.PropertyID == nil {
				continue
			}

			exists, err := s.bills.ExistsForPeriod(ctx, tenant.ID, period)
			if err != nil {
				return err
			}
			if exists {
				result.Skipped = append(result.Skipped, tenant.ID)
				continue
			}

			rec := &models.Bill{
				TenantID:    &tenant.ID,
				PropertyID:  tenant.PropertyID,
				BillType:    models.BillMonthly,
				Period:      period,
				Description: strPtr(description),
				Charges:     models.Charges{Rent: tenant.MonthlyRent},
				DueDate:     due,
				Status:      models.BillPending,
			}
			s.applyTotals(rec, tenant.Property != nil && tenant.Property.IsCommercial())

			if err := s.bills.Create(ctx, rec); err != nil {
				return fmt.Errorf("failed to bill tenant %s: %w", tenant.ID, err)
			}
			rec.Tenant = &tenant
			rec.Property = tenant.Property
			result.Created = append(result.Created, *rec)
		}
		return nil
	})
	if err != nil {
		s.log.Error("Monthly billing failed", err, map[string]interface{}{"period": period})
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.log.Info("Generated monthly bills", map[string]interface{}{
		"period":  period,
		"created": len(result.Created),
		"skipped": len(result.Skipped),
	})
	return result, nil
}

func (s *billingService) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	n, err := s.bills.MarkOverdue(ctx, asOf)
	if err != nil {
		s.log.Error("Failed to mark overdue bills", err, nil)
		return 0, err
	}
	s.log.Info("Marked overdue bills", map[string]interface{}{
		"count": n,
		"as_of": asOf.Format(models.DateLayout),
	})
	return n, nil
}
