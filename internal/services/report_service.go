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
	"github.com/Lelcaren/mwangaza-rentals/internal/validation"
)

// recentPaymentsLimit is how many payments the dashboard lists.
const recentPaymentsLimit = 5

// PropertyCounts counts properties by type.
type PropertyCounts struct {
	Total       int `json:"total"`
	Residential int `json:"residential"`
	Commercial  int `json:"commercial"`
}

// DashboardReport is the portfolio overview.
type DashboardReport struct {
	AsOf          string         `json:"asOf"`
	Properties    PropertyCounts `json:"properties"`
	TotalUnits    int            `json:"totalUnits"`
	OccupiedUnits int            `json:"occupiedUnits"`
	// Occupancy is nil when the portfolio has no units.
	Occupancy          *int             `json:"occupancy"`
	ActiveTenants      int              `json:"activeTenants"`
	MonthlyRevenue     int64            `json:"monthlyRevenue"`
	OutstandingBalance int64            `json:"outstandingBalance"`
	OverdueBills       int              `json:"overdueBills"`
	RecentPayments     []models.Payment `json:"recentPayments"`
}

// BillCounts counts bills by status.
type BillCounts struct {
	Paid    int `json:"paid"`
	Pending int `json:"pending"`
	Overdue int `json:"overdue"`
}

// PropertyPerformance is one property's line in the billing report.
type PropertyPerformance struct {
	PropertyID string              `json:"propertyId"`
	Name       string              `json:"name"`
	Type       models.PropertyType `json:"type"`
	Occupancy  *int                `json:"occupancy"`
	Billed     int64               `json:"billed"`
	Collected  int64               `json:"collected"`
}

// BillingReport is the financial summary for a period, or for all time when Period is empty.
type BillingReport struct {
	Period      string `json:"period,omitempty"`
	AsOf        string `json:"asOf"`
	TotalBilled int64  `json:"totalBilled"`
	Collected   int64  `json:"collected"`
	Outstanding int64  `json:"outstanding"`
	// CollectionRate counts paid bills; AmountCollectionRate compares shillings. Nil when undefined.
	CollectionRate       *int                           `json:"collectionRate"`
	AmountCollectionRate *int                           `json:"amountCollectionRate"`
	Bills                BillCounts                     `json:"bills"`
	RevenueByMethod      map[models.PaymentMethod]int64 `json:"revenueByMethod"`
	Ageing               map[metrics.Bucket]int64       `json:"ageing"`
	VATCollected         int64                          `json:"vatCollected"`
	CommercialRent       int64                          `json:"commercialRent"`
	WithholdingTax       int64                          `json:"withholdingTax"`
	Properties           []PropertyPerformance          `json:"properties"`
}

// ReportService aggregates records into reports.
type ReportService interface {
	Dashboard(ctx context.Context, asOf time.Time) (*DashboardReport, error)
	// Billing reports on period ("2024-07"); an empty period covers every bill.
	Billing(ctx context.Context, period string, asOf time.Time) (*BillingReport, error)
}

type reportService struct {
	properties repository.PropertyRepository
	tenants    repository.TenantRepository
	bills      repository.BillRepository
	payments   repository.PaymentRepository
	settings   Settings
	log        *logger.Logger
}

// NewReportService creates a new instance of ReportService.
func NewReportService(
	properties repository.PropertyRepository,
	tenants repository.TenantRepository,
	bills repository.BillRepository,
	payments repository.PaymentRepository,
	settings Settings,
	log *logger.Logger,
) ReportService {
	return &reportService{
		properties: properties,
		tenants:    tenants,
		bills:      bills,
		payments:   payments,
		settings:   settings,
		log:        log,
	}
}

// rate turns an undefined rate into nil.
func rate(v int, err error) (*int, error) {
	if errors.Is(err, metrics.ErrDivisionUndefined) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// inMonth reports whether t falls in the calendar month of month.
func inMonth(t *time.Time, month time.Time) bool {
	if t == nil {
		return false
	}
	u := t.UTC()
	return u.Year() == month.Year() && u.Month() == month.Month()
}

func (s *reportService) Dashboard(ctx context.Context, asOf time.Time) (*DashboardReport, error) {
	properties, err := s.properties.List(ctx, repository.Filter{})
	if err != nil {
		return nil, fmt.Errorf("dashboard properties: %w", err)
	}
	tenants, err := s.tenants.List(ctx, repository.Filter{}.Eq("status", models.TenantCurrent))
	if err != nil {
		return nil, fmt.Errorf("dashboard tenants: %w", err)
	}
	bills, err := s.bills.List(ctx, repository.Filter{})
	if err != nil {
		return nil, fmt.Errorf("dashboard bills: %w", err)
	}
	payments, err := s.payments.List(ctx, repository.Filter{})
	if err != nil {
		return nil, fmt.Errorf("dashboard payments: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &DashboardReport{
		AsOf:               asOf.Format(models.DateLayout),
		ActiveTenants:      len(tenants),
		OutstandingBalance: metrics.OutstandingAmount(bills),
		RecentPayments:     []models.Payment{},
	}

	for _, p := range properties {
		report.Properties.Total++
		if p.IsCommercial() {
			report.Properties.Commercial++
		} else {
			report.Properties.Residential++
		}
		report.TotalUnits += p.TotalUnits
		report.OccupiedUnits += p.OccupiedUnits
	}
	if report.Occupancy, err = rate(metrics.PortfolioOccupancy(properties)); err != nil {
		return nil, err
	}

	for _, b := range bills {
		if b.Status == models.BillOverdue {
			report.OverdueBills++
		}
	}

	var thisMonth []models.Payment
	for _, p := range payments {
		if inMonth(p.PaymentDate, asOf) {
			thisMonth = append(thisMonth, p)
		}
	}
	report.MonthlyRevenue = metrics.TotalCollected(thisMonth)

	// payments are listed newest first
	for i := 0; i < len(payments) && i < recentPaymentsLimit; i++ {
		report.RecentPayments = append(report.RecentPayments, payments[i])
	}

	return report, nil
}

func (s *reportService) Billing(ctx context.Context, period string, asOf time.Time) (*BillingReport, error) {
	billFilter := repository.Filter{}
	var month time.Time
	if period != "" {
		var err error
		if month, err = models.ParsePeriod(period); err != nil {
			return nil, validation.Field("period", "Must be a month in the format "+models.PeriodLayout)
		}
		billFilter = billFilter.Eq("period", period)
	}

	properties, err := s.properties.List(ctx, repository.Filter{})
	if err != nil {
		return nil, fmt.Errorf("billing report properties: %w", err)
	}
	bills, err := s.bills.List(ctx, billFilter)
	if err != nil {
		return nil, fmt.Errorf("billing report bills: %w", err)
	}
	payments, err := s.payments.List(ctx, repository.Filter{}.Eq("status", models.PaymentCompleted))
	if err != nil {
		return nil, fmt.Errorf("billing report payments: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if period != "" {
		inPeriod := payments[:0:0]
		for _, p := range payments {
			if inMonth(p.PaymentDate, month) {
				inPeriod = append(inPeriod, p)
			}
		}
		payments = inPeriod
	}

	commercialRent := metrics.CommercialRentTotal(bills, properties)
	report := &BillingReport{
		Period:          period,
		AsOf:            asOf.Format(models.DateLayout),
		TotalBilled:     metrics.TotalBilled(bills),
		Collected:       metrics.TotalCollected(payments),
		Outstanding:     metrics.OutstandingAmount(bills),
		RevenueByMethod: metrics.RevenueByMethod(payments),
		Ageing:          metrics.AgingReport(bills, asOf),
		VATCollected:    metrics.VATCollected(bills),
		CommercialRent:  commercialRent,
		WithholdingTax:  metrics.WithholdingTax(commercialRent, s.settings.WHTRate),
		Properties:      make([]PropertyPerformance, 0, len(properties)),
	}

	for _, b := range bills {
		switch b.Status {
		case models.BillPaid:
			report.Bills.Paid++
		case models.BillPending:
			report.Bills.Pending++
		case models.BillOverdue:
			report.Bills.Overdue++
		}
	}
	if report.CollectionRate, err = rate(metrics.BillCollectionRate(bills)); err != nil {
		return nil, err
	}
	if report.AmountCollectionRate, err = rate(metrics.AmountCollectionRate(report.Collected, report.TotalBilled)); err != nil {
		return nil, err
	}

	byProperty := make(map[string][]models.Bill)
	for _, b := range bills {
		if b.PropertyID != nil {
			byProperty[*b.PropertyID] = append(byProperty[*b.PropertyID], b)
		}
	}
	for _, p := range properties {
		perf := PropertyPerformance{PropertyID: p.ID, Name: p.Name, Type: p.Type}
		if perf.Occupancy, err = rate(metrics.OccupancyRate(p.OccupiedUnits, p.TotalUnits)); err != nil {
			return nil, err
		}
		propertyBills := byProperty[p.ID]
		perf.Billed = metrics.TotalBilled(propertyBills)
		perf.Collected = perf.Billed - metrics.OutstandingAmount(propertyBills)
		report.Properties = append(report.Properties, perf)
	}

	s.log.Debug("Built billing report", map[string]interface{}{
		"period": period,
		"bills":  len(bills),
	})
	return report, nil
}
