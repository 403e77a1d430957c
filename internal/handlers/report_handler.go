package handlers

import (
	"bytes"
	"net/http"
	"time"

	apierrors "github.com/Lelcaren/mwangaza-rentals/internal/errors"
	"github.com/Lelcaren/mwangaza-rentals/internal/export"
	"github.com/Lelcaren/mwangaza-rentals/internal/format"
	"github.com/Lelcaren/mwangaza-rentals/internal/services"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the dashboard and billing reports.
type ReportHandler struct {
	reports   services.ReportService
	formatter format.Formatter
	now       func() time.Time
}

// NewReportHandler creates a new ReportHandler instance. A nil now uses time.Now.
func NewReportHandler(reports services.ReportService, formatter format.Formatter, now func() time.Time) *ReportHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportHandler{reports: reports, formatter: formatter, now: now}
}

// DashboardResponse is the dashboard with its money figures rendered for display.
type DashboardResponse struct {
	Data    *services.DashboardReport `json:"data"`
	Display map[string]string         `json:"display"`
}

// BillingResponse is the billing report with its money figures rendered for display.
type BillingResponse struct {
	Data    *services.BillingReport `json:"data"`
	Display map[string]string       `json:"display"`
}

// Dashboard handles GET /api/v1/reports/dashboard.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	asOf, ok := dateParam(c, "asOf", h.now)
	if !ok {
		return
	}

	report, err := h.reports.Dashboard(c.Request.Context(), asOf)
	if err != nil {
		apierrors.FromService(c, err, "Report")
		return
	}

	c.JSON(http.StatusOK, DashboardResponse{
		Data: report,
		Display: map[string]string{
			"monthlyRevenue":     h.formatter.Currency(report.MonthlyRevenue),
			"outstandingBalance": h.formatter.Currency(report.OutstandingBalance),
			"asOf":               h.formatter.Time(asOf),
		},
	})
}

// Billing handles GET /api/v1/reports/billing?period=2024-07.
func (h *ReportHandler) Billing(c *gin.Context) {
	report, ok := h.billing(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, BillingResponse{
		Data: report,
		Display: map[string]string{
			"totalBilled":    h.formatter.Currency(report.TotalBilled),
			"collected":      h.formatter.Currency(report.Collected),
			"outstanding":    h.formatter.Currency(report.Outstanding),
			"vatCollected":   h.formatter.Currency(report.VATCollected),
			"withholdingTax": h.formatter.Currency(report.WithholdingTax),
		},
	})
}

// ExportBilling handles GET /api/v1/reports/billing/export and returns the report as XLSX.
func (h *ReportHandler) ExportBilling(c *gin.Context) {
	report, ok := h.billing(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBillingReport(&buf, report, h.formatter); err != nil {
		apierrors.InternalServerError(c, "Failed to build the billing workbook", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.BillingFilename(report.Period)+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *ReportHandler) billing(c *gin.Context) (*services.BillingReport, bool) {
	asOf, ok := dateParam(c, "asOf", h.now)
	if !ok {
		return nil, false
	}

	report, err := h.reports.Billing(c.Request.Context(), c.Query("period"), asOf)
	if err != nil {
		apierrors.FromService(c, err, "Report")
		return nil, false
	}
	return report, true
}
