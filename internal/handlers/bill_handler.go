package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/Lelcaren/mwangaza-rentals/internal/errors"
	"github.com/Lelcaren/mwangaza-rentals/internal/middleware"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/services"
	"github.com/gin-gonic/gin"
)

// BillHandler serves /bills and the billing cycle actions.
type BillHandler struct {
	billRecords
	billing services.BillingService
	now     func() time.Time
}

// NewBillHandler creates a new BillHandler instance. A nil now uses time.Now.
func NewBillHandler(billing services.BillingService, now func() time.Time) *BillHandler {
	if now == nil {
		now = time.Now
	}
	return &BillHandler{
		billRecords: billRecords{name: "Bill", service: billing},
		billing:     billing,
		now:         now,
	}
}

// GenerateRequest is the body of POST /bills/generate.
type GenerateRequest struct {
	// Period defaults to the current month.
	Period string `json:"period"`
	// DueDay defaults to the configured due day.
	DueDay int `json:"dueDay"`
}

// MarkOverdueResponse reports how many bills changed.
type MarkOverdueResponse struct {
	AsOf    string `json:"asOf"`
	Updated int64  `json:"updated"`
}

// Generate handles POST /api/v1/bills/generate.
// It issues the monthly rent bills for every current tenant not yet billed for the period.
func (h *BillHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BindingError(c, err)
			return
		}
	}
	if req.Period == "" {
		req.Period = h.now().UTC().Format(models.PeriodLayout)
	}

	result, err := h.billing.GenerateMonthly(c.Request.Context(), req.Period, req.DueDay)
	if err != nil {
		apierrors.FromService(c, err, "Bill")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Monthly bills generated", map[string]interface{}{
			"period":  result.Period,
			"created": len(result.Created),
			"skipped": len(result.Skipped),
		})
	}
	c.JSON(http.StatusOK, ItemResponse[*services.GenerateResult]{Data: result})
}

// MarkOverdue handles POST /api/v1/bills/mark-overdue.
// Pending bills due before ?asOf (default today) become overdue.
func (h *BillHandler) MarkOverdue(c *gin.Context) {
	asOf, ok := dateParam(c, "asOf", h.now)
	if !ok {
		return
	}

	n, err := h.billing.MarkOverdue(c.Request.Context(), asOf)
	if err != nil {
		apierrors.FromService(c, err, "Bill")
		return
	}

	c.JSON(http.StatusOK, MarkOverdueResponse{AsOf: asOf.Format(models.DateLayout), Updated: n})
}
