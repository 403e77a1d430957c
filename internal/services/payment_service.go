package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/metrics"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/repository"
	"github.com/Lelcaren/mwangaza-rentals/internal/search"
	"github.com/Lelcaren/mwangaza-rentals/internal/validation"
)

// PaymentDraft is the input for recording a payment.
type PaymentDraft struct {
	TenantID      *string              `json:"tenantId,omitempty" validate:"omitempty,max=36"`
	BillingID     *string              `json:"billingId,omitempty" validate:"omitempty,max=36"`
	Amount        int64                `json:"amount" validate:"gt=0"`
	Method        models.PaymentMethod `json:"paymentMethod" validate:"required,oneof=mobile-money bank cash"`
	TransactionID *string              `json:"transactionId,omitempty" validate:"omitempty,max=100"`
	MpesaReceipt  *string              `json:"mpesaReceipt,omitempty" validate:"omitempty,max=50"`
	Phone         *string              `json:"phoneNumber,omitempty" validate:"omitempty,max=50"`
	Notes         *string              `json:"notes,omitempty"`
	Status        models.PaymentStatus `json:"status,omitempty" validate:"omitempty,oneof=pending completed failed"`
	PaymentDate   *time.Time           `json:"paymentDate,omitempty"`
}

// PaymentPatch changes only the supplied fields of a payment.
type PaymentPatch struct {
	TenantID      *string               `json:"tenantId"`
	BillingID     *string               `json:"billingId"`
	Amount        *int64                `json:"amount"`
	Method        *models.PaymentMethod `json:"paymentMethod"`
	TransactionID *string               `json:"transactionId"`
	MpesaReceipt  *string               `json:"mpesaReceipt"`
	Phone         *string               `json:"phoneNumber"`
	Notes         *string               `json:"notes"`
	Status        *models.PaymentStatus `json:"status"`
	PaymentDate   *time.Time            `json:"paymentDate"`
}

// PaymentFilter narrows a payment listing.
type PaymentFilter struct {
	Query     string               `form:"q"`
	TenantID  string               `form:"tenantId"`
	BillingID string               `form:"billingId"`
	Status    models.PaymentStatus `form:"status"`
	Method    models.PaymentMethod `form:"method"`
}

// PaymentService records payments. A bill is settled once its completed payments cover the amount due.
type PaymentService interface {
	Create(ctx context.Context, draft PaymentDraft) (*models.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]models.Payment, error)
	Get(ctx context.Context, id string) (*models.Payment, error)
	// Update returns ErrInvalidTransition when the status change would leave a terminal state.
	Update(ctx context.Context, id string, patch PaymentPatch) (*models.Payment, error)
	Delete(ctx context.Context, id string) error
}

type paymentService struct {
	crud     crud[models.Payment]
	payments repository.PaymentRepository
	bills    repository.BillRepository
	tx       repository.Transactor
	settings Settings
	log      *logger.Logger
}

// NewPaymentService creates a new instance of PaymentService.
func NewPaymentService(
	payments repository.PaymentRepository,
	bills repository.BillRepository,
	tx repository.Transactor,
	settings Settings,
	log *logger.Logger,
) PaymentService {
	return &paymentService{
		crud:     crud[models.Payment]{name: "payment", repo: payments, log: log},
		payments: payments,
		bills:    bills,
		tx:       tx,
		settings: settings,
		log:      log,
	}
}

func (d PaymentDraft) record() *models.Payment {
	status := d.Status
	if status == "" {
		status = models.PaymentPending
	}
	return &models.Payment{
		TenantID:      d.TenantID,
		BillingID:     d.BillingID,
		Amount:        d.Amount,
		Method:        d.Method,
		TransactionID: d.TransactionID,
		MpesaReceipt:  d.MpesaReceipt,
		Phone:         d.Phone,
		Notes:         d.Notes,
		Status:        status,
		PaymentDate:   d.PaymentDate,
	}
}

func paymentDraftOf(p *models.Payment) PaymentDraft {
	return PaymentDraft{
		TenantID:      p.TenantID,
		BillingID:     p.BillingID,
		Amount:        p.Amount,
		Method:        p.Method,
		TransactionID: p.TransactionID,
		MpesaReceipt:  p.MpesaReceipt,
		Phone:         p.Phone,
		Notes:         p.Notes,
		Status:        p.Status,
		PaymentDate:   p.PaymentDate,
	}
}

func (p PaymentPatch) apply(rec *models.Payment) {
	if p.TenantID != nil {
		rec.TenantID = p.TenantID
		rec.Tenant = nil
	}
	if p.BillingID != nil {
		rec.BillingID = p.BillingID
		rec.Bill = nil
	}
	if p.Amount != nil {
		rec.Amount = *p.Amount
	}
	if p.Method != nil {
		rec.Method = *p.Method
	}
	if p.TransactionID != nil {
		rec.TransactionID = p.TransactionID
	}
	if p.MpesaReceipt != nil {
		rec.MpesaReceipt = p.MpesaReceipt
	}
	if p.Phone != nil {
		rec.Phone = p.Phone
	}
	if p.Notes != nil {
		rec.Notes = p.Notes
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.PaymentDate != nil {
		rec.PaymentDate = p.PaymentDate
	}
}

// stampCompleted gives a completed payment its payment date.
func (s *paymentService) stampCompleted(rec *models.Payment) {
	if rec.Status == models.PaymentCompleted && rec.PaymentDate == nil {
		now := s.settings.now()
		rec.PaymentDate = &now
	}
}

// settleBill marks the payment's bill paid on the payment date once the bill's completed
// payments add up to its amount due. Partially paid bills keep their status.
func (s *paymentService) settleBill(ctx context.Context, payment *models.Payment) error {
	if payment.Status != models.PaymentCompleted || payment.BillingID == nil {
		return nil
	}

	bill, err := s.bills.Get(ctx, *payment.BillingID)
	if err != nil {
		return fmt.Errorf("failed to load bill %s for payment: %w", *payment.BillingID, err)
	}
	if bill.Status == models.BillPaid {
		return nil
	}

	received, err := s.payments.List(ctx, repository.Filter{}.
		Eq("billing_id", bill.ID).
		Eq("status", models.PaymentCompleted))
	if err != nil {
		return fmt.Errorf("failed to load payments of bill %s: %w", bill.ID, err)
	}
	collected := metrics.TotalCollected(received)
	if collected < bill.AmountDue() {
		s.log.Info("Bill partially paid", map[string]interface{}{
			"bill_id":     bill.ID,
			"payment_id":  payment.ID,
			"collected":   collected,
			"outstanding": bill.AmountDue() - collected,
		})
		return nil
	}

	paid := s.settings.today()
	if payment.PaymentDate != nil {
		t := payment.PaymentDate.UTC()
		paid = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	bill.Status = models.BillPaid
	bill.PaidDate = models.DatePtr(models.Date(paid))
	if err := s.bills.Update(ctx, bill); err != nil {
		return fmt.Errorf("failed to settle bill %s: %w", bill.ID, err)
	}

	s.log.Info("Bill settled by payment", map[string]interface{}{
		"bill_id":    bill.ID,
		"payment_id": payment.ID,
	})
	return nil
}

func (s *paymentService) Create(ctx context.Context, draft PaymentDraft) (*models.Payment, error) {
	if err := validation.Struct(draft); err != nil {
		return nil, err
	}
	rec := draft.record()
	s.stampCompleted(rec)

	var created *models.Payment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.crud.create(ctx, rec)
		if err != nil {
			return err
		}
		return s.settleBill(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *paymentService) List(ctx context.Context, filter PaymentFilter) ([]models.Payment, error) {
	f := repository.Filter{}
	if filter.TenantID != "" {
		f = f.Eq("tenant_id", filter.TenantID)
	}
	if filter.BillingID != "" {
		f = f.Eq("billing_id", filter.BillingID)
	}
	if filter.Status != "" {
		f = f.Eq("status", filter.Status)
	}
	if filter.Method != "" {
		f = f.Eq("payment_method", filter.Method)
	}
	return s.crud.list(ctx, f, func(ps []models.Payment) []models.Payment {
		return search.Payments(ps, filter.Query)
	})
}

func (s *paymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	return s.crud.get(ctx, id)
}

func (s *paymentService) Update(ctx context.Context, id string, patch PaymentPatch) (*models.Payment, error) {
	var updated *models.Payment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.crud.update(ctx, id, func(rec *models.Payment) error {
			from := rec.Status
			patch.apply(rec)
			if err := validation.Struct(paymentDraftOf(rec)); err != nil {
				return err
			}
			if !from.CanTransitionTo(rec.Status) {
				return fmt.Errorf("%w: payment %s cannot move from %s to %s", ErrInvalidTransition, id, from, rec.Status)
			}
			s.stampCompleted(rec)
			return nil
		})
		if err != nil {
			return err
		}
		return s.settleBill(ctx, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *paymentService) Delete(ctx context.Context, id string) error {
	return s.crud.delete(ctx, id)
}
