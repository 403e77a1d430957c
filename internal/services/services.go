package services

import (
	"context"
	"errors"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/metrics"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/repository"
	"github.com/Lelcaren/mwangaza-rentals/internal/validation"
)

// Service-level errors
var (
	ErrValidation        = validation.ErrInvalid
	ErrNotFound          = repository.ErrNotFound
	ErrReferential       = repository.ErrReferential
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Settings holds the billing parameters shared by the services.
type Settings struct {
	VATRate float64
	WHTRate float64
	// VATBase lists the bill components VAT is charged on.
	VATBase []models.Component
	DueDay  int
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// DefaultSettings returns the Kenyan defaults.
func DefaultSettings() Settings {
	return Settings{
		VATRate: metrics.DefaultVATRate,
		WHTRate: metrics.DefaultWHTRate,
		VATBase: models.Components(),
		DueDay:  5,
	}
}

func (s Settings) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Settings) today() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// crud implements the shared record lifecycle over a repository.
type crud[T any] struct {
	name string
	repo repository.Repository[T]
	log  *logger.Logger
}

func idOf(record interface{}) string {
	if r, ok := record.(interface{ GetID() string }); ok {
		return r.GetID()
	}
	return ""
}

// create persists record and returns the stored copy.
func (c crud[T]) create(ctx context.Context, record *T) (*T, error) {
	if err := c.repo.Create(ctx, record); err != nil {
		c.log.Error("Failed to create "+c.name, err, nil)
		return nil, err
	}

	id := idOf(record)
	c.log.Info("Created "+c.name, map[string]interface{}{"id": id})
	return c.get(ctx, id)
}

func (c crud[T]) get(ctx context.Context, id string) (*T, error) {
	record, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return record, nil
}

// list fetches records then narrows them with search. Results of a cancelled request are discarded.
func (c crud[T]) list(ctx context.Context, filter repository.Filter, search func([]T) []T) ([]T, error) {
	records, err := c.repo.List(ctx, filter)
	if err != nil {
		c.log.Error("Failed to list "+c.name+" records", err, nil)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if search != nil {
		records = search(records)
	}
	return records, nil
}

// update loads the record, applies mutate, writes it back and returns the stored copy.
func (c crud[T]) update(ctx context.Context, id string, mutate func(*T) error) (*T, error) {
	record, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(record); err != nil {
		return nil, err
	}
	if err := c.repo.Update(ctx, record); err != nil {
		c.log.Error("Failed to update "+c.name, err, map[string]interface{}{"id": id})
		return nil, err
	}

	c.log.Info("Updated "+c.name, map[string]interface{}{"id": id})
	return c.get(ctx, id)
}

func (c crud[T]) delete(ctx context.Context, id string) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Error("Failed to delete "+c.name, err, map[string]interface{}{"id": id})
		}
		return err
	}
	c.log.Info("Deleted "+c.name, map[string]interface{}{"id": id})
	return nil
}

// parseOptionalDate parses a *string ISO date.
func parseOptionalDate(s *string) (*models.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := models.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// formatOptionalDate is the inverse of parseOptionalDate.
func formatOptionalDate(d *models.Date) *string {
	if d == nil {
		return nil
	}
	s := time.Time(*d).Format(models.DateLayout)
	return &s
}

func strPtr(s string) *string { return &s }
