package services

import (
	"context"

	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/repository"
	"github.com/Lelcaren/mwangaza-rentals/internal/search"
	"github.com/Lelcaren/mwangaza-rentals/internal/validation"
)

// PropertyDraft is the input for creating a property.
type PropertyDraft struct {
	OwnerID       *string               `json:"ownerId,omitempty" validate:"omitempty,max=36"`
	Name          string                `json:"name" validate:"required,max=255"`
	Type          models.PropertyType   `json:"type" validate:"required,oneof=residential commercial"`
	Address       string                `json:"address" validate:"required"`
	Description   *string               `json:"description,omitempty"`
	Amenities     []string              `json:"amenities,omitempty"`
	TotalUnits    int                   `json:"totalUnits" validate:"gte=0"`
	OccupiedUnits int                   `json:"occupiedUnits" validate:"gte=0,ltefield=TotalUnits"`
	MonthlyRent   int64                 `json:"monthlyRent" validate:"gte=0"`
	DepositAmount *int64                `json:"depositAmount,omitempty" validate:"omitempty,gte=0"`
	Status        models.PropertyStatus `json:"status,omitempty" validate:"omitempty,oneof=active maintenance inactive"`
}

// PropertyPatch changes only the supplied fields of a property.
type PropertyPatch struct {
	OwnerID       *string                `json:"ownerId"`
	Name          *string                `json:"name"`
	Type          *models.PropertyType   `json:"type"`
	Address       *string                `json:"address"`
	Description   *string                `json:"description"`
	Amenities     *[]string              `json:"amenities"`
	TotalUnits    *int                   `json:"totalUnits"`
	OccupiedUnits *int                   `json:"occupiedUnits"`
	MonthlyRent   *int64                 `json:"monthlyRent"`
	DepositAmount *int64                 `json:"depositAmount"`
	Status        *models.PropertyStatus `json:"status"`
}

// PropertyFilter narrows a property listing.
type PropertyFilter struct {
	Query  string                `form:"q"`
	Type   models.PropertyType   `form:"type"`
	Status models.PropertyStatus `form:"status"`
}

// PropertyService manages properties.
type PropertyService interface {
	Create(ctx context.Context, draft PropertyDraft) (*models.Property, error)
	List(ctx context.Context, filter PropertyFilter) ([]models.Property, error)
	Get(ctx context.Context, id string) (*models.Property, error)
	Update(ctx context.Context, id string, patch PropertyPatch) (*models.Property, error)
	// Delete fails with ErrReferential while tenants or bills still reference the property.
	Delete(ctx context.Context, id string) error
}

type propertyService struct {
	crud crud[models.Property]
}

// NewPropertyService creates a new instance of PropertyService.
func NewPropertyService(repo repository.PropertyRepository, log *logger.Logger) PropertyService {
	return &propertyService{
		crud: crud[models.Property]{name: "property", repo: repo, log: log},
	}
}

func (d PropertyDraft) record() *models.Property {
	status := d.Status
	if status == "" {
		status = models.PropertyActive
	}
	return &models.Property{
		OwnerID:       d.OwnerID,
		Name:          d.Name,
		Type:          d.Type,
		Address:       d.Address,
		Description:   d.Description,
		Amenities:     models.StringList(d.Amenities),
		TotalUnits:    d.TotalUnits,
		OccupiedUnits: d.OccupiedUnits,
		MonthlyRent:   d.MonthlyRent,
		DepositAmount: d.DepositAmount,
		Status:        status,
	}
}

func propertyDraftOf(p *models.Property) PropertyDraft {
	return PropertyDraft{
		OwnerID:       p.OwnerID,
		Name:          p.Name,
		Type:          p.Type,
		Address:       p.Address,
		Description:   p.Description,
		Amenities:     p.Amenities,
		TotalUnits:    p.TotalUnits,
		OccupiedUnits: p.OccupiedUnits,
		MonthlyRent:   p.MonthlyRent,
		DepositAmount: p.DepositAmount,
		Status:        p.Status,
	}
}

func (p PropertyPatch) apply(rec *models.Property) {
	if p.OwnerID != nil {
		rec.OwnerID = p.OwnerID
	}
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Type != nil {
		rec.Type = *p.Type
	}
	if p.Address != nil {
		rec.Address = *p.Address
	}
	if p.Description != nil {
		rec.Description = p.Description
	}
	if p.Amenities != nil {
		rec.Amenities = models.StringList(*p.Amenities)
	}
	if p.TotalUnits != nil {
		rec.TotalUnits = *p.TotalUnits
	}
	if p.OccupiedUnits != nil {
		rec.OccupiedUnits = *p.OccupiedUnits
	}
	if p.MonthlyRent != nil {
		rec.MonthlyRent = *p.MonthlyRent
	}
	if p.DepositAmount != nil {
		rec.DepositAmount = p.DepositAmount
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
}

func (s *propertyService) Create(ctx context.Context, draft PropertyDraft) (*models.Property, error) {
	if err := validation.Struct(draft); err != nil {
		return nil, err
	}
	return s.crud.create(ctx, draft.record())
}

func (s *propertyService) List(ctx context.Context, filter PropertyFilter) ([]models.Property, error) {
	f := repository.Filter{}
	if filter.Type != "" {
		f = f.Eq("type", filter.Type)
	}
	if filter.Status != "" {
		f = f.Eq("status", filter.Status)
	}
	return s.crud.list(ctx, f, func(ps []models.Property) []models.Property {
		return search.Properties(ps, filter.Query)
	})
}

func (s *propertyService) Get(ctx context.Context, id string) (*models.Property, error) {
	return s.crud.get(ctx, id)
}

func (s *propertyService) Update(ctx context.Context, id string, patch PropertyPatch) (*models.Property, error) {
	return s.crud.update(ctx, id, func(rec *models.Property) error {
		patch.apply(rec)
		return validation.Struct(propertyDraftOf(rec))
	})
}

func (s *propertyService) Delete(ctx context.Context, id string) error {
	return s.crud.delete(ctx, id)
}
