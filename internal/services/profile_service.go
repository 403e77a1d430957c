package services

import (
	"context"

	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/repository"
	"github.com/Lelcaren/mwangaza-rentals/internal/search"
	"github.com/Lelcaren/mwangaza-rentals/internal/validation"
)

// ProfileDraft is the input for creating a profile. ID is the identity provider's user id.
type ProfileDraft struct {
	ID       string      `json:"id,omitempty" validate:"omitempty,max=36"`
	FullName *string     `json:"fullName,omitempty" validate:"omitempty,max=255"`
	Email    *string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string     `json:"phone,omitempty" validate:"omitempty,max=50"`
	Role     models.Role `json:"role" validate:"required,oneof=owner tenant admin"`
}

// ProfilePatch changes only the supplied fields of a profile.
type ProfilePatch struct {
	FullName *string      `json:"fullName"`
	Email    *string      `json:"email"`
	Phone    *string      `json:"phone"`
	Role     *models.Role `json:"role"`
}

// ProfileFilter narrows a profile listing.
type ProfileFilter struct {
	Query string      `form:"q"`
	Role  models.Role `form:"role"`
}

// ProfileService manages profiles.
type ProfileService interface {
	Create(ctx context.Context, draft ProfileDraft) (*models.Profile, error)
	List(ctx context.Context, filter ProfileFilter) ([]models.Profile, error)
	Get(ctx context.Context, id string) (*models.Profile, error)
	Update(ctx context.Context, id string, patch ProfilePatch) (*models.Profile, error)
	Delete(ctx context.Context, id string) error
}

type profileService struct {
	crud crud[models.Profile]
}

// NewProfileService creates a new instance of ProfileService.
func NewProfileService(repo repository.ProfileRepository, log *logger.Logger) ProfileService {
	return &profileService{
		crud: crud[models.Profile]{name: "profile", repo: repo, log: log},
	}
}

func (s *profileService) Create(ctx context.Context, draft ProfileDraft) (*models.Profile, error) {
	if err := validation.Struct(draft); err != nil {
		return nil, err
	}
	rec := &models.Profile{
		FullName: draft.FullName,
		Email:    draft.Email,
		Phone:    draft.Phone,
		Role:     draft.Role,
	}
	rec.ID = draft.ID
	return s.crud.create(ctx, rec)
}

func (s *profileService) List(ctx context.Context, filter ProfileFilter) ([]models.Profile, error) {
	f := repository.Filter{}
	if filter.Role != "" {
		f = f.Eq("role", filter.Role)
	}
	return s.crud.list(ctx, f, func(ps []models.Profile) []models.Profile {
		return search.Profiles(ps, filter.Query)
	})
}

func (s *profileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	return s.crud.get(ctx, id)
}

func (s *profileService) Update(ctx context.Context, id string, patch ProfilePatch) (*models.Profile, error) {
	return s.crud.update(ctx, id, func(rec *models.Profile) error {
		if patch.FullName != nil {
			rec.FullName = patch.FullName
		}
		if patch.Email != nil {
			rec.Email = patch.Email
		}
		if patch.Phone != nil {
			rec.Phone = patch.Phone
		}
		if patch.Role != nil {
			rec.Role = *patch.Role
		}
		return validation.Struct(ProfileDraft{
			FullName: rec.FullName,
			Email:    rec.Email,
			Phone:    rec.Phone,
			Role:     rec.Role,
		})
	})
}

func (s *profileService) Delete(ctx context.Context, id string) error {
	return s.crud.delete(ctx, id)
}
