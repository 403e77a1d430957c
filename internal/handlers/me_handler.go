package handlers

import (
	"errors"
	"net/http"

	"github.com/Lelcaren/mwangaza-rentals/internal/auth"
	apierrors "github.com/Lelcaren/mwangaza-rentals/internal/errors"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/services"
	"github.com/gin-gonic/gin"
)

// MeHandler serves the authenticated caller's identity.
type MeHandler struct {
	profiles services.ProfileService
}

// NewMeHandler creates a new MeHandler instance.
func NewMeHandler(profiles services.ProfileService) *MeHandler {
	return &MeHandler{profiles: profiles}
}

// MeResponse pairs the token identity with the stored profile, when there is one.
type MeResponse struct {
	User    *auth.User      `json:"user"`
	Profile *models.Profile `json:"profile"`
}

// Me handles GET /api/v1/me.
func (h *MeHandler) Me(c *gin.Context) {
	user := auth.CurrentUser(c.Request.Context())
	if user == nil {
		apierrors.Unauthorized(c, "Authentication required")
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), user.ID)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		apierrors.FromService(c, err, "Profile")
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: user, Profile: profile})
}
