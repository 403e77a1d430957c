package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/auth"
	apierrors "github.com/Lelcaren/mwangaza-rentals/internal/errors"
	"github.com/Lelcaren/mwangaza-rentals/internal/format"
	"github.com/Lelcaren/mwangaza-rentals/internal/middleware"
	"github.com/Lelcaren/mwangaza-rentals/internal/services"
	"github.com/gin-gonic/gin"
)

// NotificationHandler serves /notifications, bulk sends and the template catalogue.
type NotificationHandler struct {
	notificationRecords
	notifications services.NotificationService
	profiles      services.ProfileService
	now           func() time.Time
}

// NewNotificationHandler creates a new NotificationHandler instance. A nil now uses time.Now.
// Sends are attributed to the caller when profiles knows them.
func NewNotificationHandler(notifications services.NotificationService, profiles services.ProfileService, now func() time.Time) *NotificationHandler {
	if now == nil {
		now = time.Now
	}
	return &NotificationHandler{
		notificationRecords: notificationRecords{name: "Notification", service: notifications},
		notifications:       notifications,
		profiles:            profiles,
		now:                 now,
	}
}

// Send handles POST /api/v1/notifications/send.
// The response is 200 even when some recipients failed; each result carries its own outcome.
func (h *NotificationHandler) Send(c *gin.Context) {
	var req services.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}
	req.UserID = h.sender(c)

	report, err := h.notifications.Send(c.Request.Context(), req)
	if err != nil {
		apierrors.FromService(c, err, "Notification")
		return
	}

	c.JSON(http.StatusOK, ItemResponse[*services.SendReport]{Data: report})
}

// sender returns the caller's profile id, or nil for anonymous callers and users without a profile.
func (h *NotificationHandler) sender(c *gin.Context) *string {
	u := auth.CurrentUser(c.Request.Context())
	if u == nil || h.profiles == nil {
		return nil
	}
	profile, err := h.profiles.Get(c.Request.Context(), u.ID)
	if err != nil {
		if log := middleware.GetLogger(c); log != nil && !errors.Is(err, services.ErrNotFound) {
			log.Warn("Profile lookup failed; send is not attributed", map[string]interface{}{"user_id": u.ID, "error": err.Error()})
		}
		return nil
	}
	return &profile.ID
}

// Reminders handles POST /api/v1/notifications/reminders.
// It sends the overdue template for every overdue bill as of ?asOf (default today).
func (h *NotificationHandler) Reminders(c *gin.Context) {
	asOf, ok := dateParam(c, "asOf", h.now)
	if !ok {
		return
	}

	report, err := h.notifications.SendOverdueReminders(c.Request.Context(), asOf)
	if err != nil {
		apierrors.FromService(c, err, "Notification")
		return
	}

	c.JSON(http.StatusOK, ItemResponse[*services.SendReport]{Data: report})
}

// Templates handles GET /api/v1/templates.
func (h *NotificationHandler) Templates(c *gin.Context) {
	templates := format.Templates()
	c.JSON(http.StatusOK, ListResponse[format.Template]{Data: templates, Count: len(templates)})
}
