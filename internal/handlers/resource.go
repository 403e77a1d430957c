package handlers

import (
	"context"
	"net/http"
	"time"

	apierrors "github.com/Lelcaren/mwangaza-rentals/internal/errors"
	"github.com/Lelcaren/mwangaza-rentals/internal/middleware"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/gin-gonic/gin"
)

// ItemResponse wraps a single record.
type ItemResponse[T any] struct {
	Data T `json:"data"`
}

// ListResponse wraps a record listing.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

// recordService is the lifecycle every record service exposes.
// T is the record, D the create draft, P the patch and F the list filter.
type recordService[T, D, P, F any] interface {
	Create(ctx context.Context, draft D) (*T, error)
	List(ctx context.Context, filter F) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, id string, patch P) (*T, error)
	Delete(ctx context.Context, id string) error
}

// Resource serves the list/create/get/update/delete routes of one record kind.
type Resource[T, D, P, F any] struct {
	name    string
	service recordService[T, D, P, F]
}

// register mounts the five lifecycle routes on g.
func (r Resource[T, D, P, F]) register(g *gin.RouterGroup) {
	g.GET("", r.List)
	g.POST("", r.Create)
	g.GET("/:id", r.Get)
	g.PATCH("/:id", r.Update)
	g.DELETE("/:id", r.Delete)
}

// List handles GET /<records>. Filters and ?q= search come from the query string.
func (r Resource[T, D, P, F]) List(c *gin.Context) {
	var filter F
	if err := c.ShouldBindQuery(&filter); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	records, err := r.service.List(c.Request.Context(), filter)
	if err != nil {
		apierrors.FromService(c, err, r.name)
		return
	}
	if records == nil {
		records = []T{}
	}

	c.JSON(http.StatusOK, ListResponse[T]{Data: records, Count: len(records)})
}

// Create handles POST /<records>.
func (r Resource[T, D, P, F]) Create(c *gin.Context) {
	var draft D
	if err := c.ShouldBindJSON(&draft); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	record, err := r.service.Create(c.Request.Context(), draft)
	if err != nil {
		apierrors.FromService(c, err, r.name)
		return
	}

	c.JSON(http.StatusCreated, ItemResponse[*T]{Data: record})
}

// Get handles GET /<records>/:id.
func (r Resource[T, D, P, F]) Get(c *gin.Context) {
	record, err := r.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierrors.FromService(c, err, r.name)
		return
	}

	c.JSON(http.StatusOK, ItemResponse[*T]{Data: record})
}

// Update handles PATCH /<records>/:id. Only the fields present in the body change.
func (r Resource[T, D, P, F]) Update(c *gin.Context) {
	var patch P
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	id := c.Param("id")
	record, err := r.service.Update(c.Request.Context(), id, patch)
	if err != nil {
		apierrors.FromService(c, err, r.name)
		return
	}

	c.JSON(http.StatusOK, ItemResponse[*T]{Data: record})
}

// Delete handles DELETE /<records>/:id.
func (r Resource[T, D, P, F]) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := r.service.Delete(c.Request.Context(), id); err != nil {
		apierrors.FromService(c, err, r.name)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Record deleted", map[string]interface{}{"resource": r.name, "id": id})
	}
	c.Status(http.StatusNoContent)
}

// dateParam reads an optional YYYY-MM-DD query parameter, falling back to now.
// It writes a 400 and returns false when the value is malformed.
func dateParam(c *gin.Context, key string, now func() time.Time) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return now().UTC(), true
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		apierrors.ValidationError(c, map[string]string{key: "Must be a date in the format " + models.DateLayout})
		return time.Time{}, false
	}
	return t, true
}
