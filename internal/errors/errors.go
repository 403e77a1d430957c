package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/Lelcaren/mwangaza-rentals/internal/auth"
	"github.com/Lelcaren/mwangaza-rentals/internal/metrics"
	"github.com/Lelcaren/mwangaza-rentals/internal/middleware"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/services"
	"github.com/Lelcaren/mwangaza-rentals/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Error code constants for standardized error responses
const (
	ErrNotFound           = "NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrDatabaseConnection = "DATABASE_CONNECTION_ERROR"
	ErrUnauthorized       = "UNAUTHORIZED"
	ErrReferential        = "REFERENTIAL_ERROR"
	ErrConflict           = "CONFLICT"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// respond logs a client error at warn level and writes the envelope.
func respond(c *gin.Context, status int, code, message string, details map[string]interface{}, logMsg string) {
	log := middleware.GetLogger(c)
	requestID := middleware.GetRequestID(c)

	if log != nil {
		fields := map[string]interface{}{
			"message":    message,
			"request_id": requestID,
			"path":       c.Request.URL.Path,
		}
		if details != nil {
			fields["details"] = details
		}
		log.Warn(logMsg, fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrNotFound, message, nil, "Resource not found")
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	respond(c, http.StatusBadRequest, ErrBadRequest, message, details, "Bad request")
}

// Unauthorized returns a 401 Unauthorized error response.
func Unauthorized(c *gin.Context, message string) {
	respond(c, http.StatusUnauthorized, ErrUnauthorized, message, nil, "Unauthorized request")
}

// Conflict returns a 409 Conflict response with the given code.
func Conflict(c *gin.Context, code, message string) {
	respond(c, http.StatusConflict, code, message, nil, "Request conflicts with stored state")
}

// InternalServerError returns a 500 Internal Server Error response.
// It logs the error with full context and sends a generic error message to the client.
// The actual error details are not exposed to the client for security reasons.
func InternalServerError(c *gin.Context, message string, err error) {
	log := middleware.GetLogger(c)
	requestID := middleware.GetRequestID(c)

	logFields := map[string]interface{}{
		"message":    message,
		"request_id": requestID,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
	}

	if log != nil {
		log.Error("Internal server error", err, logFields)
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error: ErrorDetail{
			Code:      ErrInternalServer,
			Message:   message,
			RequestID: requestID,
		},
	})
}

// ValidationError returns a 400 Bad Request error response with field-specific validation errors.
func ValidationError(c *gin.Context, fields map[string]string) {
	details := make(map[string]interface{}, len(fields))
	for field, msg := range fields {
		details[field] = msg
	}
	respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details, "Validation error")
}

// BindingError reports a request body or query that could not be bound.
// Validator failures become VALIDATION_ERROR; anything else is a BAD_REQUEST.
func BindingError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) {
		ValidationError(c, validation.FromValidator(fieldErrs).Fields)
		return
	}
	BadRequest(c, "Invalid request body", map[string]interface{}{"error": err.Error()})
}

// FromService writes the response for an error returned by the service layer.
// resource names the record kind in not-found messages.
func FromService(c *gin.Context, err error, resource string) {
	var verr *validation.Error

	switch {
	case stderrors.Is(err, context.Canceled):
		// the client went away; nothing is written
		c.Abort()
	case stderrors.As(err, &verr):
		ValidationError(c, verr.Fields)
	case stderrors.Is(err, validation.ErrInvalid):
		BadRequest(c, err.Error(), nil)
	case stderrors.Is(err, services.ErrNotFound):
		NotFound(c, resource+" not found")
	case stderrors.Is(err, services.ErrReferential):
		Conflict(c, ErrReferential, "The request references a missing record or the record is still referenced")
	case stderrors.Is(err, services.ErrInvalidTransition):
		Conflict(c, ErrConflict, err.Error())
	case stderrors.Is(err, models.ErrUnknownStatus):
		BadRequest(c, err.Error(), nil)
	case stderrors.Is(err, metrics.ErrDivisionUndefined):
		BadRequest(c, err.Error(), nil)
	case stderrors.Is(err, auth.ErrMissingToken), stderrors.Is(err, auth.ErrInvalidToken):
		Unauthorized(c, "Authentication required")
	default:
		InternalServerError(c, "An unexpected error occurred", err)
	}
}
