// Package validation checks drafts and patches with go-playground/validator and
// renders field errors as client-facing messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is wrapped by every *Error.
var ErrInvalid = errors.New("validation failed")

// Error carries per-field messages keyed by JSON field name.
type Error struct {
	Fields map[string]string
}

// Error implements error.
func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrInvalid.
func (e *Error) Unwrap() error {
	return ErrInvalid
}

// Add records a message for field and returns e.
func (e *Error) Add(field, message string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

// Err returns e as an error, or nil when no field failed.
func (e *Error) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Field returns an error for a single field.
func Field(field, message string) *Error {
	return (&Error{}).Add(field, message)
}

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator. Field names in errors are JSON names.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates v and returns an *Error describing every failed field.
func Struct(v interface{}) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return FromValidator(fieldErrs)
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}

// FromValidator converts validator errors into an *Error.
func FromValidator(fieldErrs validator.ValidationErrors) *Error {
	out := &Error{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fe.Field()] = Describe(fe)
	}
	return out
}

// Describe converts a validator.FieldError to a human-readable message.
func Describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Value is too short or small (minimum: " + fe.Param() + ")"
	case "max":
		return "Value is too long or large (maximum: " + fe.Param() + ")"
	case "required_without":
		return "Required when " + fe.Param() + " is empty"
	case "len":
		return "Must have length of " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "lt":
		return "Must be less than " + fe.Param()
	case "lte":
		return "Must be less than or equal to " + fe.Param()
	case "ltefield":
		return "Must not exceed " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "datetime":
		return "Must be a date in the format " + fe.Param()
	case "url":
		return "Must be a valid URL"
	case "uuid":
		return "Must be a valid UUID"
	case "e164":
		return "Must be a phone number in international format"
	default:
		return "Validation failed for tag: " + fe.Tag()
	}
}
