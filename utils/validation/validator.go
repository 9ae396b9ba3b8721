package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator so handlers share one
// configured instance per handler struct
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// ValidateStruct validates a struct against its field tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationErrors flattens validator errors into one message per
// field, keyed by the lowercased field name. Non-validator errors produce
// an empty map so callers can fall back to err.Error().
func FormatValidationErrors(err error) map[string]string {
	fields := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fields
	}

	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", e.Field())
		case "email":
			fields[field] = "Invalid email format"
		case "min", "gte":
			fields[field] = fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
		case "max", "lte":
			fields[field] = fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
		case "gt":
			fields[field] = fmt.Sprintf("%s must be greater than %s", e.Field(), e.Param())
		default:
			fields[field] = fmt.Sprintf("%s is invalid", e.Field())
		}
	}

	return fields
}

// SanitizeString strips null bytes and surrounding whitespace from
// free-form input before it reaches queries or external APIs
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}
