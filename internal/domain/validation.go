package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every entity; validator caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the struct-tag rules on v and converts the first
// violation into a *ValidationError keyed by the JSON-ish field name.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return NewValidationError("", err.Error(), ErrValidation)
	}

	fe := fieldErrs[0]
	return NewValidationError(toSnakeCase(fe.Field()), describeTag(fe), ErrValidation)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
