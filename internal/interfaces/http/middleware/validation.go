// Package middleware wires cross-cutting HTTP concerns into the gin engine.
package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
)

// SetupValidator configures the binding validator with custom tags. Field
// names in validation errors follow the JSON tag so messages match the wire
// shape clients actually send.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// msisdn validates a South African mobile number in +27XXXXXXXXX form
	_ = v.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
		return valueobject.IsValidMSISDN(fl.Field().String())
	})
}

// FormatValidationError renders a binding error as a single human-readable
// message. Non-validator errors (malformed JSON, type mismatches) pass
// through unchanged.
func FormatValidationError(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	parts := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		parts = append(parts, e.Field()+": "+validationMessage(e))
	}
	return strings.Join(parts, "; ")
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "msisdn":
		return "must be +27 followed by 9 digits"
	case "uuid":
		return "invalid UUID format"
	case "oneof":
		return "must be one of: " + e.Param()
	case "datetime":
		return "must be formatted " + e.Param()
	case "email":
		return "invalid email format"
	default:
		return "invalid value"
	}
}
