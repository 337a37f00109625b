package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ParseValidationErrors converts validator errors to field-level messages.
// It returns an empty slice for errors that are not validation failures.
func ParseValidationErrors(err error) []ValidationError {
	out := []ValidationError{}

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fe := range fieldErrors {
			out = append(out, ValidationError{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
	}

	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "uuid":
		return fe.Field() + " must be a valid UUID"
	case "max":
		return fe.Field() + " must not exceed " + fe.Param() + " characters"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// bindingFailure picks the 400 message for a failed ShouldBindJSON
func bindingFailure(err error) (string, []ValidationError) {
	details := ParseValidationErrors(err)
	if len(details) == 0 {
		return "Invalid request body", details
	}
	return "Validation failed", details
}
