package apperrors

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FromValidation converts an ozzo-validation result into a ValidationError.
// Nil stays nil; errors that are not field errors are returned unchanged.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		issues := make(map[string]string, len(fieldErrs))
		for field, fe := range fieldErrs {
			if fe != nil {
				issues[field] = fe.Error()
			}
		}
		return Validation(issues)
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}
	return &ValidationError{Message: err.Error()}
}
