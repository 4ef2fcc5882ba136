package validator

import (
	"sync"

	"github.com/go-playground/validator/v10"
	ierr "github.com/towerbill/towerbill/internal/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateRequest validates a request struct against its validate tags and
// converts field errors into a single validation error with per-field details.
func ValidateRequest(req interface{}) error {
	err := GetValidator().Struct(req)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation)
	}

	details := make(map[string]interface{}, len(fieldErrors))
	for _, fe := range fieldErrors {
		details[fe.Field()] = fe.Tag()
	}

	return ierr.NewError("request validation failed").
		WithHint("One or more fields failed validation").
		WithReportableDetails(details).
		Mark(ierr.ErrValidation)
}
