package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"storefront-backend/pkg/errors"
)

var (
	personNamePattern = regexp.MustCompile(`^[a-zA-Z]{3,}(?: [a-zA-Z]+){0,2}$`)
	passwordPattern   = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&*]{8,20}$`)
	passwordDigit     = regexp.MustCompile(`[0-9]`)
	passwordLetter    = regexp.MustCompile(`[a-zA-Z]`)
	passwordSymbol    = regexp.MustCompile(`[!@#$%^&*]`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	return v
}

// IsStrongPassword reports whether s has 8-20 characters with at least one
// letter, one digit and one of !@#$%^&*.
func IsStrongPassword(s string) bool {
	return passwordPattern.MatchString(s) &&
		passwordDigit.MatchString(s) &&
		passwordLetter.MatchString(s) &&
		passwordSymbol.MatchString(s)
}

// ValidateStruct validates a struct based on its validation tags
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatFieldError(e))
		}
		return errors.NewValidationError(strings.Join(messages, "; "))
	}
	return errors.NewValidationError(err.Error())
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gte", "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, strings.ToLower(e.Param()))
	case "personname":
		return fmt.Sprintf("%s must contain letters only, at least 3", field)
	case "strongpassword":
		return fmt.Sprintf("%s must be 8-20 characters with a letter, a digit and a symbol", field)
	case "dive":
		return fmt.Sprintf("%s contains invalid values", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
