package common

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value string, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
			break
		}
	}
	return v
}

// Check records message against fieldName when ok is false.
func (v *Validator) Check(ok bool, fieldName, message string) *Validator {
	if !ok {
		v.errors = append(v.errors, ValidationError{Field: fieldName, Message: message})
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns a combined error message
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return errors.New(v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	messages := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, ", ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value string) *ValidationError

// Required rejects blank values.
func Required(fieldName string, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: fieldName, Message: "is required"}
	}
	return nil
}

func MinLength(min int) ValidationRule {
	return func(fieldName string, value string) *ValidationError {
		if utf8.RuneCountInString(value) < min {
			return &ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("must be at least %d characters", min),
			}
		}
		return nil
	}
}

func MaxLength(max int) ValidationRule {
	return func(fieldName string, value string) *ValidationError {
		if utf8.RuneCountInString(value) > max {
			return &ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

func Email(fieldName string, value string) *ValidationError {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != strings.TrimSpace(value) {
		return &ValidationError{Field: fieldName, Message: "must be a valid email address"}
	}
	return nil
}

// OneOf accepts only values contained in allowed.
func OneOf(allowed []string) ValidationRule {
	return func(fieldName string, value string) *ValidationError {
		for _, a := range allowed {
			if value == a {
				return nil
			}
		}
		return &ValidationError{
			Field:   fieldName,
			Message: "must be one of " + strings.Join(allowed, ", "),
		}
	}
}

// ValidateAndReturnError wraps the collected messages in an AppError tagged ErrValidation.
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return NewAppError("VALIDATION_ERROR", validator.ErrorMessage(), ErrValidation)
	}
	return nil
}
