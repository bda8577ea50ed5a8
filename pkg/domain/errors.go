package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrNotFound is returned when a requested record does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// IllegalStateError is returned when an operation conflicts with a domain rule.
type IllegalStateError struct {
	Entity EntityType
	ID     string
	Reason string
}

func (e IllegalStateError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Reason)
}

// FieldViolation names a field and the constraint it failed.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v FieldViolation) String() string {
	return v.Field + ": " + v.Message
}

// ValidationError is returned when field constraints are violated before persistence.
type ValidationError struct {
	Entity     EntityType
	Violations []FieldViolation
}

func (e ValidationError) Error() string {
	var combined *multierror.Error
	for _, v := range e.Violations {
		combined = multierror.Append(combined, errors.New(v.String()))
	}
	if combined == nil {
		return fmt.Sprintf("invalid %s", e.Entity)
	}
	combined.ErrorFormat = func(errs []error) string {
		parts := make([]string, len(errs))
		for i, err := range errs {
			parts[i] = err.Error()
		}
		return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
	}
	return combined.Error()
}

// HasField reports whether any violation targets field.
func (e ValidationError) HasField(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

// IsNotFound reports whether err wraps an ErrNotFound.
func IsNotFound(err error) bool {
	var target ErrNotFound
	return errors.As(err, &target)
}

// IsIllegalState reports whether err wraps an IllegalStateError.
func IsIllegalState(err error) bool {
	var target IllegalStateError
	return errors.As(err, &target)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

// IsRuleViolation reports whether err wraps a RuleViolationError.
func IsRuleViolation(err error) bool {
	var target RuleViolationError
	return errors.As(err, &target)
}
