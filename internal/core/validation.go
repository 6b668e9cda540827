package core

// validation.go provides the building blocks entity kinds use to check a
// candidate before anything touches storage.
//
// A kind's Validate function runs a RecordChecker over the decoded candidate
// and returns every rule violation at once. The checks are pure: they never
// read the database, so a candidate is judged the same way whether it ends up
// inserted, merged into an existing record or previewed.

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ViolationCode identifies which kind of rule a candidate broke.
type ViolationCode string

const (
	ViolationRequired   ViolationCode = "required"
	ViolationOutOfRange ViolationCode = "out_of_range"
	ViolationTooLong    ViolationCode = "too_long"
	ViolationEnum       ViolationCode = "invalid_enum"
	ViolationOrder      ViolationCode = "field_order"
	ViolationMalformed  ViolationCode = "malformed"
)

// ValidationError represents a single rule violation for a field.
type ValidationError struct {
	Field   string        // Field name as it appears in the candidate
	Code    ViolationCode // Rule that failed
	Value   string        // The offending value, if any
	Message string        // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors is the typed failure returned by a kind's validator.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = ve.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether any violation carries the given code.
func (e ValidationErrors) Has(code ViolationCode) bool {
	for _, ve := range e {
		if ve.Code == code {
			return true
		}
	}
	return false
}

// malformedRecord wraps a decode failure as a validation failure.
func malformedRecord(err error) ValidationErrors {
	return ValidationErrors{{
		Code:    ViolationMalformed,
		Message: "malformed record: " + err.Error(),
	}}
}

// RecordChecker accumulates violations for one candidate.
type RecordChecker struct {
	errs ValidationErrors
}

func (c *RecordChecker) add(field string, code ViolationCode, value, msg string) {
	c.errs = append(c.errs, ValidationError{Field: field, Code: code, Value: value, Message: msg})
}

// Required fails when the value is absent or blank.
func (c *RecordChecker) Required(field string, v *string) bool {
	if v == nil || strings.TrimSpace(*v) == "" {
		c.add(field, ViolationRequired, "", "required field is empty")
		return false
	}
	return true
}

// Length checks a present value against [min, max] characters.
func (c *RecordChecker) Length(field string, v *string, min, max int) {
	if v == nil {
		return
	}
	n := utf8.RuneCountInString(*v)
	switch {
	case n < min:
		c.add(field, ViolationOutOfRange, *v, fmt.Sprintf("must be at least %d characters", min))
	case max > 0 && n > max:
		c.add(field, ViolationTooLong, "", fmt.Sprintf("must be at most %d characters", max))
	}
}

// Enum checks a present value against the allowed set.
func (c *RecordChecker) Enum(field string, v *string, allowed ...string) {
	if v == nil {
		return
	}
	for _, a := range allowed {
		if *v == a {
			return
		}
	}
	c.add(field, ViolationEnum, *v, "value must be one of: "+strings.Join(allowed, ", "))
}

// NonNegative checks a present count is >= 0.
func (c *RecordChecker) NonNegative(field string, v *int) {
	if v != nil && *v < 0 {
		c.add(field, ViolationOutOfRange, fmt.Sprint(*v), "must be greater than or equal to 0")
	}
}

// DateOrder fails when both dates are present and end falls before start.
func (c *RecordChecker) DateOrder(startField string, start *Date, endField string, end *Date) {
	if start == nil || end == nil {
		return
	}
	if end.Before(start.Time) {
		c.add(endField, ViolationOrder, end.String(),
			fmt.Sprintf("must not be earlier than %s", startField))
	}
}

// Err returns the collected violations, or nil when the candidate passed.
func (c *RecordChecker) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}
