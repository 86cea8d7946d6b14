package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// IsHexColor reports whether s is a "#RRGGBB" color.
func IsHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ValidatePatch checks an attribute patch before it reaches the store.
// Crop and season are free-form beyond being non-empty since vocabularies
// are extensible.
func ValidatePatch(p AttributePatch) error {
	var ve ValidationError

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
		} else if len([]rune(name)) > 200 {
			ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "must be 200 characters or fewer"})
		}
	}
	if p.Crop != nil && strings.TrimSpace(*p.Crop) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "crop", Message: "is required"})
	}
	if p.Crop != nil && *p.Crop == AllCrops {
		ve.Errors = append(ve.Errors, FieldError{Field: "crop", Message: fmt.Sprintf("%q is reserved", AllCrops)})
	}
	if p.Season != nil && strings.TrimSpace(*p.Season) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "season", Message: "is required"})
	}
	if p.Color != nil && !IsHexColor(*p.Color) {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "color",
			Message: fmt.Sprintf("must be #RRGGBB, got %q", *p.Color),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
