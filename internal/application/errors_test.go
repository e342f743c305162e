package application

import (
	"errors"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"slot": "invalid", "name": "required"}}
	if got := withFields.Error(); got != "validation failed: name: required; slot: invalid" {
		t.Fatalf("expected sorted field messages, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).HasErrors(); err {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	if err := (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors(); !err {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected add to populate map, got %q", got)
	}

	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}}
	base.merge(other)
	if got := base.FieldErrors["second"]; got != "another" {
		t.Fatalf("expected merge to copy field, got %q", got)
	}

	base.merge(nil)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected merge with nil to leave fields unchanged")
	}
}

func TestConflictError(t *testing.T) {
	t.Parallel()

	err := error(&ConflictError{Slot: "10:30-11:30 MON", ConflictsWith: "10:00-11:00 MON", OwnerName: "Alice"})
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected conflict to match ErrOverlap")
	}
	if got := err.Error(); got != "appointment 10:30-11:30 MON overlaps with 10:00-11:00 MON held by Alice" {
		t.Fatalf("unexpected message %q", got)
	}

	own := &ConflictError{Slot: "10:30-11:30 MON", ConflictsWith: "10:00-11:00 MON"}
	if got := own.Error(); got != "appointment 10:30-11:30 MON overlaps with 10:00-11:00 MON" {
		t.Fatalf("unexpected message %q", got)
	}

	if got := (&ConflictError{}).Error(); got != "appointments overlap" {
		t.Fatalf("unexpected message %q", got)
	}
}
