package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when the requested person or appointment does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a person or appointment is already recorded.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrOverlap is returned when a slot clashes with one already booked.
	ErrOverlap = errors.New("application: appointment overlaps")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v.FieldErrors[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError reports the booked slot a requested slot clashes with.
type ConflictError struct {
	Slot          string
	ConflictsWith string
	// OwnerName is empty when the clash is within one person's own slots.
	OwnerID   string
	OwnerName string
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	if c.ConflictsWith == "" {
		return "appointments overlap"
	}
	msg := fmt.Sprintf("appointment %s overlaps with %s", c.Slot, c.ConflictsWith)
	if c.OwnerName != "" {
		msg += " held by " + c.OwnerName
	}
	return msg
}

// Unwrap allows errors.Is(err, ErrOverlap).
func (c *ConflictError) Unwrap() error {
	return ErrOverlap
}
