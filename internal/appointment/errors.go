package appointment

import (
	"errors"
	"fmt"
)

var (
	// ErrNullInput is returned when appointment text is absent.
	ErrNullInput = errors.New("appointment: input is absent")
	// ErrInvalidFormat is returned when appointment text fails validation.
	ErrInvalidFormat = errors.New("appointment: invalid format")
	// ErrDuplicate is returned when an equal appointment is already present.
	ErrDuplicate = errors.New("appointment: duplicate appointment")
	// ErrOverlap is returned when an appointment would overlap an existing one.
	ErrOverlap = errors.New("appointment: overlapping appointment")
	// ErrNotFound is returned when the referenced appointment is not present.
	ErrNotFound = errors.New("appointment: not found")
)

// FormatError reports text that is not a valid appointment. Message is always
// MessageConstraints so callers can show it to users verbatim.
type FormatError struct {
	Input   string
	Message string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("appointment: invalid appointment %q", e.Input)
}

// Unwrap allows errors.Is(err, ErrInvalidFormat).
func (e *FormatError) Unwrap() error {
	return ErrInvalidFormat
}

// OverlapError names the existing appointment a candidate conflicts with.
// Existing is the zero Appointment when the conflict is inside a bulk set.
type OverlapError struct {
	Candidate Appointment
	Existing  Appointment
}

// Error implements the error interface.
func (e *OverlapError) Error() string {
	if e == nil {
		return ""
	}
	if e.Existing.IsZero() {
		return "appointment: appointments contain overlaps"
	}
	return fmt.Sprintf("appointment: %s overlaps with %s", e.Candidate, e.Existing)
}

// Unwrap allows errors.Is(err, ErrOverlap).
func (e *OverlapError) Unwrap() error {
	return ErrOverlap
}
