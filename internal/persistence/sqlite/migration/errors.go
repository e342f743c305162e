package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFileName is returned for files not named {version}_{description}.sql.
	ErrInvalidFileName = errors.New("migration: invalid file name")
	// ErrDuplicateVersion is returned when two files share a version.
	ErrDuplicateVersion = errors.New("migration: duplicate version")
	// ErrEmptyMigration is returned when a file holds no statements.
	ErrEmptyMigration = errors.New("migration: no statements")
	// ErrFailed wraps a statement that the database rejected.
	ErrFailed = errors.New("migration: execution failed")
)

// Error adds the migration and step that failed to an underlying error.
type Error struct {
	Version   int
	FileName  string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Version != 0 {
		return fmt.Sprintf("migration %03d (%s): %s: %v", e.Version, e.FileName, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration (%s): %s: %v", e.FileName, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
