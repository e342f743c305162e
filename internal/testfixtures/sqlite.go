package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/tutorrec/internal/persistence/sqlite"
)

// NewSQLiteStorage opens a migrated SQLite store in a temporary directory and
// closes it when the test ends.
func NewSQLiteStorage(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "tutorrec.db")
	storage, err := sqlite.Open(path, nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	return storage
}
