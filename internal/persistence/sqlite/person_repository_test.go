package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/example/tutorrec/internal/appointment"
	"github.com/example/tutorrec/internal/persistence"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	storage, err := Open(filepath.Join(t.TempDir(), "tutorrec.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return storage
}

func newRecord(id, name string, slots ...string) persistence.PersonRecord {
	created := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	return persistence.PersonRecord{
		ID:           id,
		Name:         name,
		Phone:        "98765432",
		Email:        name + "@example.com",
		Tags:         []string{"sec3"},
		Appointments: slots,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestStorage_MigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	storage := newTestStorage(t)
	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestStorage_PersonLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)

	record := newRecord("p-1", "alice", "14:00-15:00 WED", "09:00-10:00 MON")
	if err := storage.CreatePerson(ctx, record); err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}

	fetched, err := storage.GetPerson(ctx, "p-1")
	if err != nil {
		t.Fatalf("GetPerson: %v", err)
	}
	if fetched.Name != "alice" || !slices.Equal(fetched.Tags, []string{"sec3"}) {
		t.Fatalf("unexpected record %#v", fetched)
	}
	if !slices.Equal(fetched.Appointments, []string{"09:00-10:00 MON", "14:00-15:00 WED"}) {
		t.Fatalf("expected sorted slots, got %v", fetched.Appointments)
	}
	if !fetched.CreatedAt.Equal(record.CreatedAt) {
		t.Fatalf("expected created_at %v, got %v", record.CreatedAt, fetched.CreatedAt)
	}

	record.Note = "exam in May"
	record.Appointments = []string{"10:00-11:00 FRI"}
	record.UpdatedAt = record.UpdatedAt.Add(time.Hour)
	if err := storage.UpdatePerson(ctx, record); err != nil {
		t.Fatalf("UpdatePerson: %v", err)
	}

	fetched, err = storage.GetPerson(ctx, "p-1")
	if err != nil {
		t.Fatalf("GetPerson: %v", err)
	}
	if fetched.Note != "exam in May" || !slices.Equal(fetched.Appointments, []string{"10:00-11:00 FRI"}) {
		t.Fatalf("unexpected updated record %#v", fetched)
	}

	if err := storage.DeletePerson(ctx, "p-1"); err != nil {
		t.Fatalf("DeletePerson: %v", err)
	}
	if _, err := storage.GetPerson(ctx, "p-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := storage.DeletePerson(ctx, "p-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStorage_UpdateMissingPerson(t *testing.T) {
	t.Parallel()

	storage := newTestStorage(t)
	err := storage.UpdatePerson(context.Background(), newRecord("missing", "ghost"))
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStorage_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)

	if err := storage.CreatePerson(ctx, newRecord("p-1", "alice", "09:00-10:00 MON")); err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}
	if err := storage.CreatePerson(ctx, newRecord("p-1", "again")); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for ID, got %v", err)
	}
	if err := storage.CreatePerson(ctx, newRecord("p-2", "bob", "09:00-10:00 MON")); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for slot, got %v", err)
	}

	if _, err := storage.GetPerson(ctx, "p-2"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected failed insert to roll back, got %v", err)
	}
	if err := storage.CreatePerson(ctx, newRecord("p-3", "  ")); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for blank name, got %v", err)
	}
}

func TestStorage_ListAndReplaceAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)

	first := newRecord("p-1", "alice", "09:00-10:00 MON")
	second := newRecord("p-2", "bob", "10:00-11:00 MON")
	second.CreatedAt = second.CreatedAt.Add(time.Minute)
	for _, r := range []persistence.PersonRecord{second, first} {
		if err := storage.CreatePerson(ctx, r); err != nil {
			t.Fatalf("CreatePerson(%s): %v", r.ID, err)
		}
	}

	records, err := storage.ListPersons(ctx)
	if err != nil {
		t.Fatalf("ListPersons: %v", err)
	}
	if len(records) != 2 || records[0].ID != "p-1" || records[1].ID != "p-2" {
		t.Fatalf("expected creation order, got %#v", records)
	}
	if !slices.Equal(records[1].Appointments, []string{"10:00-11:00 MON"}) {
		t.Fatalf("unexpected slots %v", records[1].Appointments)
	}

	replacement := newRecord("p-9", "carol", "10:00-11:00 MON")
	if err := storage.ReplaceAll(ctx, []persistence.PersonRecord{replacement}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	records, err = storage.ListPersons(ctx)
	if err != nil {
		t.Fatalf("ListPersons: %v", err)
	}
	if len(records) != 1 || records[0].ID != "p-9" {
		t.Fatalf("expected only carol, got %#v", records)
	}
}

func TestStorage_CorruptSlotsSurface(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)

	if err := storage.CreatePerson(ctx, newRecord("p-1", "alice")); err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}
	if _, err := storage.db.ExecContext(ctx, `INSERT INTO appointments (person_id, slot) VALUES ('p-1', NULL)`); err != nil {
		t.Fatalf("insert null slot: %v", err)
	}
	if _, err := storage.GetPerson(ctx, "p-1"); !errors.Is(err, appointment.ErrNullInput) {
		t.Fatalf("expected ErrNullInput, got %v", err)
	}

	if _, err := storage.db.ExecContext(ctx, `DELETE FROM appointments`); err != nil {
		t.Fatalf("clear slots: %v", err)
	}
	if _, err := storage.db.ExecContext(ctx, `INSERT INTO appointments (person_id, slot) VALUES ('p-1', '25:00-26:00 MON')`); err != nil {
		t.Fatalf("insert bad slot: %v", err)
	}
	if _, err := storage.ListPersons(ctx); !errors.Is(err, appointment.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestWithForeignKeys(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"tutorrec.db", "file:tutorrec.db?_pragma=foreign_keys(1)"},
		{"file:tutorrec.db?cache=shared", "file:tutorrec.db?cache=shared&_pragma=foreign_keys(1)"},
		{"file:x.db?_pragma=foreign_keys(0)", "file:x.db?_pragma=foreign_keys(0)"},
	}
	for _, tc := range cases {
		if got := withForeignKeys(tc.in); got != tc.want {
			t.Errorf("withForeignKeys(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
