package testfixtures

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/tutorrec/internal/appointment"
	"github.com/example/tutorrec/internal/person"
)

var personCounter uint64

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It falls on a Tuesday.
func ReferenceTime() time.Time {
	return referenceTime
}

// PersonFixture is a deterministic contact that tests can turn into a
// person.Person.
type PersonFixture struct {
	ID           string
	Name         string
	Phone        string
	Email        string
	Address      string
	Note         string
	Tags         []string
	Appointments []string
}

// PersonOption configures a generated person fixture.
type PersonOption func(*PersonFixture)

// NewPersonFixture returns a person fixture with a unique ID and name and no
// appointments.
func NewPersonFixture(opts ...PersonOption) PersonFixture {
	idx := atomic.AddUint64(&personCounter, 1)
	fixture := PersonFixture{
		ID:      fmt.Sprintf("person-%03d", idx),
		Name:    fmt.Sprintf("Student %03d", idx),
		Phone:   fmt.Sprintf("9%07d", idx),
		Email:   fmt.Sprintf("student%03d@example.com", idx),
		Address: "123, Jurong West Ave 6, #08-111",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithPersonID overrides the generated ID.
func WithPersonID(id string) PersonOption {
	return func(f *PersonFixture) { f.ID = id }
}

// WithName overrides the generated name.
func WithName(name string) PersonOption {
	return func(f *PersonFixture) { f.Name = name }
}

// WithNote sets the note.
func WithNote(note string) PersonOption {
	return func(f *PersonFixture) { f.Note = note }
}

// WithTags sets the tags.
func WithTags(tags ...string) PersonOption {
	return func(f *PersonFixture) { f.Tags = append([]string(nil), tags...) }
}

// WithAppointments sets the appointment slots, given in text form.
func WithAppointments(slots ...string) PersonOption {
	return func(f *PersonFixture) { f.Appointments = append([]string(nil), slots...) }
}

// Fields converts the fixture into person fields, failing the test when a
// slot does not parse.
func (f PersonFixture) Fields(tb testing.TB) person.Fields {
	tb.Helper()
	slots := make([]appointment.Appointment, 0, len(f.Appointments))
	for _, text := range f.Appointments {
		a, err := appointment.Parse(text)
		if err != nil {
			tb.Fatalf("fixture appointment %q: %v", text, err)
		}
		slots = append(slots, a)
	}
	return person.Fields{
		ID:           f.ID,
		Name:         f.Name,
		Phone:        f.Phone,
		Email:        f.Email,
		Address:      f.Address,
		Note:         f.Note,
		Tags:         f.Tags,
		Appointments: slots,
	}
}

// Person builds the fixture, failing the test when it is invalid.
func (f PersonFixture) Person(tb testing.TB) person.Person {
	tb.Helper()
	p, err := person.New(f.Fields(tb))
	if err != nil {
		tb.Fatalf("fixture person %q: %v", f.Name, err)
	}
	return p
}

// NewPerson is shorthand for NewPersonFixture(opts...).Person(tb).
func NewPerson(tb testing.TB, opts ...PersonOption) person.Person {
	tb.Helper()
	return NewPersonFixture(opts...).Person(tb)
}

// Slots parses each text, failing the test on invalid input.
func Slots(tb testing.TB, texts ...string) []appointment.Appointment {
	tb.Helper()
	out := make([]appointment.Appointment, 0, len(texts))
	for _, text := range texts {
		a, err := appointment.Parse(text)
		if err != nil {
			tb.Fatalf("slot %q: %v", text, err)
		}
		out = append(out, a)
	}
	return out
}
