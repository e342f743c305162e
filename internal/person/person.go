// Package person models a tutoring contact and the weekly slots booked with them.
package person

import (
	"errors"
	"slices"
	"strings"

	"github.com/example/tutorrec/internal/appointment"
)

// ErrNameRequired is returned when a person is built without a name.
var ErrNameRequired = errors.New("person: name is required")

// Fields captures the caller supplied attributes of a person.
type Fields struct {
	ID           string
	Name         string
	Phone        string
	Email        string
	Address      string
	Note         string
	Tags         []string
	Appointments []appointment.Appointment
}

// Person is a contact in the address book. Values are immutable; use the With
// helpers to derive edited copies.
type Person struct {
	id           string
	name         string
	phone        string
	email        string
	address      string
	note         string
	tags         []string
	appointments *appointment.DisjointList
}

// New validates fields and builds a Person. Overlapping appointments are
// rejected with an *appointment.OverlapError.
func New(fields Fields) (Person, error) {
	name := strings.Join(strings.Fields(fields.Name), " ")
	if name == "" {
		return Person{}, ErrNameRequired
	}

	appointments, err := appointment.NewDisjointList(fields.Appointments...)
	if err != nil {
		return Person{}, err
	}

	return Person{
		id:           fields.ID,
		name:         name,
		phone:        strings.TrimSpace(fields.Phone),
		email:        strings.TrimSpace(fields.Email),
		address:      strings.TrimSpace(fields.Address),
		note:         fields.Note,
		tags:         normalizeTags(fields.Tags),
		appointments: appointments,
	}, nil
}

func (p Person) ID() string      { return p.id }
func (p Person) Name() string    { return p.name }
func (p Person) Phone() string   { return p.phone }
func (p Person) Email() string   { return p.email }
func (p Person) Address() string { return p.address }
func (p Person) Note() string    { return p.note }

// Tags returns a sorted copy of the tags.
func (p Person) Tags() []string {
	return slices.Clone(p.tags)
}

// Appointments returns the person's slots ordered by day and start time.
func (p Person) Appointments() []appointment.Appointment {
	return p.appointments.Items()
}

// HasAppointment reports whether the person holds a.
func (p Person) HasAppointment(a appointment.Appointment) bool {
	return p.appointments.Contains(a)
}

// Fields returns the attributes of p, suitable for building an edited copy.
func (p Person) Fields() Fields {
	return Fields{
		ID:           p.id,
		Name:         p.name,
		Phone:        p.phone,
		Email:        p.email,
		Address:      p.address,
		Note:         p.note,
		Tags:         p.Tags(),
		Appointments: p.Appointments(),
	}
}

// WithAppointments returns a copy of p holding items instead of its current slots.
func (p Person) WithAppointments(items []appointment.Appointment) (Person, error) {
	fields := p.Fields()
	fields.Appointments = items
	return New(fields)
}

// IsSamePerson reports whether both persons share an identity, which is their
// name compared without regard to case or spacing.
func (p Person) IsSamePerson(other Person) bool {
	return identityKey(p.name) == identityKey(other.name)
}

// IsNearDuplicate reports whether the names are the same identity or one
// contains the other.
func (p Person) IsNearDuplicate(other Person) bool {
	a, b := identityKey(p.name), identityKey(other.name)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// Equal reports whether every attribute matches.
func (p Person) Equal(other Person) bool {
	return p.id == other.id &&
		p.name == other.name &&
		p.phone == other.phone &&
		p.email == other.email &&
		p.address == other.address &&
		p.note == other.note &&
		slices.Equal(p.tags, other.tags) &&
		p.appointments.Equal(other.appointments)
}

func identityKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}
