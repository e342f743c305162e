// Package addressbook holds the roster of persons together with the
// book-wide view of every booked slot. No two slots in the book overlap,
// whichever persons they belong to.
package addressbook

import (
	"errors"
	"slices"

	"github.com/example/tutorrec/internal/appointment"
	"github.com/example/tutorrec/internal/person"
)

var (
	// ErrDuplicatePerson is returned when a person with the same identity exists.
	ErrDuplicatePerson = errors.New("addressbook: duplicate person")
	// ErrPersonNotFound is returned when the referenced person is not in the book.
	ErrPersonNotFound = errors.New("addressbook: person not found")
)

// AddressBook is the aggregate of persons and their appointments. Every
// mutation is staged and validated before it is applied, so a failed call
// leaves the book unchanged.
//
// An AddressBook is not safe for concurrent use.
type AddressBook struct {
	persons      []person.Person
	appointments *appointment.DisjointList
}

// New returns an empty address book.
func New() *AddressBook {
	return &AddressBook{appointments: &appointment.DisjointList{}}
}

// FromPersons builds an address book holding persons.
func FromPersons(persons []person.Person) (*AddressBook, error) {
	ab := New()
	if err := ab.SetPersons(persons); err != nil {
		return nil, err
	}
	return ab, nil
}

// SetPersons replaces the roster and rebuilds the book-wide appointments from
// it. The rebuilt set is checked in full: slots of different persons may not
// overlap or coincide.
func (ab *AddressBook) SetPersons(persons []person.Person) error {
	for i := 0; i < len(persons); i++ {
		for j := i + 1; j < len(persons); j++ {
			if persons[i].IsSamePerson(persons[j]) {
				return ErrDuplicatePerson
			}
		}
	}

	all := flatten(persons)
	if err := checkDisjoint(all); err != nil {
		return err
	}

	staged := &appointment.DisjointList{}
	if err := staged.SetAppointments(all); err != nil {
		return err
	}
	staged.Sort()

	ab.persons = slices.Clone(persons)
	ab.appointments = staged
	return nil
}

// ResetData replaces the contents of ab with those of other.
func (ab *AddressBook) ResetData(other *AddressBook) error {
	return ab.SetPersons(other.Persons())
}

// HasPerson reports whether a person with the same identity is in the book.
func (ab *AddressBook) HasPerson(p person.Person) bool {
	for _, existing := range ab.persons {
		if existing.IsSamePerson(p) {
			return true
		}
	}
	return false
}

// FindNearDuplicates returns the names of persons whose names resemble p's.
func (ab *AddressBook) FindNearDuplicates(p person.Person) []string {
	var names []string
	for _, existing := range ab.persons {
		if existing.IsNearDuplicate(p) {
			names = append(names, existing.Name())
		}
	}
	return names
}

// AddPerson adds p and each of p's appointments to the book.
func (ab *AddressBook) AddPerson(p person.Person) error {
	if ab.HasPerson(p) {
		return ErrDuplicatePerson
	}

	staged := ab.stage()
	for _, a := range p.Appointments() {
		if err := staged.Add(a); err != nil {
			return err
		}
	}
	staged.Sort()

	ab.persons = append(ab.persons, p)
	ab.appointments = staged
	return nil
}

// SetPerson replaces target with edited. target's slots are released before
// edited's are booked, so keeping or reshuffling one's own slots never
// conflicts.
func (ab *AddressBook) SetPerson(target, edited person.Person) error {
	idx := ab.indexOf(target)
	if idx < 0 {
		return ErrPersonNotFound
	}
	for i, existing := range ab.persons {
		if i != idx && existing.IsSamePerson(edited) {
			return ErrDuplicatePerson
		}
	}

	staged := ab.stage()
	for _, a := range target.Appointments() {
		if err := staged.Remove(a); err != nil {
			return err
		}
	}
	for _, a := range edited.Appointments() {
		if err := staged.Add(a); err != nil {
			return err
		}
	}
	staged.Sort()

	ab.persons[idx] = edited
	ab.appointments = staged
	return nil
}

// RemovePerson removes key and releases its appointments.
func (ab *AddressBook) RemovePerson(key person.Person) error {
	idx := ab.indexOf(key)
	if idx < 0 {
		return ErrPersonNotFound
	}

	staged := ab.stage()
	for _, a := range key.Appointments() {
		if err := staged.Remove(a); err != nil {
			return err
		}
	}
	staged.Sort()

	ab.persons = slices.Delete(ab.persons, idx, idx+1)
	ab.appointments = staged
	return nil
}

// AddAppointment books a directly in the book-wide list.
func (ab *AddressBook) AddAppointment(a appointment.Appointment) error {
	if err := ab.appointments.Add(a); err != nil {
		return err
	}
	ab.appointments.Sort()
	return nil
}

// SetAppointment replaces target with edited in the book-wide list.
func (ab *AddressBook) SetAppointment(target, edited appointment.Appointment) error {
	if err := ab.appointments.SetAppointment(target, edited); err != nil {
		return err
	}
	ab.appointments.Sort()
	return nil
}

// AppointmentsOverlap reports whether a overlaps any booked slot.
func (ab *AddressBook) AppointmentsOverlap(a appointment.Appointment) bool {
	return ab.appointments.Overlaps(a)
}

// AppointmentsOverlapAny reports whether any of items overlaps a booked slot.
func (ab *AddressBook) AppointmentsOverlapAny(items []appointment.Appointment) bool {
	for _, a := range items {
		if ab.appointments.Overlaps(a) {
			return true
		}
	}
	return false
}

// ConflictOf returns the booked slot that a clashes with, taking the first
// in timetable order. This is the slot AddAppointment would report.
func (ab *AddressBook) ConflictOf(a appointment.Appointment) (appointment.Appointment, bool) {
	return ab.appointments.FirstOverlap(a)
}

// HolderOf returns the person holding exactly a.
func (ab *AddressBook) HolderOf(a appointment.Appointment) (person.Person, bool) {
	return HolderIn(ab.persons, a)
}

// HolderIn returns the first of persons holding exactly a.
func HolderIn(persons []person.Person, a appointment.Appointment) (person.Person, bool) {
	for _, p := range persons {
		if p.HasAppointment(a) {
			return p, true
		}
	}
	return person.Person{}, false
}

// Persons returns the roster in insertion order.
func (ab *AddressBook) Persons() []person.Person {
	return slices.Clone(ab.persons)
}

// Appointments returns every booked slot ordered by day and start time.
func (ab *AddressBook) Appointments() []appointment.Appointment {
	return ab.appointments.Items()
}

// Equal reports whether both books hold equal persons and the same slots.
func (ab *AddressBook) Equal(other *AddressBook) bool {
	if other == nil {
		return false
	}
	if !slices.EqualFunc(ab.persons, other.persons, person.Person.Equal) {
		return false
	}
	return ab.appointments.Equal(other.appointments)
}

func (ab *AddressBook) indexOf(p person.Person) int {
	return slices.IndexFunc(ab.persons, p.Equal)
}

// stage copies the book-wide list so a multi-step change can be validated
// before it replaces the live one.
func (ab *AddressBook) stage() *appointment.DisjointList {
	staged := &appointment.DisjointList{}
	// The live list is disjoint, so this cannot fail.
	_ = staged.SetAppointments(ab.appointments.Items())
	return staged
}

func flatten(persons []person.Person) []appointment.Appointment {
	var all []appointment.Appointment
	for _, p := range persons {
		all = append(all, p.Appointments()...)
	}
	return all
}

// checkDisjoint is HasOverlapping without collapsing equal slots, since two
// persons booking the same slot is a conflict.
func checkDisjoint(all []appointment.Appointment) error {
	for i := 0; i < len(all)-1; i++ {
		for j := i + 1; j < len(all); j++ {
			if all[i].OverlapsWith(all[j]) {
				return &appointment.OverlapError{Candidate: all[j], Existing: all[i]}
			}
		}
	}
	return nil
}
