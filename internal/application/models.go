package application

import "time"

// PersonInput captures caller provided person fields. Appointments are slot
// texts such as "13:30-14:00 SUN".
type PersonInput struct {
	Name         string
	Phone        string
	Email        string
	Address      string
	Note         string
	Tags         []string
	Appointments []string
}

// Person is a stored contact with its booked slots in canonical text form,
// ordered by day and start time.
type Person struct {
	ID           string
	Name         string
	Phone        string
	Email        string
	Address      string
	Note         string
	Tags         []string
	Appointments []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AddPersonResult carries the stored person together with the names of
// existing persons that look like the same contact.
type AddPersonResult struct {
	Person         Person
	NearDuplicates []string
}

// UpdatePersonParams wraps the data required to edit a person.
type UpdatePersonParams struct {
	PersonID string
	Input    PersonInput
}

// UpdateAppointmentParams wraps the data required to move one of a person's slots.
type UpdateAppointmentParams struct {
	PersonID string
	Current  string
	Edited   string
}

// AppointmentEntry is one booked slot in the book-wide timetable.
type AppointmentEntry struct {
	Slot       string
	Day        string
	Start      string
	End        string
	PersonID   string
	PersonName string
}

// CheckResult reports whether a slot could be booked.
type CheckResult struct {
	Slot string
	// Available is false when Conflict is set.
	Available bool
	Conflict  *AppointmentEntry
}
