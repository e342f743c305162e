package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/tutorrec/internal/addressbook"
	"github.com/example/tutorrec/internal/appointment"
	"github.com/example/tutorrec/internal/calendar"
	"github.com/example/tutorrec/internal/person"
	"github.com/example/tutorrec/internal/persistence"
)

// PersonRepository captures the persistence operations needed by the service.
type PersonRepository interface {
	CreatePerson(ctx context.Context, p Person) (Person, error)
	UpdatePerson(ctx context.Context, p Person) (Person, error)
	DeletePerson(ctx context.Context, id string) error
	ListPersons(ctx context.Context) ([]Person, error)
	ReplaceAll(ctx context.Context, persons []Person) error
}

type timestamps struct {
	created time.Time
	updated time.Time
}

// AddressBookService keeps an in-memory address book in step with the
// repository. Every change is validated against a staged copy of the book,
// persisted, and only then committed, so a rejected change leaves both the
// book and the store untouched.
type AddressBookService struct {
	mu          sync.Mutex
	persons     PersonRepository
	book        *addressbook.AddressBook
	stamps      map[string]timestamps
	idGenerator func() string
	now         func() time.Time
	location    *time.Location
	logger      *slog.Logger
}

// NewAddressBookService constructs an address book service with the provided dependencies.
func NewAddressBookService(persons PersonRepository, idGenerator func() string, now func() time.Time) *AddressBookService {
	return NewAddressBookServiceWithLogger(persons, idGenerator, now, nil)
}

// NewAddressBookServiceWithLogger constructs an address book service with a specified logger.
func NewAddressBookServiceWithLogger(persons PersonRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AddressBookService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &AddressBookService{
		persons:     persons,
		book:        addressbook.New(),
		stamps:      make(map[string]timestamps),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// SetCalendarLocation sets the zone calendar exports interpret slots in.
// Nil uses the zone of the service clock.
func (s *AddressBookService) SetCalendarLocation(loc *time.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = loc
}

func (s *AddressBookService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AddressBookService", operation, attrs...)
}

// Load replaces the in-memory book with the repository contents. Stored data
// that breaks the disjointness rule is rejected and the current book is kept.
func (s *AddressBookService) Load(ctx context.Context) (err error) {
	if s == nil {
		return fmt.Errorf("AddressBookService is nil")
	}
	if s.persons == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "Load")
	count := 0
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load address book", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "address book loaded", "persons", count)
	}()

	var stored []Person
	stored, err = s.persons.ListPersons(ctx)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	domain := make([]person.Person, 0, len(stored))
	stamps := make(map[string]timestamps, len(stored))
	for _, dto := range stored {
		var p person.Person
		p, err = personFromStored(dto)
		if err != nil {
			return
		}
		domain = append(domain, p)
		stamps[dto.ID] = timestamps{created: dto.CreatedAt, updated: dto.UpdatedAt}
	}

	book := addressbook.New()
	if err = book.SetPersons(domain); err != nil {
		err = mapDomainError(err, domain)
		return
	}

	s.book = book
	s.stamps = stamps
	count = len(domain)
	return nil
}

// ListPersons returns every person in insertion order.
func (s *AddressBookService) ListPersons(ctx context.Context) ([]Person, error) {
	if s == nil {
		return nil, fmt.Errorf("AddressBookService is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := s.book.Persons()
	out := make([]Person, 0, len(roster))
	for _, p := range roster {
		out = append(out, s.toDTO(p))
	}
	s.loggerWith(ctx, "ListPersons").DebugContext(ctx, "persons listed", "count", len(out))
	return out, nil
}

// GetPerson returns the person with the given ID.
func (s *AddressBookService) GetPerson(ctx context.Context, id string) (Person, error) {
	if s == nil {
		return Person{}, fmt.Errorf("AddressBookService is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.find(id)
	if !ok {
		return Person{}, ErrNotFound
	}
	return s.toDTO(p), nil
}

// AddPerson validates input, books the person's slots and stores the person.
// Names of existing persons that resemble the new one are returned so callers
// can warn about likely duplicates.
func (s *AddressBookService) AddPerson(ctx context.Context, input PersonInput) (result AddPersonResult, err error) {
	if s == nil {
		err = fmt.Errorf("AddressBookService is nil")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "AddPerson", "appointments", len(input.Appointments))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add person", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if len(result.NearDuplicates) > 0 {
			logger.WarnContext(ctx, "person resembles existing contacts",
				"person_id", result.Person.ID, "near_duplicates", result.NearDuplicates)
		}
		logger.With("person_id", result.Person.ID).InfoContext(ctx, "person added")
	}()

	var p person.Person
	p, err = personFromInput(s.idGenerator(), input)
	if err != nil {
		err = mapDomainError(err, nil)
		return
	}

	var staged *addressbook.AddressBook
	staged, err = s.stage()
	if err != nil {
		return
	}
	if err = staged.AddPerson(p); err != nil {
		err = mapDomainError(err, staged.Persons())
		return
	}
	result.NearDuplicates = s.book.FindNearDuplicates(p)

	now := s.now()
	dto := toDTO(p, timestamps{created: now, updated: now})
	if s.persons != nil {
		dto, err = s.persons.CreatePerson(ctx, dto)
		if err != nil {
			err = mapRepoError(err)
			return
		}
	}

	s.commit(staged, p.ID(), timestamps{created: dto.CreatedAt, updated: dto.UpdatedAt})
	result.Person = dto
	return
}

// UpdatePerson replaces the attributes and slots of an existing person.
// Keeping or reshuffling the person's own slots never conflicts.
func (s *AddressBookService) UpdatePerson(ctx context.Context, params UpdatePersonParams) (updated Person, err error) {
	if s == nil {
		err = fmt.Errorf("AddressBookService is nil")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "UpdatePerson", "person_id", params.PersonID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update person", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "person updated")
	}()

	existing, ok := s.find(params.PersonID)
	if !ok {
		err = ErrNotFound
		return
	}

	var edited person.Person
	edited, err = personFromInput(existing.ID(), params.Input)
	if err != nil {
		err = mapDomainError(err, nil)
		return
	}

	updated, err = s.replacePerson(ctx, existing, edited)
	return
}

// DeletePerson removes a person and releases their slots.
func (s *AddressBookService) DeletePerson(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("AddressBookService is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "DeletePerson", "person_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete person", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "person deleted")
	}()

	existing, ok := s.find(id)
	if !ok {
		return ErrNotFound
	}

	var staged *addressbook.AddressBook
	staged, err = s.stage()
	if err != nil {
		return err
	}
	if err = staged.RemovePerson(existing); err != nil {
		return mapDomainError(err, nil)
	}
	if s.persons != nil {
		if err = s.persons.DeletePerson(ctx, id); err != nil {
			return mapRepoError(err)
		}
	}

	s.book = staged
	delete(s.stamps, id)
	return nil
}

// ImportPersons replaces the whole roster. The imported set is validated as a
// unit; on any failure the current roster is kept.
func (s *AddressBookService) ImportPersons(ctx context.Context, inputs []PersonInput) (imported []Person, err error) {
	if s == nil {
		err = fmt.Errorf("AddressBookService is nil")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "ImportPersons", "persons", len(inputs))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to import persons", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "persons imported")
	}()

	vErr := &ValidationError{}
	domain := make([]person.Person, 0, len(inputs))
	for i, input := range inputs {
		p, buildErr := personFromInput(s.idGenerator(), input)
		if buildErr != nil {
			var itemErr *ValidationError
			if errors.As(mapDomainError(buildErr, nil), &itemErr) {
				for field, msg := range itemErr.FieldErrors {
					vErr.add(fmt.Sprintf("persons[%d].%s", i, field), msg)
				}
				continue
			}
			err = mapDomainError(buildErr, nil)
			return
		}
		domain = append(domain, p)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	staged := addressbook.New()
	if err = staged.SetPersons(domain); err != nil {
		err = mapDomainError(err, domain)
		return
	}

	now := s.now()
	stamps := make(map[string]timestamps, len(domain))
	imported = make([]Person, 0, len(domain))
	for _, p := range domain {
		stamps[p.ID()] = timestamps{created: now, updated: now}
		imported = append(imported, toDTO(p, stamps[p.ID()]))
	}

	if s.persons != nil {
		if err = s.persons.ReplaceAll(ctx, imported); err != nil {
			err = mapRepoError(err)
			imported = nil
			return
		}
	}

	s.book = staged
	s.stamps = stamps
	return
}

// AddAppointment books slot for the person.
func (s *AddressBookService) AddAppointment(ctx context.Context, personID, slot string) (updated Person, err error) {
	if s == nil {
		err = fmt.Errorf("AddressBookService is nil")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "AddAppointment", "person_id", personID, "slot", slot)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "appointment added")
	}()

	var a appointment.Appointment
	if a, err = parseSlot("slot", slot); err != nil {
		return
	}

	updated, err = s.editAppointments(ctx, personID, func(list *appointment.DisjointList) error {
		return list.Add(a)
	})
	return
}

// UpdateAppointment moves one of the person's slots. Overlap with the slot
// being replaced is ignored.
func (s *AddressBookService) UpdateAppointment(ctx context.Context, params UpdateAppointmentParams) (updated Person, err error) {
	if s == nil {
		err = fmt.Errorf("AddressBookService is nil")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "UpdateAppointment",
		"person_id", params.PersonID,
		"slot", params.Current,
		"edited", params.Edited,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "appointment updated")
	}()

	vErr := &ValidationError{}
	current, parseErr := parseSlot("current", params.Current)
	if parseErr != nil {
		vErr.merge(asValidationError(parseErr))
	}
	edited, parseErr := parseSlot("edited", params.Edited)
	if parseErr != nil {
		vErr.merge(asValidationError(parseErr))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated, err = s.editAppointments(ctx, params.PersonID, func(list *appointment.DisjointList) error {
		return list.SetAppointment(current, edited)
	})
	return
}

// DeleteAppointment releases one of the person's slots.
func (s *AddressBookService) DeleteAppointment(ctx context.Context, personID, slot string) (updated Person, err error) {
	if s == nil {
		err = fmt.Errorf("AddressBookService is nil")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "DeleteAppointment", "person_id", personID, "slot", slot)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "appointment deleted")
	}()

	var a appointment.Appointment
	if a, err = parseSlot("slot", slot); err != nil {
		return
	}

	updated, err = s.editAppointments(ctx, personID, func(list *appointment.DisjointList) error {
		return list.Remove(a)
	})
	return
}

// ListAppointments returns every booked slot in timetable order with its holder.
func (s *AddressBookService) ListAppointments(ctx context.Context) ([]AppointmentEntry, error) {
	if s == nil {
		return nil, fmt.Errorf("AddressBookService is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := s.book.Appointments()
	entries := make([]AppointmentEntry, 0, len(slots))
	for _, a := range slots {
		entries = append(entries, s.entryFor(a))
	}
	s.loggerWith(ctx, "ListAppointments").DebugContext(ctx, "appointments listed", "count", len(entries))
	return entries, nil
}

// CheckAppointment reports whether slot is free across the whole book. A
// clash is reported in the result, not as an error.
func (s *AddressBookService) CheckAppointment(ctx context.Context, slot string) (CheckResult, error) {
	if s == nil {
		return CheckResult{}, fmt.Errorf("AddressBookService is nil")
	}

	a, err := parseSlot("slot", slot)
	if err != nil {
		return CheckResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := CheckResult{Slot: a.String(), Available: !s.book.AppointmentsOverlap(a)}
	if !result.Available {
		if held, ok := s.book.ConflictOf(a); ok {
			entry := s.entryFor(held)
			result.Conflict = &entry
		}
	}
	s.loggerWith(ctx, "CheckAppointment", "slot", result.Slot).
		DebugContext(ctx, "appointment checked", "available", result.Available)
	return result, nil
}

// ExportCalendar writes the timetable as an iCalendar feed with one weekly
// event per booked slot, anchored at the current week.
func (s *AddressBookService) ExportCalendar(ctx context.Context, w io.Writer, name string) error {
	if s == nil {
		return fmt.Errorf("AddressBookService is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "ExportCalendar")

	var entries []calendar.Entry
	for _, p := range s.book.Persons() {
		for _, a := range p.Appointments() {
			entries = append(entries, calendar.Entry{
				UID:         eventUID(p.ID(), a),
				Summary:     p.Name(),
				Description: p.Note(),
				Slot:        a,
			})
		}
	}

	if err := calendar.Export(w, entries, calendar.Options{Name: name, Reference: s.now(), Location: s.location}); err != nil {
		logger.ErrorContext(ctx, "failed to export calendar", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "calendar exported", "events", len(entries))
	return nil
}

// editAppointments applies edit to a copy of the person's slots and stores
// the result.
func (s *AddressBookService) editAppointments(ctx context.Context, personID string, edit func(*appointment.DisjointList) error) (Person, error) {
	existing, ok := s.find(personID)
	if !ok {
		return Person{}, ErrNotFound
	}

	list, err := appointment.NewDisjointList(existing.Appointments()...)
	if err != nil {
		return Person{}, mapDomainError(err, nil)
	}
	if err := edit(list); err != nil {
		return Person{}, mapDomainError(err, nil)
	}
	list.Sort()

	edited, err := existing.WithAppointments(list.Items())
	if err != nil {
		return Person{}, mapDomainError(err, nil)
	}
	return s.replacePerson(ctx, existing, edited)
}

func (s *AddressBookService) replacePerson(ctx context.Context, existing, edited person.Person) (Person, error) {
	staged, err := s.stage()
	if err != nil {
		return Person{}, err
	}
	if err := staged.SetPerson(existing, edited); err != nil {
		return Person{}, mapDomainError(err, s.book.Persons())
	}

	stamp := s.stamps[existing.ID()]
	stamp.updated = s.now()
	dto := toDTO(edited, stamp)
	if s.persons != nil {
		dto, err = s.persons.UpdatePerson(ctx, dto)
		if err != nil {
			return Person{}, mapRepoError(err)
		}
	}

	s.commit(staged, edited.ID(), timestamps{created: dto.CreatedAt, updated: dto.UpdatedAt})
	return dto, nil
}

func (s *AddressBookService) stage() (*addressbook.AddressBook, error) {
	staged := addressbook.New()
	if err := staged.ResetData(s.book); err != nil {
		return nil, fmt.Errorf("stage address book: %w", err)
	}
	return staged, nil
}

func (s *AddressBookService) commit(book *addressbook.AddressBook, id string, stamp timestamps) {
	s.book = book
	s.stamps[id] = stamp
}

func (s *AddressBookService) find(id string) (person.Person, bool) {
	if id == "" {
		return person.Person{}, false
	}
	for _, p := range s.book.Persons() {
		if p.ID() == id {
			return p, true
		}
	}
	return person.Person{}, false
}

func (s *AddressBookService) toDTO(p person.Person) Person {
	return toDTO(p, s.stamps[p.ID()])
}

func (s *AddressBookService) entryFor(a appointment.Appointment) AppointmentEntry {
	entry := AppointmentEntry{
		Slot:  a.String(),
		Day:   appointment.Abbrev(a.Day()),
		Start: a.Start().String(),
		End:   a.End().String(),
	}
	if owner, ok := s.book.HolderOf(a); ok {
		entry.PersonID = owner.ID()
		entry.PersonName = owner.Name()
	}
	return entry
}

// mapDomainError converts domain failures into application errors. The holder
// of a conflicting slot is looked up in roster, the persons the failed change
// was checked against; a nil roster leaves it empty, as for a clash between
// one person's own slots.
func mapDomainError(err error, roster []person.Person) error {
	if err == nil {
		return nil
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr
	}

	var overlap *appointment.OverlapError
	if errors.As(err, &overlap) {
		conflict := &ConflictError{Slot: overlap.Candidate.String()}
		if !overlap.Existing.IsZero() {
			conflict.ConflictsWith = overlap.Existing.String()
			if owner, ok := addressbook.HolderIn(roster, overlap.Existing); ok {
				conflict.OwnerID = owner.ID()
				conflict.OwnerName = owner.Name()
			}
		}
		return conflict
	}

	switch {
	case errors.Is(err, appointment.ErrDuplicate):
		return fmt.Errorf("%w: appointment is already booked", ErrAlreadyExists)
	case errors.Is(err, addressbook.ErrDuplicatePerson):
		return fmt.Errorf("%w: person with the same name", ErrAlreadyExists)
	case errors.Is(err, addressbook.ErrPersonNotFound), errors.Is(err, appointment.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, person.ErrNameRequired):
		vErr = &ValidationError{}
		vErr.add("name", "name is required")
		return vErr
	case errors.Is(err, appointment.ErrInvalidFormat), errors.Is(err, appointment.ErrNullInput):
		vErr = &ValidationError{}
		vErr.add("appointments", appointment.MessageConstraints)
		return vErr
	}
	return err
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		return vErr
	}
	return err
}

func parseSlot(field, text string) (appointment.Appointment, error) {
	a, err := appointment.Parse(text)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add(field, appointment.MessageConstraints)
		return appointment.Appointment{}, vErr
	}
	return a, nil
}

func asValidationError(err error) *ValidationError {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr
	}
	return nil
}

// personFromInput validates caller input and builds a domain person.
func personFromInput(id string, input PersonInput) (person.Person, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}

	slots := make([]appointment.Appointment, 0, len(input.Appointments))
	for _, text := range input.Appointments {
		a, err := appointment.Parse(text)
		if err != nil {
			vErr.add("appointments", appointment.MessageConstraints)
			continue
		}
		slots = append(slots, a)
	}
	if vErr.HasErrors() {
		return person.Person{}, vErr
	}

	return person.New(person.Fields{
		ID:           id,
		Name:         input.Name,
		Phone:        input.Phone,
		Email:        input.Email,
		Address:      input.Address,
		Note:         input.Note,
		Tags:         input.Tags,
		Appointments: slots,
	})
}

// personFromStored rebuilds a domain person from repository data.
func personFromStored(dto Person) (person.Person, error) {
	slots := make([]appointment.Appointment, 0, len(dto.Appointments))
	for _, text := range dto.Appointments {
		a, err := appointment.Parse(text)
		if err != nil {
			return person.Person{}, fmt.Errorf("stored person %s: %w", dto.ID, err)
		}
		slots = append(slots, a)
	}
	p, err := person.New(person.Fields{
		ID:           dto.ID,
		Name:         dto.Name,
		Phone:        dto.Phone,
		Email:        dto.Email,
		Address:      dto.Address,
		Note:         dto.Note,
		Tags:         dto.Tags,
		Appointments: slots,
	})
	if err != nil {
		return person.Person{}, fmt.Errorf("stored person %s: %w", dto.ID, err)
	}
	return p, nil
}

func toDTO(p person.Person, stamp timestamps) Person {
	slots := p.Appointments()
	texts := make([]string, 0, len(slots))
	for _, a := range slots {
		texts = append(texts, a.String())
	}
	return Person{
		ID:           p.ID(),
		Name:         p.Name(),
		Phone:        p.Phone(),
		Email:        p.Email(),
		Address:      p.Address(),
		Note:         p.Note(),
		Tags:         p.Tags(),
		Appointments: texts,
		CreatedAt:    stamp.created,
		UpdatedAt:    stamp.updated,
	}
}

func eventUID(personID string, a appointment.Appointment) string {
	slot := strings.NewReplacer(":", "", " ", "-").Replace(strings.ToLower(a.String()))
	return personID + "-" + slot + "@tutorrec"
}
