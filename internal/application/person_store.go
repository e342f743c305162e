package application

import (
	"context"
	"slices"

	"github.com/example/tutorrec/internal/persistence"
)

// personStore adapts a persistence.PersonRepository to the service's
// PersonRepository.
type personStore struct {
	repo persistence.PersonRepository
}

// NewPersonStore wraps repo for use by AddressBookService.
func NewPersonStore(repo persistence.PersonRepository) PersonRepository {
	return &personStore{repo: repo}
}

func (s *personStore) CreatePerson(ctx context.Context, p Person) (Person, error) {
	if err := s.repo.CreatePerson(ctx, toRecord(p)); err != nil {
		return Person{}, err
	}
	return s.get(ctx, p.ID)
}

func (s *personStore) UpdatePerson(ctx context.Context, p Person) (Person, error) {
	if err := s.repo.UpdatePerson(ctx, toRecord(p)); err != nil {
		return Person{}, err
	}
	return s.get(ctx, p.ID)
}

func (s *personStore) DeletePerson(ctx context.Context, id string) error {
	return s.repo.DeletePerson(ctx, id)
}

func (s *personStore) ListPersons(ctx context.Context) ([]Person, error) {
	records, err := s.repo.ListPersons(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Person, 0, len(records))
	for _, record := range records {
		out = append(out, fromRecord(record))
	}
	return out, nil
}

func (s *personStore) ReplaceAll(ctx context.Context, persons []Person) error {
	records := make([]persistence.PersonRecord, 0, len(persons))
	for _, p := range persons {
		records = append(records, toRecord(p))
	}
	return s.repo.ReplaceAll(ctx, records)
}

func (s *personStore) get(ctx context.Context, id string) (Person, error) {
	record, err := s.repo.GetPerson(ctx, id)
	if err != nil {
		return Person{}, err
	}
	return fromRecord(record), nil
}

func toRecord(p Person) persistence.PersonRecord {
	return persistence.PersonRecord{
		ID:           p.ID,
		Name:         p.Name,
		Phone:        p.Phone,
		Email:        p.Email,
		Address:      p.Address,
		Note:         p.Note,
		Tags:         slices.Clone(p.Tags),
		Appointments: slices.Clone(p.Appointments),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromRecord(record persistence.PersonRecord) Person {
	return Person{
		ID:           record.ID,
		Name:         record.Name,
		Phone:        record.Phone,
		Email:        record.Email,
		Address:      record.Address,
		Note:         record.Note,
		Tags:         record.Tags,
		Appointments: record.Appointments,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}
