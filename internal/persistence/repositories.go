package persistence

import "context"

// PersonRepository stores contacts together with their appointment slots.
type PersonRepository interface {
	CreatePerson(ctx context.Context, record PersonRecord) error
	UpdatePerson(ctx context.Context, record PersonRecord) error
	GetPerson(ctx context.Context, id string) (PersonRecord, error)
	ListPersons(ctx context.Context) ([]PersonRecord, error)
	DeletePerson(ctx context.Context, id string) error
	// ReplaceAll discards every stored person and stores records instead.
	ReplaceAll(ctx context.Context, records []PersonRecord) error
}
