package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/tutorrec/internal/appointment"
	"github.com/example/tutorrec/internal/persistence"
)

var _ persistence.PersonRepository = (*Storage)(nil)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectPersonColumns = `SELECT id, name, phone, email, address, note, tags, created_at, updated_at FROM persons`

// CreatePerson stores a new person and their appointments.
func (s *Storage) CreatePerson(ctx context.Context, record persistence.PersonRecord) error {
	if record.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		return insertPerson(ctx, tx, record)
	})
}

// UpdatePerson overwrites an existing person and replaces their appointments.
func (s *Storage) UpdatePerson(ctx context.Context, record persistence.PersonRecord) error {
	tags, err := encodeTags(record.Tags)
	if err != nil {
		return err
	}

	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE persons
			SET name = ?, phone = ?, email = ?, address = ?, note = ?, tags = ?, updated_at = ?
			WHERE id = ?`,
			record.Name, record.Phone, record.Email, record.Address, record.Note, tags,
			formatTime(record.UpdatedAt), record.ID)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE person_id = ?`, record.ID); err != nil {
			return mapError(err)
		}
		return insertSlots(ctx, tx, record.ID, record.Appointments)
	})
}

// GetPerson loads a person by ID.
func (s *Storage) GetPerson(ctx context.Context, id string) (persistence.PersonRecord, error) {
	row := s.db.QueryRowContext(ctx, selectPersonColumns+` WHERE id = ?`, id)
	record, err := scanPerson(row)
	if err != nil {
		return persistence.PersonRecord{}, mapError(err)
	}

	slots, err := s.loadSlots(ctx, `SELECT person_id, slot FROM appointments WHERE person_id = ?`, id)
	if err != nil {
		return persistence.PersonRecord{}, err
	}
	record.Appointments = slots[id]
	return record, nil
}

// ListPersons returns every person ordered by creation time.
func (s *Storage) ListPersons(ctx context.Context) ([]persistence.PersonRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectPersonColumns+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var records []persistence.PersonRecord
	for rows.Next() {
		record, err := scanPerson(rows)
		if err != nil {
			return nil, mapError(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	slots, err := s.loadSlots(ctx, `SELECT person_id, slot FROM appointments`)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Appointments = slots[records[i].ID]
	}
	return records, nil
}

// DeletePerson removes a person and their appointments.
func (s *Storage) DeletePerson(ctx context.Context, id string) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE person_id = ?`, id); err != nil {
			return mapError(err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, id)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// ReplaceAll swaps the stored roster for records in one transaction.
func (s *Storage) ReplaceAll(ctx context.Context, records []persistence.PersonRecord) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM appointments`); err != nil {
			return mapError(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM persons`); err != nil {
			return mapError(err)
		}
		for _, record := range records {
			if err := insertPerson(ctx, tx, record); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertPerson(ctx context.Context, tx *sql.Tx, record persistence.PersonRecord) error {
	tags, err := encodeTags(record.Tags)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO persons (id, name, phone, email, address, note, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Name, record.Phone, record.Email, record.Address, record.Note, tags,
		formatTime(record.CreatedAt), formatTime(record.UpdatedAt))
	if err != nil {
		return mapError(err)
	}
	return insertSlots(ctx, tx, record.ID, record.Appointments)
}

func insertSlots(ctx context.Context, tx *sql.Tx, personID string, slots []string) error {
	for _, slot := range slots {
		if _, err := tx.ExecContext(ctx, `INSERT INTO appointments (person_id, slot) VALUES (?, ?)`, personID, slot); err != nil {
			return mapError(err)
		}
	}
	return nil
}

// loadSlots groups slots by person ID. Every stored slot is parsed again so
// corrupt rows surface as errors instead of reaching the address book.
func (s *Storage) loadSlots(ctx context.Context, query string, args ...any) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	parsed := make(map[string][]appointment.Appointment)
	for rows.Next() {
		var personID string
		var slot sql.NullString
		if err := rows.Scan(&personID, &slot); err != nil {
			return nil, mapError(err)
		}
		var text *string
		if slot.Valid {
			text = &slot.String
		}
		a, err := appointment.ParseNullable(text)
		if err != nil {
			return nil, fmt.Errorf("sqlite: person %s: %w", personID, err)
		}
		parsed[personID] = append(parsed[personID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	out := make(map[string][]string, len(parsed))
	for personID, items := range parsed {
		appointment.Sort(items)
		for _, a := range items {
			out[personID] = append(out[personID], a.String())
		}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (persistence.PersonRecord, error) {
	var record persistence.PersonRecord
	var tags, createdAt, updatedAt string
	if err := row.Scan(&record.ID, &record.Name, &record.Phone, &record.Email, &record.Address,
		&record.Note, &tags, &createdAt, &updatedAt); err != nil {
		return persistence.PersonRecord{}, err
	}

	if err := json.Unmarshal([]byte(tags), &record.Tags); err != nil {
		return persistence.PersonRecord{}, fmt.Errorf("sqlite: decode tags of %s: %w", record.ID, err)
	}
	var err error
	if record.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return persistence.PersonRecord{}, fmt.Errorf("sqlite: parse created_at of %s: %w", record.ID, err)
	}
	if record.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return persistence.PersonRecord{}, fmt.Errorf("sqlite: parse updated_at of %s: %w", record.ID, err)
	}
	return record, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode tags: %w", err)
	}
	return string(encoded), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
