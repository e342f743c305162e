package persistence

import "time"

// PersonRecord is a contact as stored on disk. Appointments hold the
// canonical slot text, for example "13:30-14:00 SUN".
type PersonRecord struct {
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
