package database

import (
	"time"
)

// BirthCalendar names the calendar a birthday is celebrated in.
type BirthCalendar string

const (
	CalendarSolar BirthCalendar = "solar"
	CalendarLunar BirthCalendar = "lunar"
)

// IsValid checks if the calendar is one of the known values.
func (c BirthCalendar) IsValid() bool {
	return c == CalendarSolar || c == CalendarLunar
}

// Contact is one entry in the contacts ledger.
type Contact struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Phone         string        `json:"phone"`
	Relation      string        `json:"relation"`
	BirthCalendar BirthCalendar `json:"birth_calendar"`
	BirthYear     int           `json:"birth_year"` // 0 if unknown
	BirthMonth    int           `json:"birth_month"`
	BirthDay      int           `json:"birth_day"`
	BirthIsLeap   bool          `json:"birth_is_leap"`
	Memo          *string       `json:"memo"` // nullable
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ImportData is the JSON export of the contacts ledger, as written by the
// browser app's local storage backup.
type ImportData struct {
	Version  int             `json:"version"`
	Contacts []ImportContact `json:"contacts"`
}

// ImportContact is one contact in an export file.
type ImportContact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
	Birthday string `json:"birthday"` // YYYY-MM-DD
	Calendar string `json:"calendar"` // "solar" or "lunar"
	IsLeap   bool   `json:"isLeap"`
	Memo     string `json:"memo,omitempty"`
}
