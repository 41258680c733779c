// Package ledger computes birthday occurrences and life-clock figures for
// contacts, on top of the lunar calendar converter.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zapponejosh/lunar-ledger/internal/database"
	"github.com/zapponejosh/lunar-ledger/internal/lunar"
)

var (
	// ErrInvalidBirthday is returned for birthdays that do not exist in
	// their calendar.
	ErrInvalidBirthday = errors.New("invalid birthday")

	// ErrNoOccurrence is returned when no upcoming date can be found inside
	// the supported lunar range.
	ErrNoOccurrence = errors.New("no upcoming occurrence")
)

const oneDay = 24 * time.Hour

// Birthday is a recurring date in either calendar.
type Birthday struct {
	Calendar    database.BirthCalendar `json:"calendar"`
	Year        int                    `json:"year"` // 0 if unknown
	Month       int                    `json:"month"`
	Day         int                    `json:"day"`
	IsLeapMonth bool                   `json:"is_leap_month"`
}

// FromContact extracts the birthday stored on a contact.
func FromContact(c database.Contact) Birthday {
	return Birthday{
		Calendar:    c.BirthCalendar,
		Year:        c.BirthYear,
		Month:       c.BirthMonth,
		Day:         c.BirthDay,
		IsLeapMonth: c.BirthIsLeap,
	}
}

// Contact validates b and returns a contact row carrying it. Text fields
// are trimmed and an empty memo is stored as NULL.
func (b Birthday) Contact(name, phone, relation, memo string) (*database.Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	c := &database.Contact{
		Name:          name,
		Phone:         strings.TrimSpace(phone),
		Relation:      strings.TrimSpace(relation),
		BirthCalendar: b.Calendar,
		BirthYear:     b.Year,
		BirthMonth:    b.Month,
		BirthDay:      b.Day,
		BirthIsLeap:   b.IsLeapMonth,
	}
	if memo = strings.TrimSpace(memo); memo != "" {
		c.Memo = &memo
	}
	return c, nil
}

// Validate checks that the birthday exists in its calendar. A zero Year
// only checks month and day ranges.
func (b Birthday) Validate() error {
	if b.Month < 1 || b.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidBirthday, b.Month)
	}

	switch b.Calendar {
	case database.CalendarSolar:
		if b.IsLeapMonth {
			return fmt.Errorf("%w: solar dates have no leap month", ErrInvalidBirthday)
		}
		// 2000 is a leap year, so Feb 29 passes when the year is unknown.
		year := b.Year
		if year == 0 {
			year = 2000
		}
		if !solarExists(year, b.Month, b.Day) {
			return fmt.Errorf("%w: %04d-%02d-%02d is not a calendar date", ErrInvalidBirthday, year, b.Month, b.Day)
		}

	case database.CalendarLunar:
		if b.Day < 1 || b.Day > 30 {
			return fmt.Errorf("%w: lunar day %d out of range", ErrInvalidBirthday, b.Day)
		}
		if b.Year == 0 {
			return nil
		}
		if !lunar.InRange(b.Year) {
			return fmt.Errorf("%w: lunar year %d outside %d-%d", ErrInvalidBirthday, b.Year, lunar.MinYear, lunar.MaxYear)
		}
		if lunar.LunarToSolar(b.Year, b.Month, b.Day, b.IsLeapMonth) == nil {
			return fmt.Errorf("%w: lunar %d-%d-%d (leap=%v) does not exist", ErrInvalidBirthday, b.Year, b.Month, b.Day, b.IsLeapMonth)
		}

	default:
		return fmt.Errorf("%w: unknown calendar %q", ErrInvalidBirthday, b.Calendar)
	}

	return nil
}

// SolarBirthDate returns the Gregorian date of birth. It needs the year.
func (b Birthday) SolarBirthDate() (lunar.SolarDate, error) {
	if err := b.Validate(); err != nil {
		return lunar.SolarDate{}, err
	}
	if b.Year == 0 {
		return lunar.SolarDate{}, fmt.Errorf("%w: birth year is required", ErrInvalidBirthday)
	}

	if b.Calendar == database.CalendarSolar {
		return lunar.SolarDate{Year: b.Year, Month: b.Month, Day: b.Day}, nil
	}

	// Validate already proved the conversion succeeds.
	return *lunar.LunarToSolar(b.Year, b.Month, b.Day, b.IsLeapMonth), nil
}

// Occurrence is the next celebration of a birthday.
type Occurrence struct {
	Date       lunar.SolarDate `json:"date"`
	DaysUntil  int             `json:"days_until"`
	Age        int             `json:"age,omitempty"` // age reached on Date; 0 if birth year unknown
	Fallback   bool            `json:"fallback"`      // celebrated on a substitute day
	LunarLabel string          `json:"lunar_label"`
}

// NextBirthday finds the first celebration of b on or after today's date.
//
// Solar Feb 29 birthdays fall back to Feb 28 in common years. Lunar
// birthdays in a leap month fall back to the ordinary month of the same
// number in years without that leap month, and day 30 falls back to day 29
// in small months.
func NextBirthday(today time.Time, b Birthday) (Occurrence, error) {
	if err := b.Validate(); err != nil {
		return Occurrence{}, err
	}

	from := lunar.SolarDateOf(today)

	var (
		date     *lunar.SolarDate
		fallback bool
	)
	switch b.Calendar {
	case database.CalendarSolar:
		date, fallback = nextSolar(from, b.Month, b.Day)
	case database.CalendarLunar:
		date, fallback = nextLunar(today, b)
	}
	if date == nil {
		return Occurrence{}, ErrNoOccurrence
	}

	occ := Occurrence{
		Date:       *date,
		DaysUntil:  DaysBetween(from, *date),
		Fallback:   fallback,
		LunarLabel: lunar.FormatLunarDate(date.Year, date.Month, date.Day),
	}

	if b.Year != 0 {
		occ.Age = date.Year - b.Year
		if b.Calendar == database.CalendarLunar {
			if ld := lunar.SolarToLunar(date.Year, date.Month, date.Day); ld != nil {
				occ.Age = ld.Year - b.Year
			}
		}
	}

	return occ, nil
}

func nextSolar(from lunar.SolarDate, month, day int) (*lunar.SolarDate, bool) {
	for y := from.Year; y <= from.Year+1; y++ {
		d := lunar.SolarDate{Year: y, Month: month, Day: day}
		fallback := false
		if !solarExists(y, month, day) {
			// Only Feb 29 gets here after validation.
			d.Day = 28
			fallback = true
		}
		if !d.Before(from) {
			return &d, fallback
		}
	}
	return nil, false
}

// nextLunar resolves b in each lunar year that can hold the next
// occurrence and keeps the earliest one on or after today.
func nextLunar(today time.Time, b Birthday) (*lunar.SolarDate, bool) {
	from := lunar.SolarDateOf(today)

	var (
		best         *lunar.SolarDate
		bestFallback bool
	)
	for y := from.Year - 1; y <= from.Year+1; y++ {
		d, fallback := lunarInYear(y, b)
		if d == nil || d.Before(from) {
			continue
		}
		if best == nil || d.Before(*best) {
			best, bestFallback = d, fallback
		}
	}
	return best, bestFallback
}

// lunarInYear places b in lunar year y, substituting the ordinary month
// for a leap month y lacks and the month's last day for day 30.
func lunarInYear(y int, b Birthday) (*lunar.SolarDate, bool) {
	if !lunar.InRange(y) {
		return nil, false
	}

	leap := b.IsLeapMonth && lunar.LeapMonthIndex(y) == b.Month
	fallback := b.IsLeapMonth && !leap

	length := lunar.MonthLength(y, b.Month)
	if leap {
		length = lunar.LeapMonthLength(y)
	}
	dayOfMonth := b.Day
	if dayOfMonth > length {
		dayOfMonth = length
		fallback = true
	}

	return lunar.LunarToSolar(y, b.Month, dayOfMonth, leap), fallback
}

// DaysBetween returns the number of days from a to b, negative if b is
// earlier.
func DaysBetween(a, b lunar.SolarDate) int {
	return int(b.Time().Sub(a.Time()) / oneDay)
}

func solarExists(year, month, day int) bool {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

// ParseDate splits a YYYY-MM-DD string into its numeric parts without
// checking it against either calendar.
func ParseDate(s string) (year, month, day int, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) == 0 || len(parts[2]) == 0 {
		return 0, 0, 0, fmt.Errorf("date %q is not YYYY-MM-DD", s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("date %q is not YYYY-MM-DD", s)
		}
		nums[i] = n
	}

	return nums[0], nums[1], nums[2], nil
}
