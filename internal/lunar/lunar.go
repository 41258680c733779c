// Package lunar converts between Gregorian dates and the Korean lunisolar
// calendar for lunar years 1900 through 2100.
//
// Every function is a pure function of its arguments and a read-only table
// decoded at init, so the package is safe for concurrent use. Dates outside
// the supported range are reported as nil (or zero, or "") rather than as
// errors.
package lunar

import (
	"fmt"
	"time"
)

// Supported lunar year range.
const (
	MinYear = 1900
	MaxYear = 2100

	yearCount = MaxYear - MinYear + 1

	smallMonthDays = 29
	bigMonthDays   = 30
)

// epoch is solar 1900-01-31, which is lunar 1900-01-01.
var epoch = time.Date(1900, time.January, 31, 0, 0, 0, 0, time.UTC)

const oneDay = 24 * time.Hour

// SolarDate is a proleptic Gregorian calendar date.
type SolarDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Time returns the date as midnight UTC.
func (d SolarDate) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as YYYY-MM-DD.
func (d SolarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Before reports whether d falls strictly before other.
func (d SolarDate) Before(other SolarDate) bool {
	return d.Time().Before(other.Time())
}

// SolarDateOf returns the calendar date of t in t's own location.
func SolarDateOf(t time.Time) SolarDate {
	y, m, dd := t.Date()
	return SolarDate{Year: y, Month: int(m), Day: dd}
}

// LunarDate is a date in the Korean lunisolar calendar together with its
// display labels.
type LunarDate struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Day         int    `json:"day"`
	IsLeapMonth bool   `json:"is_leap_month"`
	StemBranch  string `json:"stem_branch"` // e.g. "갑진년 (용띠)"
	MonthLabel  string `json:"month_label"` // e.g. "윤2월 15일"
	Zodiac      string `json:"zodiac"`      // e.g. "용"
}

// YearSummary describes the month structure of one lunar year.
type YearSummary struct {
	Year          int     `json:"year"`
	TotalDays     int     `json:"total_days"`
	LeapMonth     int     `json:"leap_month"`
	LeapMonthDays int     `json:"leap_month_days"`
	MonthDays     [12]int `json:"month_days"`
	StemBranch    string  `json:"stem_branch"`
	Zodiac        string  `json:"zodiac"`
}

// InRange reports whether year is covered by the lunar table.
func InRange(year int) bool {
	return year >= MinYear && year <= MaxYear
}

func record(year int) *yearRecord {
	return &years[year-MinYear]
}

func (r *yearRecord) monthDays(month int) int {
	if r.bigMonths[month-1] {
		return bigMonthDays
	}
	return smallMonthDays
}

// YearTotalDays returns the number of days in a lunar year, leap month
// included. It returns 0 for years outside the table.
func YearTotalDays(year int) int {
	if !InRange(year) {
		return 0
	}
	return record(year).totalDays
}

// LeapMonthIndex returns the ordinary month a leap month follows in year,
// or 0 when the year has no leap month or is out of range.
func LeapMonthIndex(year int) int {
	if !InRange(year) {
		return 0
	}
	return record(year).leapMonth
}

// LeapMonthLength returns 29 or 30 for the leap month of year, or 0 when
// there is none.
func LeapMonthLength(year int) int {
	if !InRange(year) {
		return 0
	}
	return record(year).leapDays
}

// MonthLength returns 29 or 30 for ordinary month 1..12 of year. It returns
// 0 when year or month is out of range.
func MonthLength(year, month int) int {
	if !InRange(year) || month < 1 || month > 12 {
		return 0
	}
	return record(year).monthDays(month)
}

// YearInfo summarizes a lunar year. ok is false outside the table.
func YearInfo(year int) (summary YearSummary, ok bool) {
	if !InRange(year) {
		return YearSummary{}, false
	}
	rec := record(year)
	summary = YearSummary{
		Year:          year,
		TotalDays:     rec.totalDays,
		LeapMonth:     rec.leapMonth,
		LeapMonthDays: rec.leapDays,
		StemBranch:    StemBranch(year),
		Zodiac:        Zodiac(year),
	}
	for m := 1; m <= 12; m++ {
		summary.MonthDays[m-1] = rec.monthDays(m)
	}
	return summary, true
}

// SolarToLunar converts a Gregorian date to its lunar equivalent. It returns
// nil when the solar year is outside 1900..2100, the date precedes
// 1900-01-31, or the date does not exist (e.g. February 30).
func SolarToLunar(year, month, dayOfMonth int) *LunarDate {
	if !InRange(year) {
		return nil
	}
	target := time.Date(year, time.Month(month), dayOfMonth, 0, 0, 0, 0, time.UTC)
	if target.Year() != year || int(target.Month()) != month || target.Day() != dayOfMonth {
		return nil
	}

	offset := int(target.Sub(epoch) / oneDay)
	if offset < 0 {
		return nil
	}

	lunarYear := MinYear
	for ; lunarYear <= MaxYear; lunarYear++ {
		total := record(lunarYear).totalDays
		if offset < total {
			break
		}
		offset -= total
	}
	if lunarYear > MaxYear {
		return nil
	}

	rec := record(lunarYear)
	lunarMonth := 1
	isLeap := false
	for ; lunarMonth <= 12; lunarMonth++ {
		length := rec.monthDays(lunarMonth)
		if offset < length {
			break
		}
		offset -= length

		if rec.leapMonth == lunarMonth {
			if offset < rec.leapDays {
				isLeap = true
				break
			}
			offset -= rec.leapDays
		}
	}

	return newLunarDate(lunarYear, lunarMonth, offset+1, isLeap)
}

func newLunarDate(year, month, dayOfMonth int, isLeap bool) *LunarDate {
	return &LunarDate{
		Year:        year,
		Month:       month,
		Day:         dayOfMonth,
		IsLeapMonth: isLeap,
		StemBranch:  StemBranch(year),
		MonthLabel:  monthLabel(month, dayOfMonth, isLeap),
		Zodiac:      Zodiac(year),
	}
}

// LunarToSolar converts a lunar date to its Gregorian equivalent. It returns
// nil when the year is outside 1900..2100, the month is not 1..12, the day
// exceeds that month's length, or isLeapMonth is set for a month the year
// does not repeat.
func LunarToSolar(year, month, dayOfMonth int, isLeapMonth bool) *SolarDate {
	if !InRange(year) || month < 1 || month > 12 {
		return nil
	}

	rec := record(year)
	length := rec.monthDays(month)
	if isLeapMonth {
		if rec.leapMonth != month {
			return nil
		}
		length = rec.leapDays
	}
	if dayOfMonth < 1 || dayOfMonth > length {
		return nil
	}

	offset := 0
	for y := MinYear; y < year; y++ {
		offset += record(y).totalDays
	}
	for m := 1; m < month; m++ {
		offset += rec.monthDays(m)
		if m == rec.leapMonth {
			offset += rec.leapDays
		}
	}
	// The leap month comes right after its ordinary month.
	if isLeapMonth {
		offset += rec.monthDays(month)
	}
	offset += dayOfMonth - 1

	d := SolarDateOf(epoch.AddDate(0, 0, offset))
	return &d
}

// FormatLunarDate renders the lunar equivalent of a solar date as
// "음력 2023년 11월 20일", or "" when the date cannot be converted.
func FormatLunarDate(year, month, dayOfMonth int) string {
	ld := SolarToLunar(year, month, dayOfMonth)
	if ld == nil {
		return ""
	}
	return fmt.Sprintf("음력 %d년 %s", ld.Year, ld.MonthLabel)
}

// NextOccurrenceSolarDate returns the solar date of the next recurrence of
// a lunar month/day, counting today. See NextOccurrence.
func NextOccurrenceSolarDate(month, dayOfMonth int, isLeapMonth bool) *SolarDate {
	return NextOccurrence(time.Now(), month, dayOfMonth, isLeapMonth)
}

// NextOccurrence returns the earliest solar date on or after today's
// calendar date that falls on the given lunar month/day. The lunar year of
// today's solar year is tried along with its neighbours, since a late lunar
// month can land in January of the following solar year. It returns nil when
// none of those years contain the date, which happens for leap months that
// do not recur.
func NextOccurrence(today time.Time, month, dayOfMonth int, isLeapMonth bool) *SolarDate {
	from := SolarDateOf(today)

	var best *SolarDate
	for y := from.Year - 1; y <= from.Year+1; y++ {
		d := LunarToSolar(y, month, dayOfMonth, isLeapMonth)
		if d == nil || d.Before(from) {
			continue
		}
		if best == nil || d.Before(*best) {
			best = d
		}
	}
	return best
}
