package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/zapponejosh/lunar-ledger/internal/lunar"
)

// LifeClock summarizes a life measured against an expected lifespan.
type LifeClock struct {
	Birth           lunar.SolarDate `json:"birth"`
	BirthLunar      string          `json:"birth_lunar"` // "" before 1900-01-31
	Age             int             `json:"age"`
	DaysLived       int             `json:"days_lived"`
	DaysRemaining   int             `json:"days_remaining"`
	PercentLived    float64         `json:"percent_lived"`
	ExpectancyYears int             `json:"expectancy_years"`
	NextBirthday    Occurrence      `json:"next_birthday"`
}

// NewLifeClock computes the life clock of someone born on b as of today.
// The birth year is required. The next birthday is celebrated in b's own
// calendar.
func NewLifeClock(today time.Time, b Birthday, expectancyYears int) (*LifeClock, error) {
	if expectancyYears < 1 {
		return nil, fmt.Errorf("expectancy must be positive, got %d", expectancyYears)
	}

	birth, err := b.SolarBirthDate()
	if err != nil {
		return nil, err
	}

	now := lunar.SolarDateOf(today)
	if now.Before(birth) {
		return nil, fmt.Errorf("%w: born %s, after today %s", ErrInvalidBirthday, birth, now)
	}

	next, err := NextBirthday(today, b)
	if err != nil {
		return nil, fmt.Errorf("next birthday: %w", err)
	}

	end := lunar.SolarDateOf(birth.Time().AddDate(expectancyYears, 0, 0))
	lived := DaysBetween(birth, now)
	span := DaysBetween(birth, end)

	remaining := DaysBetween(now, end)
	if remaining < 0 {
		remaining = 0
	}

	percent := 100.0
	if lived < span {
		percent = math.Round(float64(lived)/float64(span)*10000) / 100
	}

	return &LifeClock{
		Birth:           birth,
		BirthLunar:      lunar.FormatLunarDate(birth.Year, birth.Month, birth.Day),
		Age:             fullYears(birth, now),
		DaysLived:       lived,
		DaysRemaining:   remaining,
		PercentLived:    percent,
		ExpectancyYears: expectancyYears,
		NextBirthday:    next,
	}, nil
}

// fullYears returns completed Gregorian years from birth to now.
func fullYears(birth, now lunar.SolarDate) int {
	years := now.Year - birth.Year
	if now.Month < birth.Month || (now.Month == birth.Month && now.Day < birth.Day) {
		years--
	}
	return years
}
