package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/lunar-ledger/internal/config"
	"github.com/zapponejosh/lunar-ledger/internal/database"
	"github.com/zapponejosh/lunar-ledger/internal/ledger"
	"github.com/zapponejosh/lunar-ledger/internal/lunar"
)

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db       *database.DB
	birthday *ledger.Service
	cfg      *config.Config
	logger   *slog.Logger

	// now is the clock used for "today". Tests pin it.
	now func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *database.DB, cfg *config.Config, logger *slog.Logger) *Handlers {
	return &Handlers{
		db:       db,
		birthday: ledger.NewService(db, logger),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Check database health
	if err := h.db.Health(ctx); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	WriteSuccess(w, map[string]string{
		"status": "healthy",
	})
}

// =============================================================================
// LUNAR CONVERSION
// =============================================================================

// SolarToLunarResponse is returned by GET /api/v1/lunar/solar/{date}.
type SolarToLunarResponse struct {
	Solar     lunar.SolarDate `json:"solar"`
	Lunar     lunar.LunarDate `json:"lunar"`
	Formatted string          `json:"formatted"`
}

// ConvertSolarToLunar handles GET /api/v1/lunar/solar/{date}
func (h *Handlers) ConvertSolarToLunar(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")

	year, month, day, err := ledger.ParseDate(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}

	ld := lunar.SolarToLunar(year, month, day)
	if ld == nil {
		WriteOutOfRange(w, fmt.Sprintf("Solar date %s does not exist or is outside 1900-01-31..2100-12-31", dateStr))
		return
	}

	WriteSuccess(w, SolarToLunarResponse{
		Solar:     lunar.SolarDate{Year: year, Month: month, Day: day},
		Lunar:     *ld,
		Formatted: lunar.FormatLunarDate(year, month, day),
	})
}

// LunarToSolarResponse is returned by GET /api/v1/lunar/lunar/{date}.
type LunarToSolarResponse struct {
	Lunar lunar.LunarDate `json:"lunar"`
	Solar lunar.SolarDate `json:"solar"`
	Date  string          `json:"date"`
}

// ConvertLunarToSolar handles GET /api/v1/lunar/lunar/{date}?leap=true
func (h *Handlers) ConvertLunarToSolar(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")

	year, month, day, err := ledger.ParseDate(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}

	leap, err := parseBoolParam(r, "leap")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	sd := lunar.LunarToSolar(year, month, day, leap)
	if sd == nil {
		WriteOutOfRange(w, fmt.Sprintf("Lunar date %s (leap=%v) does not exist in %d-%d",
			dateStr, leap, lunar.MinYear, lunar.MaxYear))
		return
	}

	// The round trip fills in the sexagenary labels for the lunar side.
	ld := lunar.SolarToLunar(sd.Year, sd.Month, sd.Day)
	if ld == nil {
		h.logger.Error("lunar round trip failed",
			slog.String("lunar", dateStr),
			slog.String("solar", sd.String()))
		WriteInternalError(w, "Conversion failed")
		return
	}

	WriteSuccess(w, LunarToSolarResponse{
		Lunar: *ld,
		Solar: *sd,
		Date:  sd.String(),
	})
}

// GetLunarYear handles GET /api/v1/lunar/years/{year}
func (h *Handlers) GetLunarYear(w http.ResponseWriter, r *http.Request) {
	yearStr := chi.URLParam(r, "year")

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid year: %s", yearStr))
		return
	}

	summary, ok := lunar.YearInfo(year)
	if !ok {
		WriteOutOfRange(w, fmt.Sprintf("Year %d is outside %d-%d", year, lunar.MinYear, lunar.MaxYear))
		return
	}

	WriteSuccess(w, summary)
}

// NextOccurrenceResponse is returned by GET /api/v1/lunar/next.
type NextOccurrenceResponse struct {
	Month       int             `json:"month"`
	Day         int             `json:"day"`
	IsLeapMonth bool            `json:"is_leap_month"`
	Solar       lunar.SolarDate `json:"solar"`
	Date        string          `json:"date"`
	DaysUntil   int             `json:"days_until"`
}

// GetNextOccurrence handles GET /api/v1/lunar/next?month=M&day=D&leap=true
func (h *Handlers) GetNextOccurrence(w http.ResponseWriter, r *http.Request) {
	month, err := parseIntParam(r, "month", 1, 12)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	day, err := parseIntParam(r, "day", 1, 30)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	leap, err := parseBoolParam(r, "leap")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	today := h.now()
	next := lunar.NextOccurrence(today, month, day, leap)
	if next == nil {
		WriteNotFound(w, fmt.Sprintf("Lunar %d/%d (leap=%v) does not occur again before %d", month, day, leap, lunar.MaxYear+1))
		return
	}

	WriteSuccess(w, NextOccurrenceResponse{
		Month:       month,
		Day:         day,
		IsLeapMonth: leap,
		Solar:       *next,
		Date:        next.String(),
		DaysUntil:   ledger.DaysBetween(lunar.SolarDateOf(today), *next),
	})
}

// =============================================================================
// LIFE CLOCK
// =============================================================================

// GetLifeClock handles GET /api/v1/lifeclock?birth=YYYY-MM-DD&calendar=solar|lunar&leap=&expectancy=
func (h *Handlers) GetLifeClock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	birthStr := q.Get("birth")
	if birthStr == "" {
		WriteBadRequest(w, "birth parameter is required")
		return
	}

	b, err := parseBirthday(birthStr, q.Get("calendar"), q.Get("leap"))
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	expectancy := h.cfg.LifeExpectancyYears
	if q.Get("expectancy") != "" {
		expectancy, err = parseIntParam(r, "expectancy", 1, 150)
		if err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
	}

	clock, err := ledger.NewLifeClock(h.now(), b, expectancy)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidBirthday) {
			WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidBirthday)
			return
		}
		if errors.Is(err, ledger.ErrNoOccurrence) {
			WriteOutOfRange(w, err.Error())
			return
		}
		WriteBadRequest(w, err.Error())
		return
	}

	WriteSuccess(w, clock)
}

// =============================================================================
// HELPERS
// =============================================================================

// parseBirthday builds a Birthday from a YYYY-MM-DD string and the calendar
// and leap query values. An empty calendar means solar.
func parseBirthday(date, calendar, leap string) (ledger.Birthday, error) {
	year, month, day, err := ledger.ParseDate(date)
	if err != nil {
		return ledger.Birthday{}, err
	}

	cal := database.CalendarSolar
	if calendar != "" {
		cal = database.BirthCalendar(calendar)
		if !cal.IsValid() {
			return ledger.Birthday{}, fmt.Errorf("calendar must be solar or lunar, got %q", calendar)
		}
	}

	isLeap := false
	if leap != "" {
		isLeap, err = strconv.ParseBool(leap)
		if err != nil {
			return ledger.Birthday{}, fmt.Errorf("leap must be true or false, got %q", leap)
		}
	}

	return ledger.Birthday{
		Calendar:    cal,
		Year:        year,
		Month:       month,
		Day:         day,
		IsLeapMonth: isLeap,
	}, nil
}

// parseBoolParam reads an optional boolean query parameter. Missing means false.
func parseBoolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", name, raw)
	}
	return v, nil
}

// parseIntParam reads a required integer query parameter within [lo, hi].
func parseIntParam(r *http.Request, name string, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s parameter is required", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d, got %q", name, lo, hi, raw)
	}
	return v, nil
}
