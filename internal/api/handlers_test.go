package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunar-ledger/internal/config"
	"github.com/zapponejosh/lunar-ledger/internal/database"
	"github.com/zapponejosh/lunar-ledger/internal/logger"
)

// =============================================================================
// TEST SETUP HELPERS
// =============================================================================

const testAPIKey = "test-key-32-characters-minimum-length"

// testEnv sets up a complete test environment with database, config, and router
type testEnv struct {
	db       *database.DB
	cfg      *config.Config
	handlers *Handlers
	router   http.Handler
}

// setupTest creates a fresh test environment. "Today" is pinned to 2025-09-01.
func setupTest(t *testing.T) *testEnv {
	t.Helper()

	dbCfg := database.Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}

	log := logger.Quiet()

	db, err := database.Open(dbCfg, log)
	require.NoError(t, err, "open test database")
	t.Cleanup(func() { db.Close() })

	_, err = db.Migrate(context.Background())
	require.NoError(t, err, "migrate test database")

	cfg := &config.Config{
		Port:                8080,
		Env:                 config.EnvDevelopment,
		DatabasePath:        ":memory:",
		APIKey:              testAPIKey,
		LogLevel:            "error",
		LogFormat:           "text",
		UpcomingWindowDays:  30,
		LifeExpectancyYears: 83,
	}

	handlers := NewHandlers(db, cfg, log)
	handlers.now = func() time.Time {
		return time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	}

	return &testEnv{
		db:       db,
		cfg:      cfg,
		handlers: handlers,
		router:   SetupRoutes(handlers, cfg, log),
	}
}

// do sends a request through the full router
func (env *testEnv) do(method, path string, body interface{}, apiKey string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, makeRequest(method, path, body, apiKey))
	return rr
}

// makeRequest is a helper to make HTTP requests with optional API key
func makeRequest(method, path string, body interface{}, apiKey string) *http.Request {
	var bodyReader io.Reader
	if raw, ok := body.(string); ok {
		bodyReader = bytes.NewBufferString(raw)
	} else if body != nil {
		jsonData, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonData)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	return req
}

// envelope mirrors Response with the payload left raw
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

// parseResponse decodes the envelope and, when v is non-nil, its data
func parseResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env), "decode response")
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Data, v), "decode data: %s", env.Data)
	}
	return env
}

// assertError checks the status and error code of a failed response
func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rr.Code, "body: %s", rr.Body.String())
	resp := parseResponse(t, rr, nil)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, code, resp.Error.Code)
}

func lunarMother() ContactRequest {
	return ContactRequest{
		Name:     "어머니",
		Phone:    "010-1234-5678",
		Relation: "가족",
		Birthday: "1955-08-15",
		Calendar: "lunar",
	}
}

func (env *testEnv) createContact(t *testing.T, req ContactRequest) ContactResponse {
	t.Helper()
	rr := env.do(http.MethodPost, "/api/v1/contacts", req, testAPIKey)
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())

	var created ContactResponse
	parseResponse(t, rr, &created)
	return created
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestAuthMiddleware(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name   string
		apiKey string
		want   int
	}{
		{"valid key", testAPIKey, http.StatusOK},
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodGet, "/api/v1/contacts", nil, tt.apiKey)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestAuthMiddleware_DevelopmentWithoutKey(t *testing.T) {
	env := setupTest(t)
	env.cfg.APIKey = ""

	rr := env.do(http.MethodGet, "/api/v1/contacts", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthMiddleware_PublicRoutesSkipAuth(t *testing.T) {
	env := setupTest(t)

	rr := env.do(http.MethodGet, "/api/v1/lunar/years/2023", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	env := setupTest(t)

	rr := env.do(http.MethodGet, "/health", nil, "")
	assert.Len(t, rr.Header().Get("X-Request-ID"), 36, "generated IDs are UUIDs")

	req := makeRequest(http.MethodGet, "/health", nil, "")
	req.Header.Set("X-Request-ID", "caller-id")
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assert.Equal(t, "caller-id", rr.Header().Get("X-Request-ID"))
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	env := setupTest(t)

	rr := env.do(http.MethodOptions, "/api/v1/contacts", nil, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(logger.Quiet())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assertError(t, rr, http.StatusInternalServerError, CodeInternal)
}

func TestNotFoundRoute(t *testing.T) {
	env := setupTest(t)

	rr := env.do(http.MethodGet, "/api/v1/nope", nil, "")
	assertError(t, rr, http.StatusNotFound, CodeNotFound)
}

// =============================================================================
// HEALTH
// =============================================================================

func TestHealthCheck(t *testing.T) {
	env := setupTest(t)

	rr := env.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var data map[string]string
	resp := parseResponse(t, rr, &data)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", data["status"])
}

// =============================================================================
// LUNAR CONVERSION
// =============================================================================

func TestConvertSolarToLunar(t *testing.T) {
	env := setupTest(t)

	rr := env.do(http.MethodGet, "/api/v1/lunar/solar/2023-04-05", nil, "")
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var got SolarToLunarResponse
	parseResponse(t, rr, &got)
	assert.Equal(t, 2023, got.Lunar.Year)
	assert.Equal(t, 2, got.Lunar.Month)
	assert.Equal(t, 15, got.Lunar.Day)
	assert.True(t, got.Lunar.IsLeapMonth)
	assert.Equal(t, "계묘년 (토끼띠)", got.Lunar.StemBranch)
	assert.Equal(t, "음력 2023년 윤2월 15일", got.Formatted)
}

func TestConvertSolarToLunar_Errors(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name   string
		date   string
		status int
		code   string
	}{
		{"before table", "1900-01-30", http.StatusBadRequest, CodeOutOfRange},
		{"after table", "2101-01-01", http.StatusBadRequest, CodeOutOfRange},
		{"not a calendar date", "2023-02-30", http.StatusBadRequest, CodeOutOfRange},
		{"malformed", "2023-4-5x", http.StatusBadRequest, CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodGet, "/api/v1/lunar/solar/"+tt.date, nil, "")
			assertError(t, rr, tt.status, tt.code)
		})
	}
}

func TestConvertLunarToSolar(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/lunar/lunar/2023-02-01?leap=true", "2023-03-22"},
		{"/api/v1/lunar/lunar/2024-08-15", "2024-09-17"},
		{"/api/v1/lunar/lunar/2025-12-20", "2026-02-07"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := env.do(http.MethodGet, tt.path, nil, "")
			require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

			var got LunarToSolarResponse
			parseResponse(t, rr, &got)
			assert.Equal(t, tt.want, got.Date)
		})
	}
}

func TestConvertLunarToSolar_Errors(t *testing.T) {
	env := setupTest(t)

	assertError(t, env.do(http.MethodGet, "/api/v1/lunar/lunar/2024-02-01?leap=true", nil, ""),
		http.StatusBadRequest, CodeOutOfRange)
	assertError(t, env.do(http.MethodGet, "/api/v1/lunar/lunar/2025-04-30", nil, ""),
		http.StatusBadRequest, CodeOutOfRange)
	assertError(t, env.do(http.MethodGet, "/api/v1/lunar/lunar/2023-02-01?leap=maybe", nil, ""),
		http.StatusBadRequest, CodeBadRequest)
}

func TestGetLunarYear(t *testing.T) {
	env := setupTest(t)

	rr := env.do(http.MethodGet, "/api/v1/lunar/years/2023", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		TotalDays     int `json:"total_days"`
		LeapMonth     int `json:"leap_month"`
		LeapMonthDays int `json:"leap_month_days"`
	}
	parseResponse(t, rr, &got)
	assert.Equal(t, 384, got.TotalDays)
	assert.Equal(t, 2, got.LeapMonth)
	assert.Equal(t, 29, got.LeapMonthDays)

	assertError(t, env.do(http.MethodGet, "/api/v1/lunar/years/2101", nil, ""), http.StatusBadRequest, CodeOutOfRange)
	assertError(t, env.do(http.MethodGet, "/api/v1/lunar/years/abc", nil, ""), http.StatusBadRequest, CodeBadRequest)
}

func TestGetNextOccurrence(t *testing.T) {
	env := setupTest(t)

	rr := env.do(http.MethodGet, "/api/v1/lunar/next?month=8&day=15", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var got NextOccurrenceResponse
	parseResponse(t, rr, &got)
	assert.Equal(t, "2025-10-06", got.Date)
	assert.Equal(t, 35, got.DaysUntil)
}

func TestGetNextOccurrence_Errors(t *testing.T) {
	env := setupTest(t)

	assertError(t, env.do(http.MethodGet, "/api/v1/lunar/next?month=13&day=1", nil, ""),
		http.StatusBadRequest, CodeBadRequest)
	assertError(t, env.do(http.MethodGet, "/api/v1/lunar/next?month=1", nil, ""),
		http.StatusBadRequest, CodeBadRequest)

	// No leap 2nd month in 2024-2026.
	assertError(t, env.do(http.MethodGet, "/api/v1/lunar/next?month=2&day=1&leap=true", nil, ""),
		http.StatusNotFound, CodeNotFound)
}

// =============================================================================
// LIFE CLOCK
// =============================================================================

func TestGetLifeClock(t *testing.T) {
	env := setupTest(t)

	rr := env.do(http.MethodGet, "/api/v1/lifeclock?birth=1960-05-15", nil, "")
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var got struct {
		Age             int     `json:"age"`
		DaysLived       int     `json:"days_lived"`
		DaysRemaining   int     `json:"days_remaining"`
		PercentLived    float64 `json:"percent_lived"`
		ExpectancyYears int     `json:"expectancy_years"`
	}
	parseResponse(t, rr, &got)
	assert.Equal(t, 65, got.Age)
	assert.Equal(t, 23850, got.DaysLived)
	assert.Equal(t, 6465, got.DaysRemaining)
	assert.InDelta(t, 78.67, got.PercentLived, 0.001)
	assert.Equal(t, 83, got.ExpectancyYears)
}

func TestGetLifeClock_Errors(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"missing birth", "", CodeBadRequest},
		{"bad calendar", "?birth=1960-05-15&calendar=julian", CodeBadRequest},
		{"bad expectancy", "?birth=1960-05-15&expectancy=0", CodeBadRequest},
		{"born in the future", "?birth=2030-01-01", CodeInvalidBirthday},
		{"missing leap month", "?birth=2024-02-01&calendar=lunar&leap=true", CodeInvalidBirthday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodGet, "/api/v1/lifeclock"+tt.query, nil, "")
			assertError(t, rr, http.StatusBadRequest, tt.code)
		})
	}
}

// =============================================================================
// CONTACTS
// =============================================================================

func TestCreateContact(t *testing.T) {
	env := setupTest(t)

	created := env.createContact(t, lunarMother())

	assert.NotZero(t, created.ID)
	assert.Equal(t, database.CalendarLunar, created.BirthCalendar)
	require.NotNil(t, created.NextBirthday)
	assert.Equal(t, "2025-10-06", created.NextBirthday.Date.String())
	assert.Equal(t, 35, created.NextBirthday.DaysUntil)
	assert.Equal(t, 70, created.NextBirthday.Age)
}

func TestCreateContact_Errors(t *testing.T) {
	env := setupTest(t)
	env.createContact(t, lunarMother())

	noName := lunarMother()
	noName.Name = "  "

	leapFeb := lunarMother()
	leapFeb.Name = "윤달"
	leapFeb.Birthday = "2001-02-29"
	leapFeb.Calendar = "solar"

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"duplicate", lunarMother(), http.StatusConflict, CodeDuplicate},
		{"missing name", noName, http.StatusBadRequest, CodeBadRequest},
		{"invalid birthday", leapFeb, http.StatusBadRequest, CodeInvalidBirthday},
		{"bad json", "{", http.StatusBadRequest, CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodPost, "/api/v1/contacts", tt.body, testAPIKey)
			assertError(t, rr, tt.status, tt.code)
		})
	}
}

func TestGetContact(t *testing.T) {
	env := setupTest(t)
	created := env.createContact(t, lunarMother())

	rr := env.do(http.MethodGet, "/api/v1/contacts/1", nil, testAPIKey)
	require.Equal(t, http.StatusOK, rr.Code)

	var got ContactResponse
	parseResponse(t, rr, &got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "어머니", got.Name)

	assertError(t, env.do(http.MethodGet, "/api/v1/contacts/999", nil, testAPIKey), http.StatusNotFound, CodeNotFound)
	assertError(t, env.do(http.MethodGet, "/api/v1/contacts/abc", nil, testAPIKey), http.StatusBadRequest, CodeBadRequest)
}

func TestUpdateContact(t *testing.T) {
	env := setupTest(t)
	env.createContact(t, lunarMother())

	update := lunarMother()
	update.Phone = "010-0000-0000"
	update.Memo = "송편"

	rr := env.do(http.MethodPut, "/api/v1/contacts/1", update, testAPIKey)
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var got ContactResponse
	parseResponse(t, rr, &got)
	assert.Equal(t, "010-0000-0000", got.Phone)
	require.NotNil(t, got.Memo)
	assert.Equal(t, "송편", *got.Memo)

	assertError(t, env.do(http.MethodPut, "/api/v1/contacts/999", update, testAPIKey), http.StatusNotFound, CodeNotFound)
}

func TestDeleteContact(t *testing.T) {
	env := setupTest(t)
	env.createContact(t, lunarMother())

	rr := env.do(http.MethodDelete, "/api/v1/contacts/1", nil, testAPIKey)
	require.Equal(t, http.StatusOK, rr.Code)

	assertError(t, env.do(http.MethodGet, "/api/v1/contacts/1", nil, testAPIKey), http.StatusNotFound, CodeNotFound)
	assertError(t, env.do(http.MethodDelete, "/api/v1/contacts/1", nil, testAPIKey), http.StatusNotFound, CodeNotFound)
}

func TestListContacts(t *testing.T) {
	env := setupTest(t)

	rr := env.do(http.MethodGet, "/api/v1/contacts", nil, testAPIKey)
	require.Equal(t, http.StatusOK, rr.Code)
	var empty ContactListResponse
	parseResponse(t, rr, &empty)
	assert.NotNil(t, empty.Contacts)
	assert.Empty(t, empty.Contacts)

	env.createContact(t, lunarMother())
	env.createContact(t, ContactRequest{Name: "동생", Phone: "010-2", Birthday: "1990-09-10"})
	env.createContact(t, ContactRequest{Name: "친구", Phone: "010-3", Birthday: "0000-12-25"})

	rr = env.do(http.MethodGet, "/api/v1/contacts?limit=2&offset=1", nil, testAPIKey)
	require.Equal(t, http.StatusOK, rr.Code)

	var page ContactListResponse
	parseResponse(t, rr, &page)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 1, page.Offset)
	require.Len(t, page.Contacts, 2)
	assert.Equal(t, "어머니", page.Contacts[0].Name)

	assertError(t, env.do(http.MethodGet, "/api/v1/contacts?limit=0", nil, testAPIKey), http.StatusBadRequest, CodeBadRequest)
}

func TestGetUpcomingBirthdays(t *testing.T) {
	env := setupTest(t)

	// 어머니 in 35 days, 동생 and 가족 in 9, 친구 outside the window, 오늘 today.
	env.createContact(t, lunarMother())
	env.createContact(t, ContactRequest{Name: "동생", Phone: "010-2", Birthday: "1990-09-10"})
	env.createContact(t, ContactRequest{Name: "친구", Phone: "010-3", Birthday: "1985-12-25"})
	env.createContact(t, ContactRequest{Name: "가족", Phone: "010-4", Birthday: "1970-09-10"})
	env.createContact(t, ContactRequest{Name: "오늘", Phone: "010-5", Birthday: "0000-09-01"})

	rr := env.do(http.MethodGet, "/api/v1/contacts/upcoming?days=40", nil, testAPIKey)
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var got UpcomingResponse
	parseResponse(t, rr, &got)
	assert.Equal(t, "2025-09-01", got.Today)
	assert.Equal(t, 40, got.WindowDays)

	var names []string
	for _, b := range got.Birthdays {
		names = append(names, b.Contact.Name)
	}
	assert.Equal(t, []string{"오늘", "가족", "동생", "어머니"}, names)
	assert.Equal(t, 0, got.Birthdays[0].Occurrence.DaysUntil)
	assert.Zero(t, got.Birthdays[0].Occurrence.Age, "unknown birth year")
}

func TestGetUpcomingBirthdays_DefaultWindow(t *testing.T) {
	env := setupTest(t)
	env.createContact(t, lunarMother()) // 35 days, outside the 30-day default

	rr := env.do(http.MethodGet, "/api/v1/contacts/upcoming", nil, testAPIKey)
	require.Equal(t, http.StatusOK, rr.Code)

	var got UpcomingResponse
	parseResponse(t, rr, &got)
	assert.Equal(t, 30, got.WindowDays)
	assert.Empty(t, got.Birthdays)

	assertError(t, env.do(http.MethodGet, "/api/v1/contacts/upcoming?days=400", nil, testAPIKey),
		http.StatusBadRequest, CodeBadRequest)
}
