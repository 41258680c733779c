// Command apitest runs a smoke test against a running lunar ledger API.
//
// Usage:
//
//	go run ./cmd/apitest -url http://localhost:8080 -key $API_KEY
//
// The contacts checks create and then delete a throwaway contact.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type LunarDate struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Day         int    `json:"day"`
	IsLeapMonth bool   `json:"is_leap_month"`
	StemBranch  string `json:"stem_branch"`
}

type SolarToLunarResponse struct {
	Lunar     LunarDate `json:"lunar"`
	Formatted string    `json:"formatted"`
}

type LunarToSolarResponse struct {
	Date string `json:"date"`
}

type YearResponse struct {
	TotalDays int `json:"total_days"`
	LeapMonth int `json:"leap_month"`
}

type NextResponse struct {
	Date      string `json:"date"`
	DaysUntil int    `json:"days_until"`
}

type LifeClockResponse struct {
	Age          int     `json:"age"`
	DaysLived    int     `json:"days_lived"`
	PercentLived float64 `json:"percent_lived"`
}

type ContactResponse struct {
	ID           int64 `json:"id"`
	NextBirthday *struct {
		Date      struct{ Year, Month, Day int } `json:"date"`
		DaysUntil int                            `json:"days_until"`
	} `json:"next_birthday"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status string `json:"status"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL, apiKey string, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Println("==============================================")
	fmt.Println("Lunar Ledger API Smoke Test")
	fmt.Println("==============================================")
	fmt.Printf("Base URL: %s\n", tr.baseURL)
	fmt.Println()

	tr.testHealth()
	tr.testSolarToLunar()
	tr.testLunarToSolar()
	tr.testYears()
	tr.testNextOccurrence()
	tr.testLifeClock()
	tr.testEdgeCases()
	tr.testContacts()

	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if err := tr.getData("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health.Status == "healthy" {
		tr.recordSuccess("Health check passed")
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testSolarToLunar() {
	tr.printSection("Solar -> Lunar")

	testCases := []struct {
		solar     string
		formatted string
	}{
		{"1900-01-31", "음력 1900년 1월 1일"},
		{"2023-04-05", "음력 2023년 윤2월 15일"},
		{"2000-12-31", "음력 2000년 12월 6일"},
		{"2024-09-17", "음력 2024년 8월 15일"},
		{"2026-02-07", "음력 2025년 12월 20일"},
	}

	for _, tc := range testCases {
		var data SolarToLunarResponse
		if err := tr.getData("/api/v1/lunar/solar/"+tc.solar, &data); err != nil {
			tr.recordError(tc.solar, err.Error())
			continue
		}

		if data.Formatted == tc.formatted {
			tr.recordSuccess(fmt.Sprintf("%s: %s %s", tc.solar, data.Formatted, data.Lunar.StemBranch))
		} else {
			tr.recordError(tc.solar, fmt.Sprintf("Expected '%s', got '%s'", tc.formatted, data.Formatted))
		}
	}
}

func (tr *TestRunner) testLunarToSolar() {
	tr.printSection("Lunar -> Solar")

	testCases := []struct {
		path     string
		expected string
	}{
		{"/api/v1/lunar/lunar/2023-02-01?leap=true", "2023-03-22"},
		{"/api/v1/lunar/lunar/2020-04-01?leap=true", "2020-05-23"},
		{"/api/v1/lunar/lunar/2025-08-15", "2025-10-06"},
		{"/api/v1/lunar/lunar/1960-05-01", "1960-05-25"},
	}

	for _, tc := range testCases {
		var data LunarToSolarResponse
		if err := tr.getData(tc.path, &data); err != nil {
			tr.recordError(tc.path, err.Error())
			continue
		}

		if data.Date == tc.expected {
			tr.recordSuccess(fmt.Sprintf("%s -> %s", tc.path, data.Date))
		} else {
			tr.recordError(tc.path, fmt.Sprintf("Expected %s, got %s", tc.expected, data.Date))
		}
	}
}

func (tr *TestRunner) testYears() {
	tr.printSection("Lunar Years")

	testCases := []struct {
		year      int
		leapMonth int
	}{
		{2020, 4},
		{2023, 2},
		{2024, 0},
		{2025, 6},
		{2033, 11},
	}

	for _, tc := range testCases {
		var data YearResponse
		if err := tr.getData(fmt.Sprintf("/api/v1/lunar/years/%d", tc.year), &data); err != nil {
			tr.recordError(fmt.Sprint(tc.year), err.Error())
			continue
		}

		if data.LeapMonth == tc.leapMonth {
			tr.recordSuccess(fmt.Sprintf("%d: leap month %d, %d days", tc.year, data.LeapMonth, data.TotalDays))
		} else {
			tr.recordError(fmt.Sprint(tc.year), fmt.Sprintf("Expected leap month %d, got %d", tc.leapMonth, data.LeapMonth))
		}
	}
}

func (tr *TestRunner) testNextOccurrence() {
	tr.printSection("Next Occurrence")

	var data NextResponse
	if err := tr.getData("/api/v1/lunar/next?month=8&day=15", &data); err != nil {
		tr.recordError("Next chuseok", err.Error())
		return
	}

	if data.DaysUntil >= 0 && data.DaysUntil <= 384 {
		tr.recordSuccess(fmt.Sprintf("Next 8/15: %s (D-%d)", data.Date, data.DaysUntil))
	} else {
		tr.recordError("Next chuseok", fmt.Sprintf("Implausible D-%d", data.DaysUntil))
	}
}

func (tr *TestRunner) testLifeClock() {
	tr.printSection("Life Clock")

	var data LifeClockResponse
	if err := tr.getData("/api/v1/lifeclock?birth=1960-05-01&calendar=lunar", &data); err != nil {
		tr.recordError("Life clock", err.Error())
		return
	}

	if data.Age >= 60 && data.DaysLived > 0 {
		tr.recordSuccess(fmt.Sprintf("Lunar 1960-05-01: age %d, %d days, %.2f%%", data.Age, data.DaysLived, data.PercentLived))
	} else {
		tr.recordError("Life clock", fmt.Sprintf("Unexpected age %d", data.Age))
	}
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	testCases := []struct {
		path   string
		status int
		code   string
	}{
		{"/api/v1/lunar/solar/1900-01-30", http.StatusBadRequest, "OUT_OF_RANGE"},
		{"/api/v1/lunar/solar/2101-01-01", http.StatusBadRequest, "OUT_OF_RANGE"},
		{"/api/v1/lunar/solar/2023-02-29", http.StatusBadRequest, "OUT_OF_RANGE"},
		{"/api/v1/lunar/lunar/2024-02-01?leap=true", http.StatusBadRequest, "OUT_OF_RANGE"},
		{"/api/v1/lunar/solar/invalid", http.StatusBadRequest, "BAD_REQUEST"},
		{"/api/v1/lunar/years/1899", http.StatusBadRequest, "OUT_OF_RANGE"},
		{"/api/v1/lunar/next?month=13&day=1", http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tc := range testCases {
		status, resp, err := tr.do(http.MethodGet, tc.path, nil, false)
		if err != nil {
			tr.recordError(tc.path, err.Error())
			continue
		}

		code := ""
		if resp.Error != nil {
			code = resp.Error.Code
		}
		if status == tc.status && code == tc.code {
			tr.recordSuccess(fmt.Sprintf("%s rejected with %s", tc.path, code))
		} else {
			tr.recordError(tc.path, fmt.Sprintf("Expected %d %s, got %d %s", tc.status, tc.code, status, code))
		}
	}
}

func (tr *TestRunner) testContacts() {
	tr.printSection("Contacts")

	status, _, err := tr.do(http.MethodGet, "/api/v1/contacts", nil, false)
	if err != nil {
		tr.recordError("Contacts without key", err.Error())
	} else if tr.apiKey != "" && status != http.StatusUnauthorized {
		tr.recordError("Contacts without key", fmt.Sprintf("Expected 401, got %d", status))
	} else {
		tr.recordSuccess(fmt.Sprintf("Contacts without key: HTTP %d", status))
	}

	body := map[string]interface{}{
		"name":     fmt.Sprintf("apitest-%d", time.Now().UnixNano()),
		"phone":    "000-0000-0000",
		"birthday": "1955-08-15",
		"calendar": "lunar",
	}
	status, resp, err := tr.do(http.MethodPost, "/api/v1/contacts", body, true)
	if err != nil || status != http.StatusCreated {
		tr.recordError("Create contact", fmt.Sprintf("HTTP %d %v", status, err))
		return
	}

	var created ContactResponse
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		tr.recordError("Create contact", err.Error())
		return
	}
	if created.NextBirthday == nil {
		tr.recordError("Create contact", "missing next_birthday")
	} else {
		d := created.NextBirthday.Date
		tr.recordSuccess(fmt.Sprintf("Created contact %d, next birthday %04d-%02d-%02d (D-%d)",
			created.ID, d.Year, d.Month, d.Day, created.NextBirthday.DaysUntil))
	}

	status, _, err = tr.do(http.MethodPost, "/api/v1/contacts", body, true)
	if err == nil && status == http.StatusConflict {
		tr.recordSuccess("Duplicate contact rejected")
	} else {
		tr.recordError("Duplicate contact", fmt.Sprintf("Expected 409, got %d %v", status, err))
	}

	status, _, err = tr.do(http.MethodGet, "/api/v1/contacts/upcoming?days=366", nil, true)
	if err == nil && status == http.StatusOK {
		tr.recordSuccess("Upcoming birthdays listed")
	} else {
		tr.recordError("Upcoming", fmt.Sprintf("HTTP %d %v", status, err))
	}

	path := fmt.Sprintf("/api/v1/contacts/%d", created.ID)
	status, _, err = tr.do(http.MethodDelete, path, nil, true)
	if err == nil && status == http.StatusOK {
		tr.recordSuccess(fmt.Sprintf("Deleted contact %d", created.ID))
	} else {
		tr.recordError("Delete contact", fmt.Sprintf("HTTP %d %v", status, err))
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

// getData GETs a public path and decodes a successful response's data.
func (tr *TestRunner) getData(path string, target interface{}) error {
	status, resp, err := tr.do(http.MethodGet, path, nil, false)
	if err != nil {
		return err
	}

	if !resp.Success {
		errMsg := "unknown error"
		if resp.Error != nil {
			errMsg = resp.Error.Message
		}
		return fmt.Errorf("API error (HTTP %d): %s", status, errMsg)
	}

	if tr.verbose {
		fmt.Printf("    %s\n", resp.Data)
	}

	return json.Unmarshal(resp.Data, target)
}

func (tr *TestRunner) do(method, path string, body interface{}, withKey bool) (int, *APIResponse, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal error: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, tr.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if withKey && tr.apiKey != "" {
		req.Header.Set("X-API-Key", tr.apiKey)
	}

	resp, err := tr.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("parse error: %w", err)
	}

	return resp.StatusCode, &apiResp, nil
}

func (tr *TestRunner) printSection(name string) {
	fmt.Println()
	fmt.Printf("--- %s ---\n", name)
	fmt.Println()
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Printf("  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Printf("  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Println()
	fmt.Println("==============================================")
	fmt.Println("Summary")
	fmt.Println("==============================================")
	fmt.Printf("  Passed: %d\n", tr.successCount)
	fmt.Printf("  Failed: %d\n", tr.errorCount)
	fmt.Println()

	if tr.errorCount > 0 {
		fmt.Println("Failures:")
		for _, err := range tr.errors {
			fmt.Printf("  • %s\n", err)
		}
		fmt.Println()
	}

	if tr.errorCount == 0 {
		fmt.Println("All checks passed! ✓")
	} else {
		fmt.Printf("Smoke test completed with %d failure(s)\n", tr.errorCount)
	}
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	apiKey := flag.String("key", os.Getenv("API_KEY"), "API key for the contacts endpoints")
	verbose := flag.Bool("v", false, "Verbose output (print response data)")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, *apiKey, *verbose)
	runner.Run()

	// Exit with error code if tests failed
	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
