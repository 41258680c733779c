// Command dategen prints the solar dates of the lunar holidays and lunar
// month starts for a year, for checking the table against a printed
// calendar.
//
// Usage:
//
//	go run ./cmd/dategen -year 2025
//	go run ./cmd/dategen -year 2025 -csv > 2025.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/zapponejosh/lunar-ledger/internal/lunar"
)

// holiday is a fixed lunar date.
type holiday struct {
	name  string
	month int
	day   int
}

var holidays = []holiday{
	{"설날", 1, 1},
	{"정월대보름", 1, 15},
	{"부처님오신날", 4, 8},
	{"단오", 5, 5},
	{"칠석", 7, 7},
	{"추석", 8, 15},
}

// monthStart is the first day of a lunar month in solar terms.
type monthStart struct {
	label string
	month int
	leap  bool
	solar lunar.SolarDate
	days  int
}

func main() {
	year := flag.Int("year", time.Now().Year(), "Lunar year to generate dates for")
	asCSV := flag.Bool("csv", false, "Write every day of the year as CSV (solar,lunar,leap)")
	flag.Parse()

	if !lunar.InRange(*year) {
		fmt.Fprintf(os.Stderr, "year %d is outside %d-%d\n", *year, lunar.MinYear, lunar.MaxYear)
		os.Exit(1)
	}

	if *asCSV {
		if err := writeCSV(os.Stdout, *year); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	summary, _ := lunar.YearInfo(*year)
	fmt.Printf("=== Lunar Date Generator for %d %s ===\n\n", *year, summary.StemBranch)

	// ==========================================================================
	// HOLIDAYS
	// ==========================================================================
	fmt.Println("Holidays:")
	for _, h := range holidays {
		d := lunar.LunarToSolar(*year, h.month, h.day, false)
		if d == nil {
			continue
		}
		fmt.Printf("  %-8s %2d/%-2d  %s (%s)\n", h.name, h.month, h.day, d, d.Time().Weekday())
	}

	// 섣달그믐 is the last day of the 12th month, 29 or 30.
	last := lunar.MonthLength(*year, 12)
	if d := lunar.LunarToSolar(*year, 12, last, false); d != nil {
		fmt.Printf("  %-8s 12/%-2d  %s (%s)\n", "섣달그믐", last, d, d.Time().Weekday())
	}
	fmt.Println()

	// ==========================================================================
	// MONTH STARTS
	// ==========================================================================
	fmt.Printf("Months (%d days):\n", summary.TotalDays)
	for _, m := range monthStarts(*year) {
		fmt.Printf("  %-5s %s  %d days\n", m.label, m.solar, m.days)
	}
}

// monthStarts lists every month of the year in order, leap month included.
func monthStarts(year int) []monthStart {
	var starts []monthStart
	for m := 1; m <= 12; m++ {
		if d := lunar.LunarToSolar(year, m, 1, false); d != nil {
			starts = append(starts, monthStart{fmt.Sprintf("%d월", m), m, false, *d, lunar.MonthLength(year, m)})
		}
		if lunar.LeapMonthIndex(year) == m {
			if d := lunar.LunarToSolar(year, m, 1, true); d != nil {
				starts = append(starts, monthStart{fmt.Sprintf("윤%d월", m), m, true, *d, lunar.LeapMonthLength(year)})
			}
		}
	}
	return starts
}

// writeCSV writes one row per day of the lunar year. Rows are counted
// forward from each month start, so the tail of 2100 that runs past the
// solar table is still written.
func writeCSV(out io.Writer, year int) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"solar", "lunar_year", "lunar_month", "lunar_day", "leap"}); err != nil {
		return err
	}

	for _, m := range monthStarts(year) {
		t := m.solar.Time()
		for day := 1; day <= m.days; day++ {
			row := []string{
				lunar.SolarDateOf(t.AddDate(0, 0, day-1)).String(),
				strconv.Itoa(year),
				strconv.Itoa(m.month),
				strconv.Itoa(day),
				strconv.FormatBool(m.leap),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}
