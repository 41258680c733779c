package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/lunar-ledger/internal/database"
	"github.com/zapponejosh/lunar-ledger/internal/ledger"
	"github.com/zapponejosh/lunar-ledger/internal/lunar"
)

// cli carries state shared by every subcommand.
type cli struct {
	now      func() time.Time
	jsonOut  bool
	leap     bool
	calendar string
	from     string
	years    int
}

func newRootCmd(now func() time.Time) *cobra.Command {
	c := &cli{now: now}

	root := &cobra.Command{
		Use:           "lunar",
		Short:         "Korean lunar calendar converter (1900-2100)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print JSON instead of text")

	toLunar := &cobra.Command{
		Use:   "to-lunar YYYY-MM-DD",
		Short: "Convert a solar date to the lunar calendar",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runToLunar,
	}

	toSolar := &cobra.Command{
		Use:   "to-solar YYYY-MM-DD",
		Short: "Convert a lunar date to the solar calendar",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runToSolar,
	}
	toSolar.Flags().BoolVar(&c.leap, "leap", false, "the date is in the leap month")

	year := &cobra.Command{
		Use:   "year YYYY",
		Short: "Show the month structure of a lunar year",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runYear,
	}

	next := &cobra.Command{
		Use:   "next MM-DD",
		Short: "Find the next solar date of a lunar month and day",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runNext,
	}
	next.Flags().BoolVar(&c.leap, "leap", false, "the date is in the leap month")
	next.Flags().StringVar(&c.from, "from", "", "count from this solar date instead of today (YYYY-MM-DD)")

	lifeclock := &cobra.Command{
		Use:   "lifeclock YYYY-MM-DD",
		Short: "Show days lived and remaining for a birth date",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runLifeClock,
	}
	lifeclock.Flags().StringVar(&c.calendar, "calendar", string(database.CalendarSolar), "calendar of the birth date (solar or lunar)")
	lifeclock.Flags().BoolVar(&c.leap, "leap", false, "the lunar birth date is in the leap month")
	lifeclock.Flags().IntVar(&c.years, "expectancy", 83, "life expectancy in years")
	lifeclock.Flags().StringVar(&c.from, "from", "", "measure as of this solar date instead of today (YYYY-MM-DD)")

	root.AddCommand(toLunar, toSolar, year, next, lifeclock)
	return root
}

func (c *cli) runToLunar(cmd *cobra.Command, args []string) error {
	y, m, d, err := ledger.ParseDate(args[0])
	if err != nil {
		return err
	}

	ld := lunar.SolarToLunar(y, m, d)
	if ld == nil {
		return fmt.Errorf("solar date %s does not exist or is outside 1900-01-31..2100-12-31", args[0])
	}

	if c.jsonOut {
		return writeJSON(cmd.OutOrStdout(), ld)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  음력 %d년 %s  %s\n", args[0], ld.Year, ld.MonthLabel, ld.StemBranch)
	return nil
}

func (c *cli) runToSolar(cmd *cobra.Command, args []string) error {
	y, m, d, err := ledger.ParseDate(args[0])
	if err != nil {
		return err
	}

	sd := lunar.LunarToSolar(y, m, d, c.leap)
	if sd == nil {
		return fmt.Errorf("lunar date %s (leap=%v) does not exist", args[0], c.leap)
	}

	if c.jsonOut {
		return writeJSON(cmd.OutOrStdout(), sd)
	}
	fmt.Fprintln(cmd.OutOrStdout(), sd.String())
	return nil
}

func (c *cli) runYear(cmd *cobra.Command, args []string) error {
	y, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid year %q", args[0])
	}

	summary, ok := lunar.YearInfo(y)
	if !ok {
		return fmt.Errorf("year %d is outside %d-%d", y, lunar.MinYear, lunar.MaxYear)
	}

	if c.jsonOut {
		return writeJSON(cmd.OutOrStdout(), summary)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d %s, %d days\n", summary.Year, summary.StemBranch, summary.TotalDays)
	for i, days := range summary.MonthDays {
		fmt.Fprintf(out, "  %2d월  %d\n", i+1, days)
		if summary.LeapMonth == i+1 {
			fmt.Fprintf(out, "  윤%d월 %d\n", i+1, summary.LeapMonthDays)
		}
	}
	return nil
}

func (c *cli) runNext(cmd *cobra.Command, args []string) error {
	m, d, err := parseMonthDay(args[0])
	if err != nil {
		return err
	}

	today, err := c.today()
	if err != nil {
		return err
	}

	next := lunar.NextOccurrence(today, m, d, c.leap)
	if next == nil {
		return fmt.Errorf("lunar %d/%d (leap=%v) does not occur within the next year", m, d, c.leap)
	}
	daysUntil := ledger.DaysBetween(lunar.SolarDateOf(today), *next)

	if c.jsonOut {
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
			"date":       next.String(),
			"days_until": daysUntil,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  D-%d\n", next, daysUntil)
	return nil
}

func (c *cli) runLifeClock(cmd *cobra.Command, args []string) error {
	y, m, d, err := ledger.ParseDate(args[0])
	if err != nil {
		return err
	}

	cal := database.BirthCalendar(c.calendar)
	if !cal.IsValid() {
		return fmt.Errorf("calendar must be solar or lunar, got %q", c.calendar)
	}

	today, err := c.today()
	if err != nil {
		return err
	}

	b := ledger.Birthday{Calendar: cal, Year: y, Month: m, Day: d, IsLeapMonth: c.leap}
	clock, err := ledger.NewLifeClock(today, b, c.years)
	if err != nil {
		return err
	}

	if c.jsonOut {
		return writeJSON(cmd.OutOrStdout(), clock)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "born       %s (%s)\n", clock.Birth, clock.BirthLunar)
	fmt.Fprintf(out, "age        %d\n", clock.Age)
	fmt.Fprintf(out, "lived      %d days (%.2f%%)\n", clock.DaysLived, clock.PercentLived)
	fmt.Fprintf(out, "remaining  %d days of %d years\n", clock.DaysRemaining, clock.ExpectancyYears)
	fmt.Fprintf(out, "birthday   %s  D-%d\n", clock.NextBirthday.Date, clock.NextBirthday.DaysUntil)
	return nil
}

// today returns --from when given, otherwise the clock's date.
func (c *cli) today() (time.Time, error) {
	if c.from == "" {
		return c.now(), nil
	}
	t, err := time.Parse("2006-01-02", c.from)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --from date %q: use YYYY-MM-DD", c.from)
	}
	return t, nil
}

func parseMonthDay(s string) (month, day int, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("date %q is not MM-DD", s)
	}
	month, err = strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month in %q must be 1-12", s)
	}
	day, err = strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 30 {
		return 0, 0, fmt.Errorf("day in %q must be 1-30", s)
	}
	return month, day, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
