// Command import loads a JSON contacts export into the SQLite ledger.
//
// Usage:
//
//	go run ./cmd/import -json data/contacts.json -db data/ledger.db
//
// This tool:
// 1. Parses the export file
// 2. Creates/opens the SQLite database and runs migrations
// 3. Validates every birthday against its calendar
// 4. Imports all contacts in a single transaction
//
// One bad or duplicate contact rolls back the whole import unless -skip-invalid
// is set, in which case invalid birthdays are logged and skipped. Duplicates
// always abort.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zapponejosh/lunar-ledger/internal/database"
	"github.com/zapponejosh/lunar-ledger/internal/ledger"
)

func main() {
	// Parse command line flags
	jsonPath := flag.String("json", "data/contacts.json", "Path to contacts export file")
	dbPath := flag.String("db", "data/ledger.db", "Path to SQLite database")
	skipInvalid := flag.Bool("skip-invalid", false, "Skip contacts with invalid birthdays instead of aborting")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if err := run(*jsonPath, *dbPath, *skipInvalid, logger); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import complete")
}

func run(jsonPath, dbPath string, skipInvalid bool, logger *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	// =========================================================================
	// Step 1: Read and parse JSON
	// =========================================================================
	logger.Info("reading JSON file", slog.String("path", jsonPath))

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("read JSON file: %w", err)
	}

	var importData database.ImportData
	if err := json.Unmarshal(data, &importData); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}

	logger.Info("parsed JSON",
		slog.Int("contacts", len(importData.Contacts)),
		slog.Int("version", importData.Version),
	)

	// =========================================================================
	// Step 2: Open database and run migrations
	// =========================================================================
	logger.Info("opening database", slog.String("path", dbPath))

	db, err := database.Open(database.DefaultConfig(dbPath), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete", slog.Int("applied", migrated))

	// =========================================================================
	// Step 3: Import data in a transaction
	// =========================================================================
	logger.Info("starting import")

	var stats ImportStats
	err = db.WithTx(ctx, func(tx *database.Tx) error {
		return importContacts(ctx, tx, importData.Contacts, skipInvalid, logger, &stats)
	})
	if err != nil {
		return fmt.Errorf("import data: %w", err)
	}

	// =========================================================================
	// Step 4: Verify import
	// =========================================================================
	total, err := db.CountContacts(ctx)
	if err != nil {
		return fmt.Errorf("count contacts: %w", err)
	}

	elapsed := time.Since(startTime)

	logger.Info("import verified",
		slog.Int("contacts_in_db", total),
		slog.Duration("elapsed", elapsed),
	)

	// Print summary
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("Contacts imported:   %d\n", stats.Imported)
	fmt.Printf("  solar birthdays:   %d\n", stats.Solar)
	fmt.Printf("  lunar birthdays:   %d\n", stats.Lunar)
	fmt.Printf("  leap-month:        %d\n", stats.LeapMonth)
	fmt.Printf("Skipped (invalid):   %d\n", stats.Skipped)
	fmt.Printf("Contacts in DB:      %d\n", total)
	fmt.Printf("Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}

// ImportStats tracks import statistics.
type ImportStats struct {
	Imported  int
	Solar     int
	Lunar     int
	LeapMonth int
	Skipped   int
}

// importContacts validates and inserts every contact.
func importContacts(ctx context.Context, tx *database.Tx, contacts []database.ImportContact, skipInvalid bool, logger *slog.Logger, stats *ImportStats) error {
	for i, ic := range contacts {
		c, err := toContact(ic)
		if err != nil {
			if skipInvalid {
				logger.Warn("skipping contact",
					slog.Int("index", i),
					slog.String("name", ic.Name),
					slog.Any("error", err))
				stats.Skipped++
				continue
			}
			return fmt.Errorf("contact %d (%s): %w", i+1, ic.Name, err)
		}

		if err := tx.CreateContact(ctx, c); err != nil {
			return fmt.Errorf("create contact %d (%s): %w", i+1, ic.Name, err)
		}

		stats.Imported++
		if c.BirthCalendar == database.CalendarLunar {
			stats.Lunar++
		} else {
			stats.Solar++
		}
		if c.BirthIsLeap {
			stats.LeapMonth++
		}

		logger.Debug("imported contact",
			slog.Int64("id", c.ID),
			slog.String("name", c.Name),
			slog.String("calendar", string(c.BirthCalendar)),
		)
	}

	return nil
}

// toContact maps an export record onto a contact row. An empty calendar
// means solar.
func toContact(ic database.ImportContact) (*database.Contact, error) {
	year, month, day, err := ledger.ParseDate(ic.Birthday)
	if err != nil {
		return nil, err
	}

	cal := database.CalendarSolar
	if ic.Calendar != "" {
		cal = database.BirthCalendar(ic.Calendar)
	}

	b := ledger.Birthday{
		Calendar:    cal,
		Year:        year,
		Month:       month,
		Day:         day,
		IsLeapMonth: ic.IsLeap,
	}
	return b.Contact(ic.Name, ic.Phone, ic.Relation, ic.Memo)
}
