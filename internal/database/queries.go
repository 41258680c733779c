package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// Helper Functions
// =============================================================================

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Tries multiple formats and returns nil if parsing fails.
func parseTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}

	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999",
	} {
		if t, err := time.Parse(layout, ns.String); err == nil {
			return &t
		}
	}

	return nil
}

const contactColumns = `
	id, name, phone, relation,
	birth_calendar, birth_year, birth_month, birth_day, birth_is_leap,
	memo, created_at, updated_at
`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*Contact, error) {
	var c Contact
	var calendar string
	var memo, createdAt, updatedAt sql.NullString

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Phone,
		&c.Relation,
		&calendar,
		&c.BirthYear,
		&c.BirthMonth,
		&c.BirthDay,
		&c.BirthIsLeap,
		&memo,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.BirthCalendar = BirthCalendar(calendar)
	if memo.Valid {
		c.Memo = &memo.String
	}
	if t := parseTimestamp(createdAt); t != nil {
		c.CreatedAt = *t
	}
	if t := parseTimestamp(updatedAt); t != nil {
		c.UpdatedAt = *t
	}

	return &c, nil
}

// =============================================================================
// Contact Queries
// =============================================================================

// CreateContact inserts a contact and sets its ID and timestamps.
// Returns ErrDuplicate if a contact with the same name and phone exists.
func (db *DB) CreateContact(ctx context.Context, c *Contact) error {
	return createContact(ctx, db.DB, c)
}

// CreateContact inserts a contact inside the transaction.
func (tx *Tx) CreateContact(ctx context.Context, c *Contact) error {
	return createContact(ctx, tx.Tx, c)
}

func createContact(ctx context.Context, q querier, c *Contact) error {
	if !c.BirthCalendar.IsValid() {
		return fmt.Errorf("invalid birth calendar %q", c.BirthCalendar)
	}

	query := `
		INSERT INTO contacts (
			name, phone, relation,
			birth_calendar, birth_year, birth_month, birth_day, birth_is_leap,
			memo
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := q.ExecContext(ctx, query,
		c.Name,
		c.Phone,
		c.Relation,
		string(c.BirthCalendar),
		c.BirthYear,
		c.BirthMonth,
		c.BirthDay,
		c.BirthIsLeap,
		c.Memo,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert contact: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get contact id: %w", err)
	}
	c.ID = id

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	return nil
}

// GetContact retrieves a contact by ID.
// Returns ErrNotFound if no such contact exists.
func (db *DB) GetContact(ctx context.Context, id int64) (*Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`

	c, err := scanContact(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query contact: %w", err)
	}

	return c, nil
}

// ListContacts returns contacts ordered by name, paginated.
func (db *DB) ListContacts(ctx context.Context, limit, offset int) ([]Contact, error) {
	query := `SELECT ` + contactColumns + `
		FROM contacts
		ORDER BY name ASC, id ASC
		LIMIT ? OFFSET ?`

	return db.queryContacts(ctx, query, limit, offset)
}

// AllContacts returns every contact ordered by name.
func (db *DB) AllContacts(ctx context.Context) ([]Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts ORDER BY name ASC, id ASC`
	return db.queryContacts(ctx, query)
}

func (db *DB) queryContacts(ctx context.Context, query string, args ...any) ([]Contact, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	contacts := []Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact row: %w", err)
		}
		contacts = append(contacts, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact rows: %w", err)
	}

	return contacts, nil
}

// UpdateContact overwrites every editable field of an existing contact.
// Returns ErrNotFound if the contact doesn't exist and ErrDuplicate if the
// new name and phone collide with another contact.
func (db *DB) UpdateContact(ctx context.Context, c *Contact) error {
	if !c.BirthCalendar.IsValid() {
		return fmt.Errorf("invalid birth calendar %q", c.BirthCalendar)
	}

	query := `
		UPDATE contacts SET
			name = ?,
			phone = ?,
			relation = ?,
			birth_calendar = ?,
			birth_year = ?,
			birth_month = ?,
			birth_day = ?,
			birth_is_leap = ?,
			memo = ?,
			updated_at = datetime('now')
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query,
		c.Name,
		c.Phone,
		c.Relation,
		string(c.BirthCalendar),
		c.BirthYear,
		c.BirthMonth,
		c.BirthDay,
		c.BirthIsLeap,
		c.Memo,
		c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	c.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteContact removes a contact by ID.
// Returns ErrNotFound if the contact doesn't exist.
func (db *DB) DeleteContact(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// CountContacts returns the number of contacts in the ledger.
func (db *DB) CountContacts(ctx context.Context) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return count, nil
}
