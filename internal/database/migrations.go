package database

// migrationsSQL contains all database migrations, applied in version order.
var migrationsSQL = map[int]string{
	1: migrationV1Contacts,
	2: migrationV2ContactIndexes,
}

// migrationV1Contacts creates the contacts ledger.
//
// Birthdays are stored as the calendar the person celebrates in. A lunar
// birthday keeps its lunar month/day and leap flag; the solar date of the
// next celebration is computed at read time, never stored.
const migrationV1Contacts = `
CREATE TABLE IF NOT EXISTS contacts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

    name TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    relation TEXT NOT NULL DEFAULT '',

    -- 'solar' or 'lunar'
    birth_calendar TEXT NOT NULL CHECK (birth_calendar IN ('solar', 'lunar')),
    -- 0 when the birth year is unknown (lunar birthdays only)
    birth_year INTEGER NOT NULL DEFAULT 0,
    birth_month INTEGER NOT NULL CHECK (birth_month BETWEEN 1 AND 12),
    birth_day INTEGER NOT NULL CHECK (birth_day BETWEEN 1 AND 31),
    birth_is_leap INTEGER NOT NULL DEFAULT 0 CHECK (birth_is_leap IN (0, 1)),

    memo TEXT,

    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE (name, phone)
);
`

const migrationV2ContactIndexes = `
CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts(name);

CREATE INDEX IF NOT EXISTS idx_contacts_birthday
    ON contacts(birth_calendar, birth_month, birth_day);
`
