package quotecache

import (
	"database/sql"
	"fmt"
)

// schema is the single source of truth for the quote cache database.
// Every table has the same shape: symbol key, JSON blob, unix expiry.
const schema = `
CREATE TABLE IF NOT EXISTS stock_quotes (
    symbol     TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS option_quotes (
    symbol     TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS option_details (
    symbol     TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stock_quotes_expires ON stock_quotes(expires_at);
CREATE INDEX IF NOT EXISTS idx_option_quotes_expires ON option_quotes(expires_at);
CREATE INDEX IF NOT EXISTS idx_option_details_expires ON option_details(expires_at);
`

// Migrate applies the cache schema. Safe to call on every startup.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply quote cache schema: %w", err)
	}
	return nil
}
