// ABOUTME: Database schema definitions for the local worksheet store
// ABOUTME: Each worksheet is a set of numbered rows holding JSON-encoded cells
package db

import (
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS worksheets (
	name TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS worksheet_rows (
	worksheet TEXT NOT NULL,
	row_num INTEGER NOT NULL,
	cells TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (worksheet, row_num),
	FOREIGN KEY (worksheet) REFERENCES worksheets(name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_worksheet_rows_worksheet ON worksheet_rows(worksheet);
`

func InitSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}
