// ABOUTME: Tests for database schema creation
// ABOUTME: Uses in-memory SQLite for fast isolated tests
package db

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSchema(t *testing.T) {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, InitSchema(db))

	for _, table := range []string{"worksheets", "worksheet_rows"} {
		var name string
		err := db.Get(&name, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table)
		assert.NoError(t, err, "table %s not found", table)
	}

	var idx string
	err = db.Get(&idx, "SELECT name FROM sqlite_master WHERE type='index' AND name='idx_worksheet_rows_worksheet'")
	assert.NoError(t, err)

	// Idempotent
	assert.NoError(t, InitSchema(db))
}
