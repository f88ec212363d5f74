// ABOUTME: SQLite implementation of the worksheet backend
// ABOUTME: Stores rows as JSON cell arrays so any header layout round-trips
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLiteBackend keeps worksheets in a local SQLite file.
type SQLiteBackend struct {
	db *sqlx.DB
}

func NewSQLiteBackend(database *sqlx.DB) *SQLiteBackend {
	return &SQLiteBackend{db: database}
}

type worksheetRow struct {
	RowNum int    `db:"row_num"`
	Cells  string `db:"cells"`
}

func (b *SQLiteBackend) Tables(ctx context.Context) ([]string, error) {
	var names []string
	if err := b.db.SelectContext(ctx, &names, `SELECT name FROM worksheets ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list worksheets: %w", err)
	}
	return names, nil
}

func (b *SQLiteBackend) exists(ctx context.Context, q sqlx.QueryerContext, table string) (bool, error) {
	var name string
	err := sqlx.GetContext(ctx, q, &name, `SELECT name FROM worksheets WHERE name = ?`, table)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (b *SQLiteBackend) Values(ctx context.Context, table string) ([][]string, error) {
	ok, err := b.exists(ctx, b.db, table)
	if err != nil {
		return nil, fmt.Errorf("failed to check worksheet %s: %w", table, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}

	var rows []worksheetRow
	err = b.db.SelectContext(ctx, &rows, `
		SELECT row_num, cells FROM worksheet_rows
		WHERE worksheet = ?
		ORDER BY row_num
	`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", table, err)
	}

	var values [][]string
	next := 1
	for _, r := range rows {
		// Gaps left by sparse updates read back as blank rows.
		for ; next < r.RowNum; next++ {
			values = append(values, []string{})
		}
		var cells []string
		if err := json.Unmarshal([]byte(r.Cells), &cells); err != nil {
			return nil, fmt.Errorf("failed to decode row %d of %s: %w", r.RowNum, table, err)
		}
		values = append(values, cells)
		next = r.RowNum + 1
	}

	return values, nil
}

func (b *SQLiteBackend) ensureWorksheet(ctx context.Context, tx *sqlx.Tx, table string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO worksheets (name) VALUES (?)`, table)
	return err
}

func (b *SQLiteBackend) AppendRows(ctx context.Context, table string, rows [][]string) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	if err := b.ensureWorksheet(ctx, tx, table); err != nil {
		return fmt.Errorf("failed to create worksheet %s: %w", table, err)
	}

	var last sql.NullInt64
	if err := tx.GetContext(ctx, &last, `SELECT MAX(row_num) FROM worksheet_rows WHERE worksheet = ?`, table); err != nil {
		return fmt.Errorf("failed to find last row of %s: %w", table, err)
	}

	next := int(last.Int64) + 1
	for _, row := range rows {
		if err := insertRow(ctx, tx, table, next, row); err != nil {
			return err
		}
		next++
	}

	return tx.Commit()
}

func (b *SQLiteBackend) UpdateRow(ctx context.Context, table string, row int, values []string) error {
	if row < 1 {
		return fmt.Errorf("invalid row %d", row)
	}

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ok, err := b.exists(ctx, tx, table)
	if err != nil {
		return fmt.Errorf("failed to check worksheet %s: %w", table, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}

	// Patch semantics: cells beyond len(values) keep their current content.
	var current string
	err = tx.GetContext(ctx, &current, `SELECT cells FROM worksheet_rows WHERE worksheet = ? AND row_num = ?`, table, row)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read row %d of %s: %w", row, table, err)
	}

	var cells []string
	if current != "" {
		if err := json.Unmarshal([]byte(current), &cells); err != nil {
			return fmt.Errorf("failed to decode row %d of %s: %w", row, table, err)
		}
	}
	for len(cells) < len(values) {
		cells = append(cells, "")
	}
	copy(cells, values)

	encoded, err := json.Marshal(cells)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO worksheet_rows (worksheet, row_num, cells, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(worksheet, row_num) DO UPDATE SET
			cells = excluded.cells,
			updated_at = CURRENT_TIMESTAMP
	`, table, row, string(encoded))
	if err != nil {
		return fmt.Errorf("failed to update row %d of %s: %w", row, table, err)
	}

	return tx.Commit()
}

func (b *SQLiteBackend) Replace(ctx context.Context, table string, rows [][]string) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := b.ensureWorksheet(ctx, tx, table); err != nil {
		return fmt.Errorf("failed to create worksheet %s: %w", table, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM worksheet_rows WHERE worksheet = ?`, table); err != nil {
		return fmt.Errorf("failed to clear worksheet %s: %w", table, err)
	}

	for i, row := range rows {
		if err := insertRow(ctx, tx, table, i+1, row); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertRow(ctx context.Context, tx *sqlx.Tx, table string, rowNum int, row []string) error {
	if row == nil {
		row = []string{}
	}
	encoded, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO worksheet_rows (worksheet, row_num, cells) VALUES (?, ?, ?)
	`, table, rowNum, string(encoded))
	if err != nil {
		return fmt.Errorf("failed to insert row %d of %s: %w", rowNum, table, err)
	}
	return nil
}
