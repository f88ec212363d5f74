// ABOUTME: Storage backend contract for named worksheets
// ABOUTME: Implemented by the local SQLite store and the Google Sheets client
package db

import (
	"context"
	"errors"
)

var (
	// ErrTableNotFound is returned when a worksheet does not exist.
	ErrTableNotFound = errors.New("table not found")

	// ErrRecordNotFound is returned when a keyed row cannot be located.
	ErrRecordNotFound = errors.New("record not found")
)

// Backend reads and writes raw worksheet values. Rows are 1-based and row 1
// is the header, matching spreadsheet addressing.
type Backend interface {
	// Tables lists worksheet names.
	Tables(ctx context.Context) ([]string, error)

	// Values returns every row of the worksheet, header first.
	Values(ctx context.Context, table string) ([][]string, error)

	// AppendRows adds rows after the last row, creating the worksheet if needed.
	AppendRows(ctx context.Context, table string, rows [][]string) error

	// UpdateRow overwrites the cells of one row starting at the first column.
	UpdateRow(ctx context.Context, table string, row int, values []string) error

	// Replace clears the worksheet and writes rows, creating it if needed.
	Replace(ctx context.Context, table string, rows [][]string) error
}
