// ABOUTME: Google Sheets implementation of the worksheet backend
// ABOUTME: Each table is a tab; rows are read and written as formatted strings
package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/harperreed/taxdesk/db"
)

type SheetsBackend struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheetsBackend opens a spreadsheet with the given client options, e.g.
// option.WithHTTPClient or option.WithCredentialsFile for a service account.
func NewSheetsBackend(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*SheetsBackend, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id cannot be empty")
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	return &SheetsBackend{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// quoteSheet quotes a tab name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// isMissingSheet recognizes the error Sheets returns for an unknown tab.
func isMissingSheet(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
}

func (b *SheetsBackend) wrap(table string, err error) error {
	if isMissingSheet(err) {
		return fmt.Errorf("%s: %w", table, db.ErrTableNotFound)
	}
	return err
}

func (b *SheetsBackend) Tables(ctx context.Context) ([]string, error) {
	resp, err := b.svc.Spreadsheets.Get(b.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}

	names := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			names = append(names, s.Properties.Title)
		}
	}
	return names, nil
}

func (b *SheetsBackend) Values(ctx context.Context, table string) ([][]string, error) {
	resp, err := b.svc.Spreadsheets.Values.Get(b.spreadsheetID, quoteSheet(table)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, b.wrap(table, err)
	}
	return fromCells(resp.Values), nil
}

func (b *SheetsBackend) ensureSheet(ctx context.Context, table string) error {
	names, err := b.Tables(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == table {
			return nil
		}
	}

	_, err = b.svc.Spreadsheets.BatchUpdate(b.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: table}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", table, err)
	}
	return nil
}

func (b *SheetsBackend) AppendRows(ctx context.Context, table string, rows [][]string) error {
	if err := b.ensureSheet(ctx, table); err != nil {
		return err
	}
	_, err := b.svc.Spreadsheets.Values.Append(b.spreadsheetID, quoteSheet(table)+"!A1", &sheets.ValueRange{Values: toCells(rows)}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", table, err)
	}
	return nil
}

func (b *SheetsBackend) UpdateRow(ctx context.Context, table string, row int, values []string) error {
	if row < 1 {
		return fmt.Errorf("invalid row %d", row)
	}
	rng := fmt.Sprintf("%s!A%d", quoteSheet(table), row)
	_, err := b.svc.Spreadsheets.Values.Update(b.spreadsheetID, rng, &sheets.ValueRange{Values: toCells([][]string{values})}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return b.wrap(table, err)
	}
	return nil
}

func (b *SheetsBackend) Replace(ctx context.Context, table string, rows [][]string) error {
	if err := b.ensureSheet(ctx, table); err != nil {
		return err
	}
	if _, err := b.svc.Spreadsheets.Values.Clear(b.spreadsheetID, quoteSheet(table), &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil
	}
	_, err := b.svc.Spreadsheets.Values.Update(b.spreadsheetID, quoteSheet(table)+"!A1", &sheets.ValueRange{Values: toCells(rows)}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", table, err)
	}
	return nil
}

func toCells(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

func fromCells(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out
}
