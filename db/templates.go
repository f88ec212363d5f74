// ABOUTME: Template, reference and app log table operations
// ABOUTME: Optional tables fall back to empty placeholders instead of failing
package db

import (
	"context"
	"strings"

	"github.com/harperreed/taxdesk/models"
)

// LoadTemplates never fails; a missing or unreadable sheet yields none.
func (s *Store) LoadTemplates(ctx context.Context) []models.Template {
	t := s.LoadOptional(ctx, models.TableTemplates)
	cols := s.columns.Templates
	templates := make([]models.Template, 0, len(t.Records))
	for _, rec := range t.Records {
		if strings.TrimSpace(rec[cols.Type]) == "" {
			continue
		}
		templates = append(templates, models.Template{
			Type:    strings.TrimSpace(rec[cols.Type]),
			Subject: rec[cols.Subject],
			Body:    rec[cols.Body],
		})
	}
	return templates
}

// LoadReference returns the free-form Reference table, empty on failure.
func (s *Store) LoadReference(ctx context.Context) *Table {
	return s.LoadOptional(ctx, models.TableReference)
}

func (s *Store) LoadAppLog(ctx context.Context) ([]models.AppLogEntry, error) {
	t, err := s.Load(ctx, models.TableAppLogs)
	if err != nil {
		return nil, err
	}
	cols := s.columns.AppLogs
	entries := make([]models.AppLogEntry, 0, len(t.Records))
	for _, rec := range t.Records {
		entries = append(entries, models.AppLogEntry{
			Timestamp: rec[cols.Timestamp],
			Action:    rec[cols.Action],
			Detail:    rec[cols.Detail],
		})
	}
	return entries, nil
}

// AppendAppLog records one action, stamping it with the store clock when the
// entry has no timestamp.
func (s *Store) AppendAppLog(ctx context.Context, entry models.AppLogEntry) error {
	if entry.Timestamp == "" {
		entry.Timestamp = s.now().Format(models.TimestampLayout)
	}
	cols := s.columns.AppLogs
	rec := Record{
		cols.Timestamp: entry.Timestamp,
		cols.Action:    entry.Action,
		cols.Detail:    entry.Detail,
	}
	return s.AppendRecords(ctx, models.TableAppLogs, cols.List(), []Record{rec})
}
