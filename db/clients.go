// ABOUTME: Client table operations
// ABOUTME: Loads clients with tracked-column backfill and saves single rows by ID
package db

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harperreed/taxdesk/models"
)

// LoadClientTable loads the Clients table and applies its invariants: tracked
// columns exist (empty by default) and a blank Status reads as "New". Fully
// blank rows are left untouched.
func (s *Store) LoadClientTable(ctx context.Context) (*Table, error) {
	t, err := s.Load(ctx, models.TableClients)
	if err != nil {
		return nil, err
	}

	cols := s.columns.Clients
	if len(t.Columns) > 0 {
		if missing := MissingColumns(t.Columns, cols.List()); len(missing) > 0 {
			s.logger.Debug("client columns synthesized", zap.Strings("columns", missing))
		}
	}
	t.EnsureColumns(cols.Tracked()...)

	for _, rec := range t.Records {
		if isBlankRecord(rec) {
			continue
		}
		if strings.TrimSpace(rec[cols.Status]) == "" {
			rec[cols.Status] = models.StatusNew
		}
	}

	return t, nil
}

// LoadClients returns every client in table order, skipping blank rows. Rows
// without an ID are given one and the table is written back once so later
// row updates can address them.
func (s *Store) LoadClients(ctx context.Context) ([]models.Client, error) {
	t, err := s.LoadClientTable(ctx)
	if err != nil {
		return nil, err
	}

	idCol := s.columns.Clients.ID
	assigned := 0
	for _, rec := range t.Records {
		if strings.TrimSpace(rec[idCol]) == "" && !isBlankRecord(rec) {
			rec[idCol] = NewID(PrefixClient)
			assigned++
		}
	}

	if assigned > 0 {
		s.logger.Info("assigning client IDs", zap.Int("count", assigned))
		if err := s.Save(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to backfill client IDs: %w", err)
		}
	}

	clients := make([]models.Client, 0, len(t.Records))
	for _, rec := range t.Records {
		if rec[idCol] == "" || isBlankRecord(rec) {
			continue
		}
		clients = append(clients, ClientFromRecord(rec, s.columns.Clients))
	}
	return clients, nil
}

// GetClient returns the client with id, or ErrRecordNotFound.
func (s *Store) GetClient(ctx context.Context, id string) (*models.Client, error) {
	clients, err := s.LoadClients(ctx)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		if clients[i].ID == id {
			return &clients[i], nil
		}
	}
	return nil, fmt.Errorf("client %s: %w", id, ErrRecordNotFound)
}

// SaveClient patches the client's row in place.
func (s *Store) SaveClient(ctx context.Context, c models.Client) error {
	rec := ClientToRecord(c, s.columns.Clients)
	return s.UpdateRecord(ctx, models.TableClients, s.columns.Clients.ID, rec)
}

// CreateClient appends a new client row.
func (s *Store) CreateClient(ctx context.Context, c *models.Client) error {
	if c.ID == "" {
		c.ID = NewID(PrefixClient)
	}
	if c.Status == "" {
		c.Status = models.StatusNew
	}
	rec := ClientToRecord(*c, s.columns.Clients)
	return s.AppendRecords(ctx, models.TableClients, s.columns.Clients.List(), []Record{rec})
}

// ClientFromRecord maps a row onto a Client using the declared columns.
func ClientFromRecord(rec Record, cols ClientColumns) models.Client {
	c := models.Client{
		ID:              rec[cols.ID],
		Name:            rec[cols.Name],
		FirstName:       rec[cols.FirstName],
		LastName:        rec[cols.LastName],
		SpouseFirstName: rec[cols.SpouseFirstName],
		SpouseLastName:  rec[cols.SpouseLastName],
		Phone:           rec[cols.Phone],
		Email:           rec[cols.Email],
		SpouseEmail:     rec[cols.SpouseEmail],
		Gender:          rec[cols.Gender],
		Status:          rec[cols.Status],
		Outcome:         rec[cols.Outcome],
		InternalFlag:    ParseFlag(rec[cols.InternalFlag]),
		Notes:           rec[cols.Notes],
		LastAgent:       rec[cols.LastAgent],
		LastUpdated:     rec[cols.LastUpdated],
		Extra:           map[string]string{},
	}

	mapped := make(map[string]bool)
	for _, col := range cols.List() {
		mapped[col] = true
	}
	for k, v := range rec {
		if !mapped[k] {
			c.Extra[k] = v
		}
	}
	return c
}

// ClientToRecord is the inverse of ClientFromRecord.
func ClientToRecord(c models.Client, cols ClientColumns) Record {
	rec := make(Record, len(c.Extra)+16)
	for k, v := range c.Extra {
		rec[k] = v
	}
	rec[cols.ID] = c.ID
	rec[cols.Name] = c.Name
	rec[cols.FirstName] = c.FirstName
	rec[cols.LastName] = c.LastName
	rec[cols.SpouseFirstName] = c.SpouseFirstName
	rec[cols.SpouseLastName] = c.SpouseLastName
	rec[cols.Phone] = c.Phone
	rec[cols.Email] = c.Email
	rec[cols.SpouseEmail] = c.SpouseEmail
	rec[cols.Gender] = c.Gender
	rec[cols.Status] = c.Status
	rec[cols.Outcome] = c.Outcome
	rec[cols.InternalFlag] = FormatFlag(c.InternalFlag)
	rec[cols.Notes] = c.Notes
	rec[cols.LastAgent] = c.LastAgent
	rec[cols.LastUpdated] = c.LastUpdated
	return rec
}

// ParseFlag reads a spreadsheet boolean.
func ParseFlag(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE", "YES", "1", "Y":
		return true
	}
	return false
}

// FormatFlag writes a spreadsheet boolean.
func FormatFlag(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func isBlankRecord(rec Record) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
