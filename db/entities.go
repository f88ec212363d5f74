// ABOUTME: Entity, service definition and assignment table operations
// ABOUTME: Maps practice-management sheets onto typed models
package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/taxdesk/models"
)

// DefaultDueDay is used when a service's Due_Day is blank or not a number.
const DefaultDueDay = 15

func (s *Store) LoadEntities(ctx context.Context) ([]models.Entity, error) {
	t, err := s.Load(ctx, models.TableEntities)
	if err != nil {
		return nil, err
	}
	cols := s.columns.Entities
	entities := make([]models.Entity, 0, len(t.Records))
	for _, rec := range t.Records {
		if rec[cols.ID] == "" {
			continue
		}
		entities = append(entities, models.Entity{
			ID:            rec[cols.ID],
			Name:          rec[cols.Name],
			Type:          rec[cols.Type],
			TaxID:         rec[cols.TaxID],
			Email:         rec[cols.Email],
			DriveFolderID: rec[cols.DriveFolderID],
		})
	}
	return entities, nil
}

// GetEntity returns the entity with id, or ErrRecordNotFound.
func (s *Store) GetEntity(ctx context.Context, id string) (*models.Entity, error) {
	entities, err := s.LoadEntities(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entities {
		if entities[i].ID == id {
			return &entities[i], nil
		}
	}
	return nil, fmt.Errorf("entity %s: %w", id, ErrRecordNotFound)
}

func (s *Store) entityRecord(e models.Entity) Record {
	cols := s.columns.Entities
	return Record{
		cols.ID:            e.ID,
		cols.Name:          e.Name,
		cols.Type:          e.Type,
		cols.TaxID:         e.TaxID,
		cols.Email:         e.Email,
		cols.DriveFolderID: e.DriveFolderID,
	}
}

// CreateEntity appends an entity, assigning an ID when it has none.
func (s *Store) CreateEntity(ctx context.Context, e *models.Entity) error {
	if e.ID == "" {
		e.ID = NewID(PrefixEntity)
	}
	return s.AppendRecords(ctx, models.TableEntities, s.columns.Entities.List(), []Record{s.entityRecord(*e)})
}

func (s *Store) UpdateEntity(ctx context.Context, e models.Entity) error {
	return s.UpdateRecord(ctx, models.TableEntities, s.columns.Entities.ID, s.entityRecord(e))
}

func (s *Store) LoadServices(ctx context.Context) ([]models.Service, error) {
	t, err := s.Load(ctx, models.TableServices)
	if err != nil {
		return nil, err
	}
	cols := s.columns.Services
	services := make([]models.Service, 0, len(t.Records))
	for _, rec := range t.Records {
		name := strings.TrimSpace(rec[cols.Name])
		if name == "" {
			continue
		}
		services = append(services, models.Service{
			Name:      name,
			Frequency: strings.TrimSpace(rec[cols.Frequency]),
			DueDay:    ParseDueDay(rec[cols.DueDay]),
			Checklist: SplitChecklist(rec[cols.Checklist]),
		})
	}
	return services, nil
}

// CreateService appends a service definition.
func (s *Store) CreateService(ctx context.Context, svc models.Service) error {
	cols := s.columns.Services
	rec := Record{
		cols.Name:      svc.Name,
		cols.Frequency: svc.Frequency,
		cols.DueDay:    strconv.Itoa(svc.DueDay),
		cols.Checklist: strings.Join(svc.Checklist, "\n"),
	}
	return s.AppendRecords(ctx, models.TableServices, cols.List(), []Record{rec})
}

func (s *Store) LoadAssignments(ctx context.Context) ([]models.Assignment, error) {
	t, err := s.Load(ctx, models.TableAssignments)
	if err != nil {
		return nil, err
	}
	cols := s.columns.Assignments
	assignments := make([]models.Assignment, 0, len(t.Records))
	for _, rec := range t.Records {
		if rec[cols.EntityID] == "" || rec[cols.ServiceName] == "" {
			continue
		}
		a := models.Assignment{
			EntityID:    rec[cols.EntityID],
			ServiceName: strings.TrimSpace(rec[cols.ServiceName]),
		}
		if start, ok := ParseDate(rec[cols.StartDate]); ok {
			a.StartDate = &start
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

// AssignService links an entity to a service.
func (s *Store) AssignService(ctx context.Context, a models.Assignment) error {
	cols := s.columns.Assignments
	rec := Record{
		cols.EntityID:    a.EntityID,
		cols.ServiceName: a.ServiceName,
		cols.StartDate:   "",
	}
	if a.StartDate != nil {
		rec[cols.StartDate] = a.StartDate.Format(models.DateLayout)
	}
	return s.AppendRecords(ctx, models.TableAssignments, cols.List(), []Record{rec})
}

// ParseDueDay reads a day-of-month cell, falling back to DefaultDueDay.
func ParseDueDay(s string) int {
	s = strings.TrimSpace(s)
	// Sheets often hands back "15.0" for numeric cells.
	s = strings.TrimSuffix(s, ".0")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 31 {
		return DefaultDueDay
	}
	return n
}

// SplitChecklist splits a newline-separated checklist cell.
func SplitChecklist(s string) []string {
	var items []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

var dateLayouts = []string{models.DateLayout, "01/02/2006", "1/2/2006"}

// ParseDate reads a civil date cell as UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// Drop any time component.
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
