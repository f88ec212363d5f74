// ABOUTME: Practice management operations over entities, services and tasks
// ABOUTME: Validates input and keeps Drive folders and checklist state in step
package practice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
)

var (
	ErrInvalidToken     = errors.New("upload link is invalid or expired")
	ErrAlreadyAssigned  = errors.New("service already assigned to entity")
	ErrUnknownService   = errors.New("unknown service")
	ErrFilesUnavailable = errors.New("file storage is not configured")
)

// FileStore creates folders and stores uploaded files.
type FileStore interface {
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	Upload(ctx context.Context, folderID, name, mimeType string, r io.Reader) (string, error)
}

type Service struct {
	store       *db.Store
	files       FileStore
	uploadsRoot string
	logger      *zap.Logger
}

// NewService builds the practice service. files may be nil, in which case
// folders are not created and uploads fail with ErrFilesUnavailable.
func NewService(store *db.Store, files FileStore, uploadsRoot string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, files: files, uploadsRoot: uploadsRoot, logger: logger}
}

func (s *Service) Entities(ctx context.Context) ([]models.Entity, error) {
	entities, err := s.store.LoadEntities(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entities, func(i, j int) bool {
		return strings.ToLower(entities[i].Name) < strings.ToLower(entities[j].Name)
	})
	return entities, nil
}

func (s *Service) Services(ctx context.Context) ([]models.Service, error) {
	return s.store.LoadServices(ctx)
}

// CreateEntity validates and stores an entity, creating its Drive folder when
// withFolder is set and file storage is available.
func (s *Service) CreateEntity(ctx context.Context, e *models.Entity, withFolder bool) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return fmt.Errorf("entity name is required")
	}
	if e.Type == "" {
		e.Type = models.EntityIndividual
	}
	if !slices.Contains(models.EntityTypes, e.Type) {
		return fmt.Errorf("invalid entity type %q", e.Type)
	}

	if withFolder && s.files != nil && e.DriveFolderID == "" {
		id, err := s.files.CreateFolder(ctx, e.Name, s.uploadsRoot)
		if err != nil {
			return fmt.Errorf("failed to create folder for %s: %w", e.Name, err)
		}
		e.DriveFolderID = id
	}

	if err := s.store.CreateEntity(ctx, e); err != nil {
		return err
	}
	s.logger.Info("entity created", zap.String("entity", e.ID), zap.String("name", e.Name))
	return nil
}

// CreateService validates and stores a service definition.
func (s *Service) CreateService(ctx context.Context, svc models.Service) error {
	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if _, ok := DefaultRules().NextDueDate(svc, s.store.Now()); !ok {
		return fmt.Errorf("invalid frequency %q", svc.Frequency)
	}
	if svc.DueDay == 0 {
		svc.DueDay = db.DefaultDueDay
	}
	if svc.DueDay < 1 || svc.DueDay > 31 {
		return fmt.Errorf("due day must be between 1 and 31, got %d", svc.DueDay)
	}

	existing, err := s.store.LoadServices(ctx)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if strings.EqualFold(e.Name, svc.Name) {
			return fmt.Errorf("service %q already exists", svc.Name)
		}
	}
	return s.store.CreateService(ctx, svc)
}

// AssignService links an entity to a service once.
func (s *Service) AssignService(ctx context.Context, a models.Assignment) error {
	if _, err := s.store.GetEntity(ctx, a.EntityID); err != nil {
		return err
	}

	services, err := s.store.LoadServices(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(services, func(svc models.Service) bool { return svc.Name == a.ServiceName }) {
		return fmt.Errorf("%q: %w", a.ServiceName, ErrUnknownService)
	}

	assignments, err := s.store.LoadAssignments(ctx)
	if err != nil {
		return err
	}
	for _, existing := range assignments {
		if existing.EntityID == a.EntityID && existing.ServiceName == a.ServiceName {
			return ErrAlreadyAssigned
		}
	}
	return s.store.AssignService(ctx, a)
}

// TaskView is a task joined with its entity name.
type TaskView struct {
	models.Task
	EntityName string
}

// TaskFilter narrows ListTasks. Zero values match everything.
type TaskFilter struct {
	EntityID string
	Status   string
	OpenOnly bool
}

// ListTasks returns matching tasks ordered by due date.
func (s *Service) ListTasks(ctx context.Context, f TaskFilter) ([]TaskView, error) {
	tasks, err := s.store.LoadTasks(ctx)
	if err != nil {
		return nil, err
	}
	entities, err := s.store.LoadEntities(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(entities))
	for _, e := range entities {
		names[e.ID] = e.Name
	}

	var out []TaskView
	for _, t := range tasks {
		if f.EntityID != "" && t.EntityID != f.EntityID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.OpenOnly && t.Status == models.TaskCompleted {
			continue
		}
		out = append(out, TaskView{Task: t, EntityName: names[t.EntityID]})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out, nil
}

// TaskUpdate carries staff edits to a task. Nil fields are unchanged.
type TaskUpdate struct {
	Status             *string
	InternalNotes      *string
	ClientInstructions *string
	// Checklist replaces the completed items when non-nil.
	Checklist []string
}

func (s *Service) UpdateTask(ctx context.Context, id string, u TaskUpdate) (*models.Task, error) {
	s.store.Invalidate(models.TableTasks)
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.Status != nil {
		if !slices.Contains(models.TaskStatuses, *u.Status) {
			return nil, fmt.Errorf("invalid task status %q", *u.Status)
		}
		task.Status = *u.Status
	}
	if u.InternalNotes != nil {
		task.InternalNotes = *u.InternalNotes
	}
	if u.ClientInstructions != nil {
		task.ClientInstructions = *u.ClientInstructions
	}
	if u.Checklist != nil {
		task.Checklist = u.Checklist
	}

	if err := s.store.UpdateTask(ctx, *task); err != nil {
		return nil, err
	}
	return task, nil
}

// ChecklistItem is one line of a service checklist with its completion state.
type ChecklistItem struct {
	Text string
	Done bool
}

// Checklist merges the service's checklist with the task's completed items.
func (s *Service) Checklist(ctx context.Context, task models.Task) ([]ChecklistItem, error) {
	services, err := s.store.LoadServices(ctx)
	if err != nil {
		return nil, err
	}

	var items []ChecklistItem
	for _, svc := range services {
		if svc.Name != task.ServiceName {
			continue
		}
		for _, text := range svc.Checklist {
			items = append(items, ChecklistItem{Text: text, Done: slices.Contains(task.Checklist, text)})
		}
		break
	}
	return items, nil
}
