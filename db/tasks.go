// ABOUTME: Task table operations
// ABOUTME: Loads, appends and patches generated tasks including checklist state
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harperreed/taxdesk/models"
)

func (s *Store) LoadTasks(ctx context.Context) ([]models.Task, error) {
	t, err := s.Load(ctx, models.TableTasks)
	if err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0, len(t.Records))
	for _, rec := range t.Records {
		if rec[s.columns.Tasks.ID] == "" {
			continue
		}
		tasks = append(tasks, s.taskFromRecord(rec))
	}
	return tasks, nil
}

// GetTask returns the task with id, or ErrRecordNotFound.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	tasks, err := s.LoadTasks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
	}
	return nil, fmt.Errorf("task %s: %w", id, ErrRecordNotFound)
}

// AppendTasks writes new tasks in one append call.
func (s *Store) AppendTasks(ctx context.Context, tasks []models.Task) error {
	recs := make([]Record, 0, len(tasks))
	for _, task := range tasks {
		recs = append(recs, s.taskRecord(task))
	}
	return s.AppendRecords(ctx, models.TableTasks, s.columns.Tasks.List(), recs)
}

// UpdateTask patches the task's row.
func (s *Store) UpdateTask(ctx context.Context, task models.Task) error {
	return s.UpdateRecord(ctx, models.TableTasks, s.columns.Tasks.ID, s.taskRecord(task))
}

func (s *Store) taskFromRecord(rec Record) models.Task {
	cols := s.columns.Tasks
	task := models.Task{
		ID:                 rec[cols.ID],
		EntityID:           rec[cols.EntityID],
		ServiceName:        strings.TrimSpace(rec[cols.ServiceName]),
		Status:             rec[cols.Status],
		UploadToken:        rec[cols.UploadToken],
		ClientInstructions: rec[cols.ClientInstructions],
		InternalNotes:      rec[cols.InternalNotes],
		CreatedAt:          rec[cols.CreatedAt],
	}
	if due, ok := ParseDate(rec[cols.DueDate]); ok {
		task.DueDate = due
	} else if raw := strings.TrimSpace(rec[cols.DueDate]); raw != "" {
		s.logger.Warn("keeping unreadable due date as text",
			zap.String("task", task.ID), zap.String("due_date", raw))
		task.DueDateRaw = raw
	}
	if task.Status == "" {
		task.Status = models.TaskNotStarted
	}
	if raw := strings.TrimSpace(rec[cols.ChecklistState]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &task.Checklist); err != nil {
			s.logger.Warn("ignoring malformed checklist state",
				zap.String("task", task.ID), zap.Error(err))
			task.Checklist = nil
		}
	}
	return task
}

func (s *Store) taskRecord(task models.Task) Record {
	cols := s.columns.Tasks
	rec := Record{
		cols.ID:                 task.ID,
		cols.EntityID:           task.EntityID,
		cols.ServiceName:        task.ServiceName,
		cols.Status:             task.Status,
		cols.UploadToken:        task.UploadToken,
		cols.ClientInstructions: task.ClientInstructions,
		cols.InternalNotes:      task.InternalNotes,
		cols.ChecklistState:     EncodeChecklist(task.Checklist),
		cols.CreatedAt:          task.CreatedAt,
		cols.DueDate:            task.DueDateRaw,
	}
	if !task.DueDate.IsZero() {
		rec[cols.DueDate] = task.DueDate.Format(models.DateLayout)
	}
	return rec
}

// EncodeChecklist serializes completed checklist items as a JSON list.
func EncodeChecklist(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}
