// ABOUTME: Public upload portal backed by per-task tokens
// ABOUTME: Resolves tokens in constant time and files client uploads
package practice

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
)

// Portal is everything an unauthenticated visitor may see for one task.
type Portal struct {
	TaskID       string
	EntityName   string
	ServiceName  string
	DueDate      time.Time
	Checklist    []string
	Instructions string
}

func (s *Service) findByToken(ctx context.Context, token string) (*models.Task, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	tasks, err := s.store.LoadTasks(ctx)
	if err != nil {
		return nil, err
	}

	// Compare against every task so timing does not reveal where a match was.
	var found *models.Task
	for i := range tasks {
		if tasks[i].UploadToken == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(tasks[i].UploadToken), []byte(token)) == 1 && found == nil {
			found = &tasks[i]
		}
	}
	if found == nil || found.Status == models.TaskCompleted {
		return nil, ErrInvalidToken
	}
	return found, nil
}

// TaskByToken validates token and returns the public view of its task.
func (s *Service) TaskByToken(ctx context.Context, token string) (*Portal, error) {
	task, err := s.findByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	p := &Portal{
		TaskID:       task.ID,
		ServiceName:  task.ServiceName,
		DueDate:      task.DueDate,
		Instructions: task.ClientInstructions,
	}
	if e, err := s.store.GetEntity(ctx, task.EntityID); err == nil {
		p.EntityName = e.Name
	}

	items, err := s.Checklist(ctx, *task)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		p.Checklist = append(p.Checklist, item.Text)
	}
	return p, nil
}

// Upload stores a client's file in the entity's folder, creating the folder on
// first use, and marks the task as uploaded.
func (s *Service) Upload(ctx context.Context, token, filename, mimeType string, r io.Reader) error {
	err := s.upload(ctx, token, filename, mimeType, r)
	if err != nil {
		portalUploads.WithLabelValues("error").Inc()
		return err
	}
	portalUploads.WithLabelValues("ok").Inc()
	return nil
}

func (s *Service) upload(ctx context.Context, token, filename, mimeType string, r io.Reader) error {
	if s.files == nil {
		return ErrFilesUnavailable
	}

	task, err := s.findByToken(ctx, token)
	if err != nil {
		return err
	}

	entity, err := s.store.GetEntity(ctx, task.EntityID)
	if err != nil {
		return fmt.Errorf("task %s has no entity: %w", task.ID, err)
	}

	if entity.DriveFolderID == "" {
		id, err := s.files.CreateFolder(ctx, entity.Name, s.uploadsRoot)
		if err != nil {
			return fmt.Errorf("failed to create folder for %s: %w", entity.Name, err)
		}
		entity.DriveFolderID = id
		if err := s.store.UpdateEntity(ctx, *entity); err != nil {
			return err
		}
	}

	name := cleanFilename(filename)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if _, err := s.files.Upload(ctx, entity.DriveFolderID, name, mimeType, r); err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}

	stamp := s.store.Now().Format(models.TimestampLayout)
	task.Status = models.TaskClientUploaded
	task.InternalNotes = appendLine(task.InternalNotes, fmt.Sprintf("[%s] Client uploaded %s", stamp, name))
	if err := s.store.UpdateTask(ctx, *task); err != nil {
		return err
	}

	s.logger.Info("client upload received",
		zap.String("task", task.ID), zap.String("entity", entity.ID), zap.String("file", name))
	return nil
}

func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}

func appendLine(existing, line string) string {
	if strings.TrimSpace(existing) == "" {
		return line
	}
	return strings.TrimRight(existing, "\n") + "\n" + line
}

// UploadURL builds the public link for a task.
func UploadURL(publicURL, token string) string {
	return strings.TrimRight(publicURL, "/") + "/upload/" + token
}

// EnsureToken gives a task an upload token if it lacks one.
func (s *Service) EnsureToken(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UploadToken != "" {
		return task, nil
	}
	task.UploadToken = db.NewUploadToken()
	if err := s.store.UpdateTask(ctx, *task); err != nil {
		return nil, err
	}
	return task, nil
}
