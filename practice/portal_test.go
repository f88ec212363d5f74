package practice

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harperreed/taxdesk/models"
)

func setupPortal(t *testing.T) (*Service, *fakeFiles, []models.Task) {
	t.Helper()
	store, backend, _ := newTestStore(t, time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC))
	seedPractice(t, backend)
	res, err := NewGenerator(store, DefaultRules(), time.UTC, zaptest.NewLogger(t)).Run(context.Background(), true)
	require.NoError(t, err)

	files := &fakeFiles{}
	return NewService(store, files, "uploads-root", zaptest.NewLogger(t)), files, res.Created
}

func findTask(tasks []models.Task, entity, service string) models.Task {
	for _, task := range tasks {
		if task.EntityID == entity && task.ServiceName == service {
			return task
		}
	}
	return models.Task{}
}

func TestTaskByToken(t *testing.T) {
	svc, _, tasks := setupPortal(t)
	ctx := context.Background()
	task := findTask(tasks, "ENT-2", "1040 Return")

	p, err := svc.TaskByToken(ctx, task.UploadToken)
	require.NoError(t, err)
	assert.Equal(t, "Jo Doe", p.EntityName)
	assert.Equal(t, "1040 Return", p.ServiceName)
	assert.Equal(t, []string{"W-2", "1099s"}, p.Checklist)

	for _, bad := range []string{"", "  ", "not-a-token", task.UploadToken + "x"} {
		_, err := svc.TaskByToken(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", bad)
	}
}

func TestUploadCreatesFolderAndMarksTask(t *testing.T) {
	svc, files, tasks := setupPortal(t)
	ctx := context.Background()
	task := findTask(tasks, "ENT-1", "1065 Return")

	err := svc.Upload(ctx, task.UploadToken, `C:\Users\me\k1.pdf`, "application/pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Acme LLC"}, files.folders)
	assert.Equal(t, []byte("pdf bytes"), files.uploads["folder-1/k1.pdf"])

	entity, err := svc.store.GetEntity(ctx, "ENT-1")
	require.NoError(t, err)
	assert.Equal(t, "folder-1", entity.DriveFolderID)

	updated, err := svc.store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskClientUploaded, updated.Status)
	assert.Equal(t, "[2025-02-01 09:00] Client uploaded k1.pdf", updated.InternalNotes)

	// Second upload reuses the folder.
	require.NoError(t, svc.Upload(ctx, task.UploadToken, "k1-b.pdf", "", strings.NewReader("more")))
	assert.Len(t, files.folders, 1)
}

func TestUploadUsesExistingFolder(t *testing.T) {
	svc, files, tasks := setupPortal(t)
	task := findTask(tasks, "ENT-2", "1040 Return")

	require.NoError(t, svc.Upload(context.Background(), task.UploadToken, "w2.pdf", "application/pdf", strings.NewReader("w2")))
	assert.Empty(t, files.folders)
	assert.Contains(t, files.uploads, "folder-jo/w2.pdf")
}

func TestUploadRejectsCompletedAndInvalid(t *testing.T) {
	svc, _, tasks := setupPortal(t)
	ctx := context.Background()
	task := findTask(tasks, "ENT-2", "1040 Return")

	assert.ErrorIs(t, svc.Upload(ctx, "bogus", "a.pdf", "", strings.NewReader("x")), ErrInvalidToken)

	done := models.TaskCompleted
	_, err := svc.UpdateTask(ctx, task.ID, TaskUpdate{Status: &done})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Upload(ctx, task.UploadToken, "a.pdf", "", strings.NewReader("x")), ErrInvalidToken)
}

func TestUploadWithoutFileStore(t *testing.T) {
	svc, _, tasks := setupPortal(t)
	svc.files = nil
	err := svc.Upload(context.Background(), tasks[0].UploadToken, "a.pdf", "", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrFilesUnavailable)
}

func TestCleanFilename(t *testing.T) {
	assert.Equal(t, "a.pdf", cleanFilename("../../a.pdf"))
	assert.Equal(t, "b.pdf", cleanFilename(`dir\b.pdf`))
	assert.Equal(t, "upload", cleanFilename(""))
	assert.Equal(t, "upload", cleanFilename("/"))
}

func TestUploadURL(t *testing.T) {
	assert.Equal(t, "https://desk.example.com/upload/abc", UploadURL("https://desk.example.com/", "abc"))
}
