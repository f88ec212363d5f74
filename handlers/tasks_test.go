package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/taxdesk/models"
)

func TestGenerateAndListTasks(t *testing.T) {
	f := setupFixture(t)
	h := NewTaskHandlers(f.svc, f.gen, "https://desk.example.com")
	ctx := context.Background()

	_, gen, err := h.GenerateTasks(ctx, nil, GenerateTasksInput{})
	require.NoError(t, err)
	require.Len(t, gen.Created, 1)
	assert.Equal(t, "2025-04-10", gen.Created[0].DueDate)

	_, again, err := h.GenerateTasks(ctx, nil, GenerateTasksInput{})
	require.NoError(t, err)
	assert.True(t, again.AlreadyRan)
	assert.Empty(t, again.Created)

	_, list, err := h.ListTasks(ctx, nil, ListTasksInput{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, "Acme LLC", list.Tasks[0].EntityName)
	assert.True(t, strings.HasPrefix(list.Tasks[0].UploadURL, "https://desk.example.com/upload/"))
}

func TestUpdateTask(t *testing.T) {
	f := setupFixture(t)
	h := NewTaskHandlers(f.svc, f.gen, "")
	ctx := context.Background()

	_, gen, err := h.GenerateTasks(ctx, nil, GenerateTasksInput{Force: true})
	require.NoError(t, err)
	require.Len(t, gen.Created, 1)

	done := models.TaskCompleted
	_, out, err := h.UpdateTask(ctx, nil, UpdateTaskInput{ID: gen.Created[0].ID, Status: &done, ChecklistDone: []string{"Bank statements"}})
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, out.Status)
	assert.Empty(t, out.UploadURL)
	assert.Equal(t, []string{"Bank statements"}, out.Checklist)

	bad := "Sleeping"
	_, _, err = h.UpdateTask(ctx, nil, UpdateTaskInput{ID: gen.Created[0].ID, Status: &bad})
	assert.Error(t, err)
}

func TestListEntities(t *testing.T) {
	f := setupFixture(t)
	h := NewTaskHandlers(f.svc, f.gen, "")

	_, out, err := h.ListEntities(context.Background(), nil, ListEntitiesInput{})
	require.NoError(t, err)
	require.Len(t, out.Entities, 1)
	assert.Equal(t, "Acme LLC", out.Entities[0].Name)
}
