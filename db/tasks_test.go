package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/taxdesk/models"
)

func TestTaskRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	due := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	task := models.Task{
		ID:          NewID(PrefixTask),
		EntityID:    "ENT-1",
		ServiceName: "1040",
		DueDate:     due,
		Status:      models.TaskNotStarted,
		UploadToken: NewUploadToken(),
		CreatedAt:   "2025-03-01 09:00",
	}
	require.NoError(t, store.AppendTasks(ctx, []models.Task{task}))

	task.Status = models.TaskInProgress
	task.Checklist = []string{"W-2"}
	task.InternalNotes = "waiting on W-2s"
	require.NoError(t, store.UpdateTask(ctx, task))

	got, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, due.Equal(got.DueDate))
	assert.Equal(t, models.TaskInProgress, got.Status)
	assert.Equal(t, []string{"W-2"}, got.Checklist)
	assert.Equal(t, task.UploadToken, got.UploadToken)
	assert.Equal(t, task.Key(), got.Key())
}

func TestUpdateTaskKeepsUnreadableDueDate(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Replace(ctx, models.TableTasks, [][]string{
		{"Task_ID", "Entity_ID", "Service_Name", "Due_Date", "Status"},
		{"TSK-1", "ENT-1", "1040", "March 15, 2025", "Not Started"},
	}))

	task, err := store.GetTask(ctx, "TSK-1")
	require.NoError(t, err)
	assert.True(t, task.DueDate.IsZero())
	assert.Equal(t, "March 15, 2025", task.DueDateRaw)

	task.Status = models.TaskInProgress
	require.NoError(t, store.UpdateTask(ctx, *task))

	values, err := backend.Values(ctx, models.TableTasks)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "March 15, 2025", values[1][3])
	assert.Equal(t, models.TaskInProgress, values[1][4])
}

func TestLoadTasksToleratesBadChecklist(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Replace(ctx, models.TableTasks, [][]string{
		{"Task_ID", "Status", "Checklist_State"},
		{"TSK-1", "", "not json"},
	}))

	tasks, err := store.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Nil(t, tasks[0].Checklist)
	assert.Equal(t, models.TaskNotStarted, tasks[0].Status)
}

func TestEncodeChecklist(t *testing.T) {
	assert.Equal(t, "[]", EncodeChecklist(nil))
	assert.Equal(t, `["a","b"]`, EncodeChecklist([]string{"a", "b"}))
}

func TestAppLog(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	store.SetClock(func() time.Time { return time.Date(2025, 2, 3, 8, 5, 0, 0, time.UTC) })

	require.NoError(t, store.AppendAppLog(ctx, models.AppLogEntry{Action: "Task Generation", Detail: "Created 2 tasks"}))

	entries, err := store.LoadAppLog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2025-02-03 08:05", entries[0].Timestamp)
}
