package practice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
)

func TestCreateEntity(t *testing.T) {
	store, _, _ := newTestStore(t, time.Now())
	files := &fakeFiles{}
	svc := NewService(store, files, "root", zaptest.NewLogger(t))
	ctx := context.Background()

	e := &models.Entity{Name: "  Acme LLC ", Type: models.EntitySCorp}
	require.NoError(t, svc.CreateEntity(ctx, e, true))
	assert.Equal(t, "Acme LLC", e.Name)
	assert.Equal(t, "folder-1", e.DriveFolderID)
	assert.Equal(t, []string{"Acme LLC"}, files.folders)

	plain := &models.Entity{Name: "Jo"}
	require.NoError(t, svc.CreateEntity(ctx, plain, false))
	assert.Equal(t, models.EntityIndividual, plain.Type)
	assert.Empty(t, plain.DriveFolderID)

	assert.Error(t, svc.CreateEntity(ctx, &models.Entity{Name: ""}, false))
	assert.Error(t, svc.CreateEntity(ctx, &models.Entity{Name: "X", Type: "Pirate Ship"}, false))

	entities, err := svc.Entities(ctx)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "Acme LLC", entities[0].Name)
}

func TestCreateServiceValidation(t *testing.T) {
	store, _, _ := newTestStore(t, time.Now())
	svc := NewService(store, nil, "", zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, svc.CreateService(ctx, models.Service{Name: "Payroll", Frequency: models.FrequencyQuarterly}))
	assert.Error(t, svc.CreateService(ctx, models.Service{Name: "payroll", Frequency: models.FrequencyMonthly}), "duplicate name")
	assert.Error(t, svc.CreateService(ctx, models.Service{Name: "X", Frequency: "Weekly"}))
	assert.Error(t, svc.CreateService(ctx, models.Service{Name: "Y", Frequency: models.FrequencyMonthly, DueDay: 40}))
	assert.Error(t, svc.CreateService(ctx, models.Service{Frequency: models.FrequencyMonthly}))

	services, err := svc.Services(ctx)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, db.DefaultDueDay, services[0].DueDay)
}

func TestAssignService(t *testing.T) {
	store, backend, _ := newTestStore(t, time.Now())
	seedPractice(t, backend)
	svc := NewService(store, nil, "", zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, svc.AssignService(ctx, models.Assignment{EntityID: "ENT-2", ServiceName: "1065 Return"}))
	assert.ErrorIs(t, svc.AssignService(ctx, models.Assignment{EntityID: "ENT-2", ServiceName: "1065 Return"}), ErrAlreadyAssigned)
	assert.ErrorIs(t, svc.AssignService(ctx, models.Assignment{EntityID: "ENT-2", ServiceName: "Nope"}), ErrUnknownService)
	assert.ErrorIs(t, svc.AssignService(ctx, models.Assignment{EntityID: "ENT-9", ServiceName: "Bookkeeping"}), db.ErrRecordNotFound)
}

func TestListAndUpdateTasks(t *testing.T) {
	store, backend, _ := newTestStore(t, time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC))
	seedPractice(t, backend)
	ctx := context.Background()
	_, err := NewGenerator(store, DefaultRules(), time.UTC, zaptest.NewLogger(t)).Run(ctx, true)
	require.NoError(t, err)

	svc := NewService(store, nil, "", zaptest.NewLogger(t))

	all, err := svc.ListTasks(ctx, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2025-03-10", all[0].Key().DueDate, "ordered by due date")
	assert.Equal(t, "Acme LLC", all[0].EntityName)

	acme, err := svc.ListTasks(ctx, TaskFilter{EntityID: "ENT-1"})
	require.NoError(t, err)
	assert.Len(t, acme, 2)

	done := models.TaskCompleted
	notes := "filed"
	updated, err := svc.UpdateTask(ctx, all[0].ID, TaskUpdate{Status: &done, InternalNotes: &notes, Checklist: []string{"Receipts"}})
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, updated.Status)

	open, err := svc.ListTasks(ctx, TaskFilter{OpenOnly: true})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	items, err := svc.Checklist(ctx, *updated)
	require.NoError(t, err)
	assert.Equal(t, []ChecklistItem{{Text: "Bank statements"}, {Text: "Receipts", Done: true}}, items)

	bad := "Archived"
	_, err = svc.UpdateTask(ctx, all[0].ID, TaskUpdate{Status: &bad})
	assert.Error(t, err)

	_, err = svc.UpdateTask(ctx, "TSK-missing", TaskUpdate{})
	assert.ErrorIs(t, err, db.ErrRecordNotFound)
}
