package practice

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harperreed/taxdesk/models"
)

func TestGeneratorRun(t *testing.T) {
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	store, backend, _ := newTestStore(t, now)
	seedPractice(t, backend)
	gen := NewGenerator(store, DefaultRules(), time.UTC, zaptest.NewLogger(t))
	ctx := context.Background()
	before := testutil.ToFloat64(tasksGenerated)

	res, err := gen.Run(ctx, false)
	require.NoError(t, err)
	assert.False(t, res.AlreadyRan)
	require.Len(t, res.Created, 3)
	assert.Equal(t, 3, res.Skipped, "future start, unknown frequency and unknown service")
	assert.Equal(t, before+3, testutil.ToFloat64(tasksGenerated))

	due := map[string]string{}
	for _, task := range res.Created {
		due[task.EntityID+"/"+task.ServiceName] = task.Key().DueDate
		assert.Equal(t, models.TaskNotStarted, task.Status)
		assert.NotEmpty(t, task.UploadToken)
		assert.Contains(t, task.ID, "TSK-")
	}
	assert.Equal(t, map[string]string{
		"ENT-1/Bookkeeping": "2025-03-10",
		"ENT-1/1065 Return": "2025-03-15",
		"ENT-2/1040 Return": "2025-04-15",
	}, due)

	tasks, err := store.LoadTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)

	entries, err := store.LoadAppLog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionTaskGeneration, entries[0].Action)
	assert.Equal(t, "Created 3 tasks", entries[0].Detail)
	assert.Equal(t, "2025-02-01 09:00", entries[0].Timestamp)
}

func TestGeneratorRunsOncePerDay(t *testing.T) {
	store, backend, _ := newTestStore(t, time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC))
	seedPractice(t, backend)
	gen := NewGenerator(store, DefaultRules(), time.UTC, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := gen.Run(ctx, false)
	require.NoError(t, err)

	res, err := gen.Run(ctx, false)
	require.NoError(t, err)
	assert.True(t, res.AlreadyRan)
	assert.Empty(t, res.Created)

	ran, err := gen.RanToday(ctx)
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestGeneratorForcedRunIsIdempotent(t *testing.T) {
	store, backend, _ := newTestStore(t, time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC))
	seedPractice(t, backend)
	gen := NewGenerator(store, DefaultRules(), time.UTC, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := gen.Run(ctx, true)
	require.NoError(t, err)
	res, err := gen.Run(ctx, true)
	require.NoError(t, err)
	assert.False(t, res.AlreadyRan)
	assert.Empty(t, res.Created, "same inputs and date must not duplicate tasks")

	tasks, err := store.LoadTasks(ctx)
	require.NoError(t, err)
	seen := map[models.TaskKey]bool{}
	for _, task := range tasks {
		assert.False(t, seen[task.Key()], "duplicate task %v", task.Key())
		seen[task.Key()] = true
	}

	entries, err := store.LoadAppLog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "No new tasks", entries[1].Detail)
}

func TestGeneratorNextDay(t *testing.T) {
	store, backend, c := newTestStore(t, time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC))
	seedPractice(t, backend)
	gen := NewGenerator(store, DefaultRules(), time.UTC, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := gen.Run(ctx, false)
	require.NoError(t, err)

	// A month later the monthly service is due again; annual ones are not.
	c.t = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	res, err := gen.Run(ctx, false)
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "Bookkeeping", res.Created[0].ServiceName)
	assert.Equal(t, "2025-04-10", res.Created[0].Key().DueDate)
}

func TestGeneratorSchedule(t *testing.T) {
	store, _, _ := newTestStore(t, time.Now())
	gen := NewGenerator(store, DefaultRules(), time.UTC, zaptest.NewLogger(t))

	c, err := gen.Schedule("0 6 * * *")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = gen.Schedule("not a schedule")
	assert.Error(t, err)
}
