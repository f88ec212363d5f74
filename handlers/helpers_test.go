package handlers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
	"github.com/harperreed/taxdesk/practice"
)

var testNow = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

type fixture struct {
	desk  *crm.Desk
	svc   *practice.Service
	gen   *practice.Generator
	store *db.Store
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	backend := db.NewSQLiteBackend(database)
	require.NoError(t, backend.Replace(ctx, models.TableClients, [][]string{
		{"Client_ID", "Name", "Taxpayer First Name", "Taxpayer last name", "Home Telephone", "Taxpayer E-mail Address", "Status"},
		{"CLI-1", "Mary Jones", "mary", "jones", "(555) 222-3333", "mary@example.com", "New"},
		{"CLI-2", "Tom Ray", "tom", "ray", "", "", "Talked"},
	}))
	require.NoError(t, backend.Replace(ctx, models.TableTemplates, [][]string{
		{"Type", "Subject", "Body"},
		{"Reminder", "Documents for {Name}", "Please send your W-2s, {Name}."},
	}))
	require.NoError(t, backend.Replace(ctx, models.TableEntities, [][]string{
		{"Entity_ID", "Name", "Type"},
		{"ENT-1", "Acme LLC", "Partnership"},
	}))
	require.NoError(t, backend.Replace(ctx, models.TableServices, [][]string{
		{"Service_Name", "Frequency", "Due_Day", "Checklist"},
		{"Bookkeeping", "Monthly", "10", "Bank statements"},
	}))
	require.NoError(t, backend.Replace(ctx, models.TableAssignments, [][]string{
		{"Entity_ID", "Service_Name", "Start_Date"},
		{"ENT-1", "Bookkeeping", ""},
	}))

	logger := zaptest.NewLogger(t)
	store := db.NewStore(backend, db.DefaultColumns(), time.Minute, logger)
	store.SetClock(func() time.Time { return testNow })

	return &fixture{
		desk:  crm.NewDesk(store, nil, nil, logger),
		svc:   practice.NewService(store, nil, "", logger),
		gen:   practice.NewGenerator(store, practice.DefaultRules(), time.UTC, logger),
		store: store,
	}
}
