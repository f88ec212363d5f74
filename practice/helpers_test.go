package practice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newTestStore(t *testing.T, now time.Time) (*db.Store, *db.SQLiteBackend, *clock) {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "practice.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	backend := db.NewSQLiteBackend(database)
	store := db.NewStore(backend, db.DefaultColumns(), time.Minute, zaptest.NewLogger(t))
	c := &clock{t: now}
	store.SetClock(c.Now)
	return store, backend, c
}

func seedPractice(t *testing.T, backend *db.SQLiteBackend) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, backend.Replace(ctx, models.TableEntities, [][]string{
		{"Entity_ID", "Name", "Type", "FEIN", "Email", "Drive_Folder_ID"},
		{"ENT-1", "Acme LLC", "Partnership", "", "", ""},
		{"ENT-2", "Jo Doe", "Individual", "", "", "folder-jo"},
	}))
	require.NoError(t, backend.Replace(ctx, models.TableServices, [][]string{
		{"Service_Name", "Frequency", "Due_Day", "Checklist"},
		{"Bookkeeping", "Monthly", "10", "Bank statements\nReceipts"},
		{"1065 Return", "Annually", "15", "K-1s"},
		{"1040 Return", "Annually", "", "W-2\n1099s"},
		{"Mystery", "Fortnightly", "1", ""},
	}))
	require.NoError(t, backend.Replace(ctx, models.TableAssignments, [][]string{
		{"Entity_ID", "Service_Name", "Start_Date"},
		{"ENT-1", "Bookkeeping", "2024-01-01"},
		{"ENT-1", "1065 Return", ""},
		{"ENT-2", "1040 Return", "01/15/2025"},
		{"ENT-2", "Bookkeeping", "2030-01-01"},
		{"ENT-2", "Mystery", ""},
		{"ENT-2", "Nonexistent", ""},
	}))
}

type fakeFiles struct {
	folders []string
	uploads map[string][]byte
	err     error
}

func (f *fakeFiles) CreateFolder(_ context.Context, name, parentID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.folders = append(f.folders, name)
	return fmt.Sprintf("folder-%d", len(f.folders)), nil
}

func (f *fakeFiles) Upload(_ context.Context, folderID, name, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[folderID+"/"+name] = buf.Bytes()
	return "file-1", nil
}
