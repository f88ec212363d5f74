package db

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/taxdesk/models"
)

func TestLoadClientTableTrackedColumns(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Replace(ctx, models.TableClients, [][]string{
		{"Name", "Home Telephone", "Status"},
		{"Ann Lee", "555-0100", ""},
		{"Bob Roe", "", "Talked"},
	}))

	table, err := store.LoadClientTable(ctx)
	require.NoError(t, err)

	for _, col := range store.Columns().Clients.Tracked() {
		assert.True(t, table.HasColumn(col), "missing tracked column %s", col)
		for _, rec := range table.Records {
			v, ok := rec[col]
			assert.True(t, ok)
			if col != "Status" {
				assert.Equal(t, "", v)
			}
		}
	}
	assert.Equal(t, models.StatusNew, table.Records[0]["Status"])
	assert.Equal(t, models.StatusTalked, table.Records[1]["Status"])
}

func TestLoadClientsBackfillsIDs(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Replace(ctx, models.TableClients, [][]string{
		{"Client_ID", "Name"},
		{"CLI-1", "Ann"},
		{"", "Bob"},
		{"", ""},
	}))

	clients, err := store.LoadClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "CLI-1", clients[0].ID)
	assert.True(t, strings.HasPrefix(clients[1].ID, "CLI-"))

	// IDs are persisted, so a second load is stable.
	again, err := store.LoadClients(ctx)
	require.NoError(t, err)
	assert.Equal(t, clients[1].ID, again[1].ID)
}

func TestSaveClientRoundTrip(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Replace(ctx, models.TableClients, [][]string{
		{"Client_ID", "Name", "Preparer", "Internal_Flag"},
		{"CLI-1", "Ann", "Kim", "true"},
	}))

	c, err := store.GetClient(ctx, "CLI-1")
	require.NoError(t, err)
	assert.True(t, c.InternalFlag)
	assert.Equal(t, "Kim", c.Extra["Preparer"])

	c.Status = models.StatusLeftMessage
	c.InternalFlag = false
	require.NoError(t, store.SaveClient(ctx, *c))

	reloaded, err := store.GetClient(ctx, "CLI-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusLeftMessage, reloaded.Status)
	assert.False(t, reloaded.InternalFlag)
	assert.Equal(t, "Kim", reloaded.Extra["Preparer"], "unmapped columns survive a save")

	values, err := backend.Values(ctx, models.TableClients)
	require.NoError(t, err)
	assert.Equal(t, "FALSE", values[1][3])
}

func TestGetClientNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.GetClient(context.Background(), "CLI-missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestCreateClient(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	c := &models.Client{Name: "New Person", Phone: "555"}
	require.NoError(t, store.CreateClient(ctx, c))
	assert.NotEmpty(t, c.ID)

	got, err := store.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, got.Status)
	assert.Equal(t, "555", got.Phone)
}

func TestParseFlag(t *testing.T) {
	for _, s := range []string{"TRUE", "true", " 1 ", "yes", "Y"} {
		assert.True(t, ParseFlag(s), s)
	}
	for _, s := range []string{"", "FALSE", "0", "no", "maybe"} {
		assert.False(t, ParseFlag(s), s)
	}
	assert.Equal(t, "TRUE", FormatFlag(true))
	assert.Equal(t, "FALSE", FormatFlag(false))
}

func TestLoadClientsLeavesBlankRowsBlank(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Replace(ctx, models.TableClients, [][]string{
		{"Client_ID", "Name", "Status"},
		{"CLI-1", "Ann", "Talked"},
		{"", "", ""},
		{"", "Bob", ""},
	}))

	clients, err := store.LoadClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "Ann", clients[0].Name)
	assert.Equal(t, "Bob", clients[1].Name)
	assert.Equal(t, models.StatusNew, clients[1].Status)

	// The ID backfill rewrote the table; the blank row must survive as blank.
	values, err := backend.Values(ctx, models.TableClients)
	require.NoError(t, err)
	require.Len(t, values, 4)
	for _, cell := range values[2] {
		assert.Equal(t, "", cell)
	}
}
