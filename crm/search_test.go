package crm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
)

func ids(clients []models.Client) []string {
	out := make([]string, 0, len(clients))
	for _, c := range clients {
		out = append(out, c.ID)
	}
	return out
}

func TestSearch(t *testing.T) {
	clients := []models.Client{
		{ID: "1", Name: "Ann Lee", Email: "ann@example.com", Phone: "(555) 123-4567"},
		{ID: "2", Name: "Bob Roe", SpouseEmail: "sue.roe@example.com", Notes: "prefers mornings"},
		{ID: "3", Name: "Carl Poe", Phone: "555-999-0000", Notes: "Referred by Ann"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"name case-insensitive", "ann", []string{"1", "3"}},
		{"email", "EXAMPLE.COM", []string{"1", "2"}},
		{"spouse email", "sue.roe", []string{"2"}},
		{"notes", "mornings", []string{"2"}},
		{"phone digits", "555-123-45", []string{"1"}},
		{"phone formatted differently", "5559990000", []string{"3"}},
		{"short digits ignore phone", "555", []string{}},
		{"blank", "   ", []string{}},
		{"no match", "zed", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Search(clients, tt.query)))
		})
	}
}

func referenceTable() *db.Table {
	return db.TableFromValues(models.TableReference, [][]string{
		{"Name", "Phone", "City"},
		{"Lee, Ann", "555-222-3333", "Springfield"},
		{"Roe Robert", "", "Shelbyville"},
		{"Ann Leeds", "555-444", "Capital City"},
	})
}

func TestSearchReference(t *testing.T) {
	ref := referenceTable()

	hits := SearchReference(ref, "springfield")
	require.Len(t, hits, 1)
	assert.Equal(t, "Lee, Ann | 555-222-3333 | Springfield", FormatReference(ref, hits[0]))

	assert.Len(t, SearchReference(ref, "5552223333"), 1)
	assert.Empty(t, SearchReference(ref, ""))
	assert.Empty(t, SearchReference(nil, "ann"))
}

func TestSuggestPhone(t *testing.T) {
	ref := referenceTable()
	cols := db.DefaultColumns().Reference

	phone, ok := SuggestPhone(ref, cols, models.Client{FirstName: "Ann", LastName: "Lee"})
	require.True(t, ok)
	assert.Equal(t, "555-222-3333", phone)

	_, ok = SuggestPhone(ref, cols, models.Client{FirstName: "Ann", LastName: "Lee", Phone: "555-000-1111"})
	assert.False(t, ok, "clients with a phone get no suggestion")

	_, ok = SuggestPhone(ref, cols, models.Client{Name: "Robert Roe"})
	assert.False(t, ok, "reference rows without a phone are skipped")

	_, ok = SuggestPhone(ref, cols, models.Client{Name: "Zed"})
	assert.False(t, ok)
}
