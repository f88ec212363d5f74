package sync

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/harperreed/taxdesk/db"
)

// fakeSheets serves the handful of Sheets endpoints the backend calls.
type fakeSheets struct {
	tabs     map[string][][]interface{}
	appended map[string][][]interface{}
	updates  map[string][][]interface{}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path

	switch {
	case strings.HasSuffix(path, ":batchUpdate"):
		_, _ = io.WriteString(w, `{}`)
	case strings.Contains(path, "/values/"):
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		if i := strings.Index(rng, ":"); i >= 0 {
			rng = rng[:i]
		}
		tab := strings.Trim(strings.SplitN(rng, "!", 2)[0], "'")
		f.values(w, r, tab, rng)
	default:
		var sheets []map[string]interface{}
		for name := range f.tabs {
			sheets = append(sheets, map[string]interface{}{"properties": map[string]string{"title": name}})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"sheets": sheets})
	}
}

func (f *fakeSheets) values(w http.ResponseWriter, r *http.Request, tab, rng string) {
	if r.Method == http.MethodGet {
		vals, ok := f.tabs[tab]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"code":400,"message":"Unable to parse range: `+tab+`"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"range": rng, "values": vals})
		return
	}

	var body struct {
		Values [][]interface{} `json:"values"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	switch {
	case strings.HasSuffix(r.URL.Path, ":append"):
		f.appended[tab] = append(f.appended[tab], body.Values...)
	case strings.HasSuffix(r.URL.Path, ":clear"):
	default:
		f.updates[rng] = body.Values
	}
	_, _ = io.WriteString(w, `{}`)
}

func newFakeBackend(t *testing.T) (*SheetsBackend, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{
		tabs: map[string][][]interface{}{
			"Clients": {{"Client_ID", "Name"}, {"CLI1", "Jane Doe"}, {"CLI2", 42.0}},
		},
		appended: map[string][][]interface{}{},
		updates:  map[string][][]interface{}{},
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	b, err := NewSheetsBackend(context.Background(), "sheet-1",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return b, fake
}

func TestSheetsBackendValues(t *testing.T) {
	b, _ := newFakeBackend(t)

	values, err := b.Values(context.Background(), "Clients")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Client_ID", "Name"}, {"CLI1", "Jane Doe"}, {"CLI2", "42"}}, values)

	_, err = b.Values(context.Background(), "Missing")
	assert.ErrorIs(t, err, db.ErrTableNotFound)
}

func TestSheetsBackendTables(t *testing.T) {
	b, _ := newFakeBackend(t)

	names, err := b.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Clients"}, names)
}

func TestSheetsBackendAppendAndUpdate(t *testing.T) {
	b, fake := newFakeBackend(t)
	ctx := context.Background()

	require.NoError(t, b.AppendRows(ctx, "Clients", [][]string{{"CLI3", "New Person"}}))
	assert.Equal(t, [][]interface{}{{"CLI3", "New Person"}}, fake.appended["Clients"])

	require.NoError(t, b.UpdateRow(ctx, "Clients", 2, []string{"CLI1", "Jane Q Doe"}))
	assert.Equal(t, [][]interface{}{{"CLI1", "Jane Q Doe"}}, fake.updates["'Clients'!A2"])

	assert.Error(t, b.UpdateRow(ctx, "Clients", 0, nil))
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "'Clients'", quoteSheet("Clients"))
	assert.Equal(t, "'Bob''s Tab'", quoteSheet("Bob's Tab"))
}
