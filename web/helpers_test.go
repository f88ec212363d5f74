package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/oauth2"

	"github.com/harperreed/taxdesk/config"
	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
	"github.com/harperreed/taxdesk/practice"
)

var testNow = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

type fakeMailer struct {
	sent      []models.Email
	searchErr error
}

func (f *fakeMailer) Send(_ context.Context, email models.Email) error {
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeMailer) Signature(context.Context) (string, error) { return "Kim", nil }

func (f *fakeMailer) Search(context.Context, []string, int) ([]models.MailMessage, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return []models.MailMessage{{ID: "m1", Subject: "Your documents", Date: "Mon, 3 Mar 2025"}}, nil
}

// fakeAuth accepts any code and signs in as email.
type fakeAuth struct {
	email  string
	mailer *fakeMailer
}

func (f *fakeAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (f *fakeAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("missing code")
	}
	return &oauth2.Token{AccessToken: "tok-" + code}, nil
}

func (f *fakeAuth) Identity(context.Context, *oauth2.Token) (string, string, error) {
	return f.email, "Test Agent", nil
}

func (f *fakeAuth) Mailer(context.Context, *oauth2.Token, string) (crm.Mailer, error) {
	return f.mailer, nil
}

type fakeFiles struct {
	uploads map[string]string
}

func (f *fakeFiles) CreateFolder(_ context.Context, name, _ string) (string, error) {
	return "folder-" + name, nil
}

func (f *fakeFiles) Upload(_ context.Context, folderID, name, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.uploads[folderID+"/"+name] = string(b)
	return "file-1", nil
}

type testEnv struct {
	server   *Server
	database *sqlx.DB
	store    *db.Store
	auth     *fakeAuth
	files    *fakeFiles
	gen      *practice.Generator
	cfg      *config.Config
}

func newTestEnv(t *testing.T, tweak func(*config.Config)) *testEnv {
	t.Helper()
	ctx := context.Background()

	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	backend := db.NewSQLiteBackend(database)
	require.NoError(t, backend.Replace(ctx, models.TableClients, [][]string{
		{"Client_ID", "Name", "Taxpayer First Name", "Taxpayer last name", "Home Telephone", "Taxpayer E-mail Address", "Status", "Notes"},
		{"CLI-1", "Mary Jones", "mary", "jones", "(555) 222-3333", "mary@example.com", "New", ""},
		{"CLI-2", "Tom Ray", "tom", "ray", "", "", "Talked", ""},
	}))
	require.NoError(t, backend.Replace(ctx, models.TableTemplates, [][]string{
		{"Type", "Subject", "Body"},
		{"Reminder", "Documents", "Please send your W-2s."},
	}))
	require.NoError(t, backend.Replace(ctx, models.TableReference, [][]string{
		{"Name", "Phone"},
		{"Tom Ray", "555-888-9999"},
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

	cfg := config.Default()
	cfg.Server.PublicURL = "https://desk.example.com"
	if tweak != nil {
		tweak(cfg)
	}

	files := &fakeFiles{uploads: map[string]string{}}
	auth := &fakeAuth{email: "kim@office.com", mailer: &fakeMailer{}}
	gen := practice.NewGenerator(store, practice.DefaultRules(), time.UTC, logger)

	srv, err := NewServer(Options{
		Config:    cfg,
		Desk:      crm.NewDesk(store, nil, cfg.Queue.Statuses, logger),
		Practice:  practice.NewService(store, files, "uploads-root", logger),
		Generator: gen,
		Auth:      auth,
		Logger:    logger,
	})
	require.NoError(t, err)

	return &testEnv{server: srv, database: database, store: store, auth: auth, files: files, gen: gen, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, target string, body io.Reader, contentType string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return e.do(t, http.MethodGet, target, nil, "", cookies...)
}

func (e *testEnv) postForm(t *testing.T, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return e.do(t, http.MethodPost, target, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", cookies...)
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// login runs the OAuth round trip and returns the session cookie.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	start := e.get(t, "/auth/login")
	require.Equal(t, http.StatusFound, start.Code)
	state := findCookie(start, stateCookie)
	require.NotNil(t, state)

	cb := e.get(t, "/auth/callback?code=abc&state="+url.QueryEscape(state.Value), state)
	require.Equal(t, http.StatusSeeOther, cb.Code)
	sess := findCookie(cb, sessionCookie)
	require.NotNil(t, sess)
	return sess
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}
