// ABOUTME: Shared wiring for CLI commands
// ABOUTME: Opens the configured backend and builds the store, desk and practice services
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/harperreed/taxdesk/config"
	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/practice"
	googlesync "github.com/harperreed/taxdesk/sync"
)

// App bundles the collaborators every command works against.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     *db.Store
	Desk      *crm.Desk
	Practice  *practice.Service
	Generator *practice.Generator

	// Out receives human-readable command output.
	Out io.Writer

	google  *http.Client
	closers []func() error
}

// Open builds an App from cfg. The sheets backend needs a stored Google
// token; with SQLite the token is optional and only enables mail and Drive.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger, Out: os.Stdout}

	client, err := storedGoogleClient(ctx, cfg)
	if err != nil && cfg.Storage.Backend == config.BackendSheets {
		return nil, fmt.Errorf("sheets backend needs Google sign-in (run 'taxdesk auth login'): %w", err)
	}
	if err != nil {
		logger.Debug("google services unavailable", zap.Error(err))
	}
	app.google = client

	backend, err := app.openBackend(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Store = db.NewStore(backend, cfg.Schema, cfg.Storage.CacheTTL, logger.Named("store"))
	app.Desk = crm.NewDesk(app.Store, nil, cfg.Queue.Statuses, logger.Named("desk"))

	var files practice.FileStore
	if client != nil {
		drive, err := googlesync.NewDriveStore(ctx, client)
		if err != nil {
			logger.Warn("drive unavailable", zap.Error(err))
		} else {
			files = drive
		}
	}
	app.Practice = practice.NewService(app.Store, files, cfg.Google.UploadsFolderID, logger.Named("practice"))

	loc, err := cfg.Tasks.Location()
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Generator = practice.NewGenerator(app.Store, RulesFromConfig(cfg.Tasks), loc, logger.Named("generator"))

	return app, nil
}

func (a *App) openBackend(ctx context.Context) (db.Backend, error) {
	switch a.Config.Storage.Backend {
	case config.BackendSheets:
		backend, err := googlesync.NewSheetsBackend(ctx, a.Config.Storage.SpreadsheetID, option.WithHTTPClient(a.google))
		if err != nil {
			return nil, err
		}
		a.Logger.Info("using Google Sheets backend", zap.String("spreadsheet", a.Config.Storage.SpreadsheetID))
		return backend, nil
	default:
		database, err := db.OpenDatabase(a.Config.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, database.Close)
		a.Logger.Info("using SQLite backend", zap.String("path", a.Config.Storage.SQLitePath))
		return db.NewSQLiteBackend(database), nil
	}
}

// Close releases the database handle, if any.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// AgentDesk returns a desk that sends mail as the signed-in Google account,
// and the agent name to stamp on notes. Without a token the plain desk is
// returned and emails fail per call.
func (a *App) AgentDesk(ctx context.Context) (*crm.Desk, string) {
	agent := a.Config.Agent
	if a.google == nil {
		return a.Desk, agent
	}

	id, err := googlesync.FetchIdentity(ctx, a.google)
	if err != nil {
		a.Logger.Warn("could not look up Google identity; mail disabled", zap.Error(err))
		return a.Desk, agent
	}
	mailer, err := googlesync.NewGmailMailer(ctx, a.google, id.Email)
	if err != nil {
		a.Logger.Warn("gmail unavailable", zap.Error(err))
		return a.Desk, agent
	}
	if agent == "" {
		agent = id.Email
	}
	return a.Desk.WithMailer(mailer), agent
}

func storedGoogleClient(ctx context.Context, cfg *config.Config) (*http.Client, error) {
	tokens, err := googlesync.NewTokenStore(cfg.Auth.TokenStore)
	if err != nil {
		return nil, err
	}
	return googlesync.StoredClient(ctx, cfg.Google, tokens, googlesync.DefaultTokenKey)
}

// RulesFromConfig converts the configured deadline rules.
func RulesFromConfig(t config.TasksConfig) practice.Rules {
	rules := practice.Rules{
		DefaultAnnualMonth: time.Month(t.DefaultAnnualMonth),
		DefaultDueDay:      t.DefaultDueDay,
	}
	for _, r := range t.AnnualRules {
		rules.Annual = append(rules.Annual, practice.AnnualRule{
			Keywords: r.Keywords,
			Month:    time.Month(r.Month),
		})
	}
	return rules
}
