// ABOUTME: Migration utility for moving office data between storage backends.
// ABOUTME: Copies every known table from Sheets to SQLite or back, with dry-run and backup.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"google.golang.org/api/option"

	"github.com/harperreed/taxdesk/config"
	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
	googlesync "github.com/harperreed/taxdesk/sync"
)

func main() {
	configPath := flag.String("config", "", "Config file (default: ~/.config/taxdesk/config.yaml)")
	from := flag.String("from", config.BackendSheets, "Source backend (sheets or sqlite)")
	to := flag.String("to", config.BackendSQLite, "Destination backend (sheets or sqlite)")
	sqlitePath := flag.String("sqlite", "", "SQLite path (default: storage.sqlite_path)")
	spreadsheet := flag.String("spreadsheet", "", "Spreadsheet ID (default: storage.spreadsheet_id)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Back up the destination SQLite file before writing")
	force := flag.Bool("force", false, "Overwrite destination tables that already hold data")
	flag.Parse()

	if *from == *to {
		log.Fatal("Error: -from and -to must differ")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *sqlitePath != "" {
		cfg.Storage.SQLitePath = *sqlitePath
	}
	if *spreadsheet != "" {
		cfg.Storage.SpreadsheetID = *spreadsheet
	}

	ctx := context.Background()

	if *to == config.BackendSQLite && *backup && !*dryRun {
		if err := backupFile(cfg.Storage.SQLitePath); err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
	}

	src, closeSrc, err := openBackend(ctx, *from, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *from, err)
	}
	defer closeSrc()

	dst, closeDst, err := openBackend(ctx, *to, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *to, err)
	}
	defer closeDst()

	log.Printf("Copying %d tables from %s to %s", len(models.KnownTables), *from, *to)
	if err := migrate(ctx, src, dst, models.KnownTables, *dryRun, *force); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

func openBackend(ctx context.Context, kind string, cfg *config.Config) (db.Backend, func(), error) {
	switch kind {
	case config.BackendSQLite:
		database, err := db.OpenDatabase(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db.NewSQLiteBackend(database), func() { _ = database.Close() }, nil

	case config.BackendSheets:
		if cfg.Storage.SpreadsheetID == "" {
			return nil, nil, fmt.Errorf("spreadsheet ID is required")
		}
		tokens, err := googlesync.NewTokenStore(cfg.Auth.TokenStore)
		if err != nil {
			return nil, nil, err
		}
		client, err := googlesync.StoredClient(ctx, cfg.Google, tokens, googlesync.DefaultTokenKey)
		if err != nil {
			return nil, nil, fmt.Errorf("run 'taxdesk auth login' first: %w", err)
		}
		backend, err := googlesync.NewSheetsBackend(ctx, cfg.Storage.SpreadsheetID, option.WithHTTPClient(client))
		if err != nil {
			return nil, nil, err
		}
		return backend, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", kind)
}

// migrate copies each table whole. Missing source tables are skipped; a
// destination table that already has rows is only replaced with force.
func migrate(ctx context.Context, src, dst db.Backend, tables []string, dryRun, force bool) error {
	for i, table := range tables {
		prefix := fmt.Sprintf("[%d/%d] %s", i+1, len(tables), table)

		values, err := src.Values(ctx, table)
		if errors.Is(err, db.ErrTableNotFound) {
			log.Printf("%s: not in source, skipping", prefix)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", table, err)
		}

		existing, err := dst.Values(ctx, table)
		if err != nil && !errors.Is(err, db.ErrTableNotFound) {
			return fmt.Errorf("failed to inspect destination %s: %w", table, err)
		}
		if len(existing) > 1 && !force {
			return fmt.Errorf("destination %s already has %d rows; use -force to overwrite", table, len(existing)-1)
		}

		rows := len(values) - 1
		if rows < 0 {
			rows = 0
		}

		if dryRun {
			log.Printf("[DRY RUN] %s: would copy %d rows", prefix, rows)
			continue
		}

		if err := dst.Replace(ctx, table, values); err != nil {
			return fmt.Errorf("failed to write %s: %w", table, err)
		}
		log.Printf("%s: copied %d rows", prefix, rows)
	}
	return nil
}

func backupFile(path string) error {
	input, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	log.Printf("Creating backup: %s", backupPath)
	if err := os.WriteFile(backupPath, input, 0600); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	return nil
}
