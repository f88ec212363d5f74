// ABOUTME: Table store with a short-lived read-through cache
// ABOUTME: Provides load, full save, row-addressed update and append over a Backend
package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/harperreed/taxdesk/models"
)

const (
	// DefaultCacheTTL bounds how stale a cached table read can be.
	DefaultCacheTTL = 5 * time.Minute

	cacheSize = 32
)

// Store is the tabular data access layer used by every feature.
type Store struct {
	backend Backend
	columns Columns
	cache   *expirable.LRU[string, *Table]
	logger  *zap.Logger
	now     func() time.Time
}

// NewStore wraps backend with a read cache of the given TTL.
func NewStore(backend Backend, columns Columns, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		columns: columns,
		cache:   expirable.NewLRU[string, *Table](cacheSize, nil, ttl),
		logger:  logger,
		now:     time.Now,
	}
}

// Columns returns the declared schema.
func (s *Store) Columns() Columns {
	return s.columns
}

// Backend exposes the underlying backend for batch jobs.
func (s *Store) Backend() Backend {
	return s.backend
}

// SetClock overrides the time source used for generated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Load returns a copy of the named table. A missing table yields an empty
// table; Templates comes back with its typed header.
func (s *Store) Load(ctx context.Context, name string) (*Table, error) {
	if cached, ok := s.cache.Get(name); ok {
		return cached.Clone(), nil
	}

	t, err := s.fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	s.cache.Add(name, t)
	return t.Clone(), nil
}

func (s *Store) fetch(ctx context.Context, name string) (*Table, error) {
	values, err := s.backend.Values(ctx, name)
	if errors.Is(err, ErrTableNotFound) {
		s.logger.Debug("table missing, using empty placeholder", zap.String("table", name))
		return s.emptyTable(name), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return TableFromValues(name, values), nil
}

func (s *Store) emptyTable(name string) *Table {
	if name == models.TableTemplates {
		return NewTable(name, s.columns.Templates.List()...)
	}
	return NewTable(name)
}

// LoadOptional never fails: storage errors are logged and an empty
// placeholder is returned so a page can still render.
func (s *Store) LoadOptional(ctx context.Context, name string) *Table {
	t, err := s.Load(ctx, name)
	if err != nil {
		s.logger.Warn("optional table unavailable", zap.String("table", name), zap.Error(err))
		return s.emptyTable(name)
	}
	return t
}

// Save overwrites the whole table: clear, header, rows. Concurrent saves are
// last-writer-wins.
func (s *Store) Save(ctx context.Context, t *Table) error {
	defer s.Invalidate(t.Name)

	if err := s.backend.Replace(ctx, t.Name, t.Values()); err != nil {
		return fmt.Errorf("failed to save %s: %w", t.Name, err)
	}
	return nil
}

// UpdateRecord locates the row whose key column equals rec[key] and patches
// that row only. Columns the sheet lacks are appended to its header.
func (s *Store) UpdateRecord(ctx context.Context, table, key string, rec Record) error {
	defer s.Invalidate(table)

	id := rec[key]
	if id == "" {
		return fmt.Errorf("%s: empty %s", table, key)
	}

	current, err := s.fetch(ctx, table)
	if err != nil {
		return err
	}

	idx, ok := current.Find(key, id)
	if !ok {
		return fmt.Errorf("%s %s=%s: %w", table, key, id, ErrRecordNotFound)
	}

	if err := s.extendHeader(ctx, current, rec); err != nil {
		return err
	}

	merged := current.Records[idx]
	for col, v := range rec {
		merged[col] = v
	}

	// Header is row 1, so record i lives on row i+2.
	if err := s.backend.UpdateRow(ctx, table, idx+2, current.Row(merged)); err != nil {
		return fmt.Errorf("failed to update %s row %d: %w", table, idx+2, err)
	}

	s.logger.Debug("record updated", zap.String("table", table), zap.String("key", id), zap.Int("row", idx+2))
	return nil
}

// AppendRecords appends records after the last row. When the table is new the
// header is written first using columns.
func (s *Store) AppendRecords(ctx context.Context, table string, columns []string, recs []Record) error {
	defer s.Invalidate(table)

	if len(recs) == 0 {
		return nil
	}

	current, err := s.fetch(ctx, table)
	if err != nil {
		return err
	}

	isNew := len(current.Columns) == 0
	var added []string
	added = append(added, current.EnsureColumns(columns...)...)
	for _, rec := range recs {
		added = append(added, current.EnsureColumns(sortedKeys(rec)...)...)
	}

	var rows [][]string
	if isNew {
		rows = append(rows, current.Columns)
	} else if len(added) > 0 {
		if err := s.backend.UpdateRow(ctx, table, 1, current.Columns); err != nil {
			return fmt.Errorf("failed to extend %s header: %w", table, err)
		}
		s.logger.Info("added columns", zap.String("table", table), zap.Strings("columns", added))
	}

	for _, rec := range recs {
		rows = append(rows, current.Row(rec))
	}

	if err := s.backend.AppendRows(ctx, table, rows); err != nil {
		return fmt.Errorf("failed to append to %s: %w", table, err)
	}
	return nil
}

func (s *Store) extendHeader(ctx context.Context, t *Table, rec Record) error {
	added := t.EnsureColumns(sortedKeys(rec)...)
	if len(added) == 0 {
		return nil
	}
	if err := s.backend.UpdateRow(ctx, t.Name, 1, t.Columns); err != nil {
		return fmt.Errorf("failed to extend %s header: %w", t.Name, err)
	}
	s.logger.Info("added columns", zap.String("table", t.Name), zap.Strings("columns", added))
	return nil
}

func sortedKeys(rec Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Invalidate drops a table from the read cache.
func (s *Store) Invalidate(table string) {
	s.cache.Remove(table)
}

// InvalidateAll empties the read cache.
func (s *Store) InvalidateAll() {
	s.cache.Purge()
}
