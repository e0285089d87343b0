// Package storage provides the SQLite dataset snapshot: a copy of the events
// and price-history resources readable as a dataset source.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rewired-gh/polysoccer/internal/models"
	_ "modernc.org/sqlite"
)

// Import kinds recorded in the imports table.
const (
	KindEvents       = "events"
	KindPriceHistory = "price_history"
)

// Storage wraps a SQLite snapshot database.
type Storage struct {
	db *sql.DB
}

// ImportRecord describes one completed import.
type ImportRecord struct {
	ID         string
	Kind       string
	Origin     string
	Count      int
	ImportedAt time.Time
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/polysoccer/polysoccer.db.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "polysoccer", "polysoccer.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id             TEXT PRIMARY KEY,
			position       INTEGER NOT NULL UNIQUE,
			title          TEXT NOT NULL,
			outcome        TEXT NOT NULL DEFAULT '',
			series         TEXT NOT NULL DEFAULT '',
			volume         REAL NOT NULL DEFAULT 0,
			polymarket_url TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS price_history (
			event_id TEXT PRIMARY KEY,
			names    TEXT,
			quotes   TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS imports (
			id          TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			origin      TEXT NOT NULL DEFAULT '',
			item_count  INTEGER NOT NULL,
			imported_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_imports_imported_at ON imports(imported_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceEvents swaps the stored catalog for events in one transaction,
// keeping their order. origin is recorded in the import log.
func (s *Storage) ReplaceEvents(ctx context.Context, events []models.Event, origin string) error {
	if err := models.ValidateCatalog(events); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return replaceEvents(ctx, tx, events, origin)
	})
}

// ReplacePriceHistory swaps the stored price-history lookup in one transaction.
func (s *Storage) ReplacePriceHistory(ctx context.Context, lookup models.PriceLookup, origin string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return replacePriceHistory(ctx, tx, lookup, origin)
	})
}

// ReplaceDataset swaps both the catalog and the price history in a single
// transaction. On any error the previous snapshot is left untouched.
func (s *Storage) ReplaceDataset(ctx context.Context, events []models.Event, lookup models.PriceLookup, origin string) error {
	if err := models.ValidateCatalog(events); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := replaceEvents(ctx, tx, events, origin); err != nil {
			return err
		}
		return replacePriceHistory(ctx, tx, lookup, origin)
	})
}

func (s *Storage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceEvents(ctx context.Context, tx *sql.Tx, events []models.Event, origin string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("failed to clear events: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, position, title, outcome, series, volume, polymarket_url)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, e := range events {
		if _, err := stmt.ExecContext(ctx,
			string(e.ID), i, e.Title, e.Outcome, e.Series, e.Volume, e.PolymarketURL,
		); err != nil {
			return fmt.Errorf("failed to insert event %s: %w", e.ID, err)
		}
	}
	return recordImport(ctx, tx, KindEvents, origin, len(events))
}

func replacePriceHistory(ctx context.Context, tx *sql.Tx, lookup models.PriceLookup, origin string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM price_history`); err != nil {
		return fmt.Errorf("failed to clear price history: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO price_history (event_id, names, quotes) VALUES (?,?,?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(lookup))
	for id := range lookup {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		record := lookup[id]
		if record == nil {
			continue
		}
		var names sql.NullString
		if record.Names != nil {
			b, err := json.Marshal(record.Names)
			if err != nil {
				return fmt.Errorf("failed to marshal names for %s: %w", id, err)
			}
			names = sql.NullString{String: string(b), Valid: true}
		}
		rows := record.Rows
		if rows == nil {
			rows = []models.PriceRow{}
		}
		rowsJSON, err := json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to marshal rows for %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, names, string(rowsJSON)); err != nil {
			return fmt.Errorf("failed to insert price history %s: %w", id, err)
		}
	}
	return recordImport(ctx, tx, KindPriceHistory, origin, len(ids))
}

func recordImport(ctx context.Context, tx *sql.Tx, kind, origin string, count int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO imports (id, kind, origin, item_count, imported_at) VALUES (?,?,?,?,?)`,
		uuid.NewString(), kind, origin, count, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}

// LoadEvents returns the stored catalog in import order.
func (s *Storage) LoadEvents(ctx context.Context) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, outcome, series, volume, polymarket_url
		FROM events ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// LoadPriceHistory returns the stored price-history lookup.
func (s *Storage) LoadPriceHistory(ctx context.Context) (models.PriceLookup, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event_id, names, quotes FROM price_history`)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	lookup := models.PriceLookup{}
	for rows.Next() {
		var id, rowsJSON string
		var names sql.NullString
		if err := rows.Scan(&id, &names, &rowsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %w", err)
		}
		var record models.PriceHistory
		if names.Valid {
			if err := json.Unmarshal([]byte(names.String), &record.Names); err != nil {
				return nil, fmt.Errorf("failed to unmarshal names for %s: %w", id, err)
			}
			if len(record.Names) != models.NameCount {
				return nil, fmt.Errorf("price history %s has %d names, want %d", id, len(record.Names), models.NameCount)
			}
		}
		if err := json.Unmarshal([]byte(rowsJSON), &record.Rows); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rows for %s: %w", id, err)
		}
		lookup[id] = &record
	}
	return lookup, rows.Err()
}

// Imports returns the most recent imports, newest first.
func (s *Storage) Imports(ctx context.Context, limit int) ([]ImportRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, origin, item_count, imported_at
		FROM imports ORDER BY imported_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer rows.Close()

	var out []ImportRecord
	for rows.Next() {
		var r ImportRecord
		var importedAtNano int64
		if err := rows.Scan(&r.ID, &r.Kind, &r.Origin, &r.Count, &importedAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		r.ImportedAt = time.Unix(0, importedAtNano)
		out = append(out, r)
	}
	if out == nil {
		out = []ImportRecord{}
	}
	return out, rows.Err()
}

func scanEvent(scan func(...any) error) (*models.Event, error) {
	var e models.Event
	var id string
	err := scan(&id, &e.Title, &e.Outcome, &e.Series, &e.Volume, &e.PolymarketURL)
	if err != nil {
		return nil, err
	}
	e.ID = models.EventID(id)
	return &e, nil
}
