package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"shelfsync/internal/config"
	"shelfsync/internal/fault"
)

//go:embed schema.sql
var schemaTemplate string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db    *sql.DB
	path  string
	table string
}

// Open connects to the ledger configured in cfg, creating it when absent.
func Open(cfg *config.Config) (*Store, error) {
	return OpenPath(cfg.Ledger.Path, cfg.Ledger.Table)
}

// OpenPath initializes or connects to a ledger database at path.
func OpenPath(path, table string) (*Store, error) {
	if table == "" {
		table = "ledger"
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Executor workers share the handle; a single connection serializes writes.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, table: table}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists > 0 {
		var version int
		if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if version != schemaVersion {
			return fmt.Errorf("%w: ledger has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, strings.ReplaceAll(schemaTemplate, "{{table}}", s.table)); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if tableExists == 0 {
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func (s *Store) q(query string) string {
	return strings.ReplaceAll(query, "{{table}}", s.table)
}

const selectColumns = "id, artist, book, status, item_count, source_uri, created_at, updated_at"

// List returns every row ordered by id.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, s.q("SELECT "+selectColumns+" FROM {{table}} ORDER BY id"))
	if err != nil {
		return nil, fault.Wrap(fault.ErrTransient, "ledger", "list", s.table, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(fault.ErrTransient, "ledger", "list", s.table, err)
	}
	return out, nil
}

// Get fetches a row by id. A missing row yields fault.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+selectColumns+" FROM {{table}} WHERE id = ?"), id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fault.Wrap(fault.ErrNotFound, "ledger", "get", id, nil)
	}
	return rec, err
}

// Exists reports whether a row with id is present.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.q("SELECT COUNT(1) FROM {{table}} WHERE id = ?"), id).Scan(&n); err != nil {
		return false, fault.Wrap(fault.ErrTransient, "ledger", "exists", id, err)
	}
	return n > 0, nil
}

// Insert adds a new row. Inserting an id that already exists fails with
// fault.ErrIdempotency.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fault.Wrap(fault.ErrValidation, "ledger", "insert", "record id is required", nil)
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO {{table}} (id, artist, book, status, item_count, source_uri, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.Artist, rec.Book, rec.Status, rec.ItemCount, rec.SourceURI, ts, ts,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fault.Wrap(fault.ErrIdempotency, "ledger", "insert", rec.ID+" already exists", err)
		}
		return fault.Wrap(fault.ErrTransient, "ledger", "insert", rec.ID, err)
	}
	return nil
}

// Update rewrites artist, book, status, item count, and source URI of the
// row with rec.ID. The id itself never changes.
func (s *Store) Update(ctx context.Context, rec Record) error {
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE {{table}} SET artist = ?, book = ?, status = ?, item_count = ?, source_uri = ?, updated_at = ?
        WHERE id = ?`),
		rec.Artist, rec.Book, rec.Status, rec.ItemCount, rec.SourceURI, ts, rec.ID,
	)
	if err != nil {
		return fault.Wrap(fault.ErrTransient, "ledger", "update", rec.ID, err)
	}
	return requireAffected(res, "update", rec.ID)
}

// Delete removes the row with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM {{table}} WHERE id = ?"), id)
	if err != nil {
		return fault.Wrap(fault.ErrTransient, "ledger", "delete", id, err)
	}
	return requireAffected(res, "delete", id)
}

func requireAffected(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fault.Wrap(fault.ErrTransient, "ledger", op, id, err)
	}
	if n == 0 {
		return fault.Wrap(fault.ErrNotFound, "ledger", op, id, nil)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec              Record
		created, updated string
	)
	if err := row.Scan(&rec.ID, &rec.Artist, &rec.Book, &rec.Status, &rec.ItemCount, &rec.SourceURI, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fault.Wrap(fault.ErrTransient, "ledger", "scan row", "", err)
	}
	rec.CreatedAt = parseTime(created)
	rec.UpdatedAt = parseTime(updated)
	return rec, nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
