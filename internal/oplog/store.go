package oplog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Entry is one attempted operation.
type Entry struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	Seq        int       `json:"seq"`
	RecordedAt time.Time `json:"recorded_at"`
	Kind       string    `json:"kind"`
	EntityPath string    `json:"entity_path"`
	Filename   string    `json:"filename,omitempty"`
	Source     string    `json:"source,omitempty"`
	Dest       string    `json:"dest,omitempty"`
	Overwrite  bool      `json:"overwrite,omitempty"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
}

// RunSummary aggregates the entries of one run.
type RunSummary struct {
	RunID    string         `json:"run_id"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// Store manages the execution log.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the execution log at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create oplog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout = 5000"} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
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

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists); err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists > 0 {
		var version int
		if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if version != schemaVersion {
			return fmt.Errorf("%w: oplog has version %d, expected %d (delete %s)", ErrSchemaMismatch, version, schemaVersion, s.path)
		}
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// Append records an attempted operation. A zero RecordedAt is set to now.
func (s *Store) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.RunID == "" {
		return e, errors.New("oplog entry requires a run id")
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO op_log (run_id, seq, recorded_at, kind, entity_path, filename, source, dest, overwrite, status, reason)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Seq, e.RecordedAt.UTC().Format(time.RFC3339Nano), e.Kind, e.EntityPath,
		nullableString(e.Filename), nullableString(e.Source), nullableString(e.Dest),
		boolToInt(e.Overwrite), e.Status, nullableString(e.Reason),
	)
	if err != nil {
		return e, fmt.Errorf("append oplog entry: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return e, nil
}

// Filter narrows List results.
type Filter struct {
	RunID string
	Limit int
}

// List returns entries newest run first, in op order within a run.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	query := `SELECT id, run_id, seq, recorded_at, kind, entity_path, filename, source, dest, overwrite, status, reason
        FROM op_log`
	var args []any
	if f.RunID != "" {
		query += " WHERE run_id = ?"
		args = append(args, f.RunID)
	}
	query += " ORDER BY id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list oplog: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                      Entry
			recorded               string
			filename, source, dest sql.NullString
			reason                 sql.NullString
			overwrite              int
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Seq, &recorded, &e.Kind, &e.EntityPath,
			&filename, &source, &dest, &overwrite, &e.Status, &reason); err != nil {
			return nil, fmt.Errorf("scan oplog row: %w", err)
		}
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recorded)
		e.Filename = filename.String
		e.Source = source.String
		e.Dest = dest.String
		e.Reason = reason.String
		e.Overwrite = overwrite != 0
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate oplog: %w", err)
	}
	// Restore chronological order within the selected window.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Runs summarizes recorded runs, most recent first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT run_id, MIN(recorded_at), MAX(recorded_at), status, COUNT(1)
        FROM op_log GROUP BY run_id, status ORDER BY MIN(id) DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("summarize oplog: %w", err)
	}
	defer rows.Close()

	byRun := make(map[string]*RunSummary)
	var order []string
	for rows.Next() {
		var (
			runID, first, last, status string
			count                      int
		)
		if err := rows.Scan(&runID, &first, &last, &status, &count); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		sum, ok := byRun[runID]
		if !ok {
			sum = &RunSummary{RunID: runID, ByStatus: map[string]int{}}
			byRun[runID] = sum
			order = append(order, runID)
		}
		started, _ := time.Parse(time.RFC3339Nano, first)
		finished, _ := time.Parse(time.RFC3339Nano, last)
		if sum.Started.IsZero() || started.Before(sum.Started) {
			sum.Started = started
		}
		if finished.After(sum.Finished) {
			sum.Finished = finished
		}
		sum.ByStatus[status] += count
		sum.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run summary: %w", err)
	}

	out := make([]RunSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byRun[id])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
