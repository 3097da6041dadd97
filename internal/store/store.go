// Package store persists snapshots of indexed runs in SQLite so repeated
// indexing of the same run directory can be listed and compared.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrSnapshotNotFound is returned when a snapshot id is unknown.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const (
	kindDir  = "dir"
	kindFile = "file"
)

// Store manages the SQLite database of run snapshots
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}

		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.dbPath
}

// SaveSnapshot records snap and assigns it an id and creation time when unset.
func (s *Store) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, run_id, results_id, run_dir, sample_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.RunID, snap.ResultsID, snap.RunDir, len(snap.Samples), snap.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if err := insertPaths(ctx, tx, snap.ID, kindDir, snap.Dirs); err != nil {
		return err
	}
	if err := insertPaths(ctx, tx, snap.ID, kindFile, snap.Files); err != nil {
		return err
	}

	for i, id := range snap.Samples {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_samples (snapshot_id, sample_id, position) VALUES (?, ?, ?)`,
			snap.ID, id, i)
		if err != nil {
			return fmt.Errorf("insert sample %s: %w", id, err)
		}
	}

	for _, sampleID := range sortedKeys(snap.SampleOutputs) {
		outputs := snap.SampleOutputs[sampleID]
		for _, role := range sortedKeys(outputs) {
			for i, path := range outputs[role] {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO sample_outputs (snapshot_id, sample_id, role, position, path) VALUES (?, ?, ?, ?, ?)`,
					snap.ID, sampleID, role, i, path)
				if err != nil {
					return fmt.Errorf("insert output %s for %s: %w", role, sampleID, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// insertPaths stores one row per path. A role with no paths gets a single row
// with a NULL path and position -1 so the empty role survives the round trip.
func insertPaths(ctx context.Context, tx *sql.Tx, snapshotID, kind string, roles map[string][]string) error {
	const stmt = `INSERT INTO snapshot_paths (snapshot_id, kind, role, position, path) VALUES (?, ?, ?, ?, ?)`
	for _, role := range sortedKeys(roles) {
		paths := roles[role]
		if len(paths) == 0 {
			if _, err := tx.ExecContext(ctx, stmt, snapshotID, kind, role, -1, nil); err != nil {
				return fmt.Errorf("insert %s role %s: %w", kind, role, err)
			}
			continue
		}
		for i, p := range paths {
			if _, err := tx.ExecContext(ctx, stmt, snapshotID, kind, role, i, p); err != nil {
				return fmt.Errorf("insert %s role %s: %w", kind, role, err)
			}
		}
	}
	return nil
}

// LoadSnapshot retrieves a full snapshot by id.
func (s *Store) LoadSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	snap := &Snapshot{
		Dirs:          make(map[string][]string),
		Files:         make(map[string][]string),
		Samples:       []string{},
		SampleOutputs: make(map[string]map[string][]string),
	}

	var resultsID sql.NullString
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, results_id, run_dir, created_at FROM snapshots WHERE id = ?`, id).
		Scan(&snap.ID, &snap.RunID, &resultsID, &snap.RunDir, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	snap.ResultsID = resultsID.String
	if snap.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, role, position, path FROM snapshot_paths WHERE snapshot_id = ? ORDER BY kind, role, position`, id)
	if err != nil {
		return nil, fmt.Errorf("query snapshot paths: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, role string
		var position int
		var path sql.NullString
		if err := rows.Scan(&kind, &role, &position, &path); err != nil {
			return nil, fmt.Errorf("scan snapshot path: %w", err)
		}

		target := snap.Files
		if kind == kindDir {
			target = snap.Dirs
		}
		if _, ok := target[role]; !ok {
			target[role] = []string{}
		}
		if path.Valid {
			target[role] = append(target[role], path.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot paths: %w", err)
	}

	sampleRows, err := s.db.QueryContext(ctx,
		`SELECT sample_id FROM snapshot_samples WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query snapshot samples: %w", err)
	}
	defer sampleRows.Close()

	for sampleRows.Next() {
		var sampleID string
		if err := sampleRows.Scan(&sampleID); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		snap.Samples = append(snap.Samples, sampleID)
	}
	if err := sampleRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}

	outRows, err := s.db.QueryContext(ctx,
		`SELECT sample_id, role, path FROM sample_outputs WHERE snapshot_id = ? ORDER BY sample_id, role, position`, id)
	if err != nil {
		return nil, fmt.Errorf("query sample outputs: %w", err)
	}
	defer outRows.Close()

	for outRows.Next() {
		var sampleID, role, path string
		if err := outRows.Scan(&sampleID, &role, &path); err != nil {
			return nil, fmt.Errorf("scan sample output: %w", err)
		}
		if snap.SampleOutputs[sampleID] == nil {
			snap.SampleOutputs[sampleID] = make(map[string][]string)
		}
		snap.SampleOutputs[sampleID][role] = append(snap.SampleOutputs[sampleID][role], path)
	}
	if err := outRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sample outputs: %w", err)
	}

	return snap, nil
}

// ListSnapshots returns snapshot summaries, newest first. An empty runID lists
// every run; limit <= 0 means no limit.
func (s *Store) ListSnapshots(ctx context.Context, runID string, limit int) ([]SnapshotSummary, error) {
	query := `SELECT id, run_id, results_id, run_dir, sample_count, created_at FROM snapshots`
	var args []interface{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var summaries []SnapshotSummary
	for rows.Next() {
		var sum SnapshotSummary
		var resultsID sql.NullString
		var created string
		if err := rows.Scan(&sum.ID, &sum.RunID, &resultsID, &sum.RunDir, &sum.SampleCount, &created); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		sum.ResultsID = resultsID.String
		if sum.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return summaries, nil
}

// LatestSnapshot returns the newest full snapshot for runID, or
// ErrSnapshotNotFound when the run was never saved.
func (s *Store) LatestSnapshot(ctx context.Context, runID string) (*Snapshot, error) {
	summaries, err := s.ListSnapshots(ctx, runID, 1)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("%w: run %s", ErrSnapshotNotFound, runID)
	}
	return s.LoadSnapshot(ctx, summaries[0].ID)
}
