package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/profscan/internal/model"
)

// dbFileName is the SQLite file name inside the data directory.
const dbFileName = "profscan.db"

// HarvestDB provides SQLite-based storage for harvest runs.
// It manages connection pooling and provides methods for saving and
// listing archived runs.
//
// Design decision: We use a single database file for all runs rather than
// one file per run. This keeps the runs listing a single query and makes
// backup/restore a single-file operation.
type HarvestDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HarvestDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HarvestDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned. The runs command uses the latter mode so listing never creates
// an empty archive.
func Open(dbDir string, opts Options) (*HarvestDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; keep the pool at a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HarvestDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HarvestDB) Close() error {
	return hdb.db.Close()
}

// Path returns the path of the underlying database file.
func (hdb *HarvestDB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HarvestDB) createTables() error {
	schema := `
	-- One row per archived harvest run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		seeds TEXT NOT NULL,
		marker TEXT NOT NULL,
		discovered INTEGER NOT NULL,
		dispatched INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		cancelled INTEGER NOT NULL DEFAULT 0,
		failure_breakdown TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Extracted profiles, unique per run and source URL
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		primary_phone TEXT,
		secondary_phone TEXT,
		postal_code TEXT,
		city TEXT,
		street TEXT,
		email TEXT,
		source_url TEXT NOT NULL,
		UNIQUE(run_id, source_url)
	);

	CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);

	-- Per-URL failures, discovery included
	CREATE TABLE IF NOT EXISTS failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		reason TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is one archived harvest run as listed by the runs command.
type Run struct {
	ID         int64
	StartedAt  time.Time
	Elapsed    time.Duration
	Seeds      []string
	Marker     string
	Discovered int
	Dispatched int
	Succeeded  int
	Failed     int
	Cancelled  bool
}

// SaveReport archives a completed harvest run and returns its run ID.
// The run row and all record and failure rows are written in a single
// transaction, so a run is either fully archived or absent.
func (hdb *HarvestDB) SaveReport(ctx context.Context, report *model.HarvestReport) (int64, error) {
	summary := report.Summary()

	seedsJSON, err := json.Marshal(report.Seeds)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize seeds: %w", err)
	}
	breakdownJSON, err := json.Marshal(summary.FailureBreakdown)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize failure breakdown: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, elapsed_ms, seeds, marker, discovered, dispatched, succeeded, failed, cancelled, failure_breakdown)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.Elapsed.Milliseconds(),
		string(seedsJSON),
		report.Marker,
		report.Discovered,
		report.Dispatched,
		summary.Succeeded,
		summary.Failed,
		report.Cancelled,
		string(breakdownJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	recordStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO records (run_id, name, primary_phone, secondary_phone, postal_code, city, street, email, source_url)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, source_url) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer recordStmt.Close() //nolint:errcheck

	for _, record := range report.Records {
		if _, err := recordStmt.ExecContext(ctx,
			runID,
			record.Name,
			record.PrimaryPhone,
			record.SecondaryPhone,
			record.PostalCode,
			record.City,
			record.Street,
			record.Email,
			record.SourceURL,
		); err != nil {
			return 0, fmt.Errorf("failed to insert record for %s: %w", record.SourceURL, err)
		}
	}

	failureStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO failures (run_id, url, kind, reason)
	VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare failure insert: %w", err)
	}
	defer failureStmt.Close() //nolint:errcheck

	for _, failure := range report.Failures {
		if _, err := failureStmt.ExecContext(ctx,
			runID,
			failure.URL,
			failure.Kind.String(),
			failure.Reason,
		); err != nil {
			return 0, fmt.Errorf("failed to insert failure for %s: %w", failure.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RecentRuns lists archived runs, newest first.
// A non-positive limit lists all runs.
func (hdb *HarvestDB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
	SELECT id, started_at, elapsed_ms, seeds, marker, discovered, dispatched, succeeded, failed, cancelled
	FROM runs
	ORDER BY started_at DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt, seedsJSON string
		var elapsedMS int64

		if err := rows.Scan(
			&run.ID,
			&startedAt,
			&elapsedMS,
			&seedsJSON,
			&run.Marker,
			&run.Discovered,
			&run.Dispatched,
			&run.Succeeded,
			&run.Failed,
			&run.Cancelled,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt = parseTimestamp(startedAt)
		run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if err := json.Unmarshal([]byte(seedsJSON), &run.Seeds); err != nil {
			return nil, fmt.Errorf("failed to parse seeds: %w", err)
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// ProfilesByRun returns the archived records of one run in insertion order.
func (hdb *HarvestDB) ProfilesByRun(ctx context.Context, runID int64) ([]model.ProfileRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT name, primary_phone, secondary_phone, postal_code, city, street, email, source_url
	FROM records
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var records []model.ProfileRecord
	for rows.Next() {
		var record model.ProfileRecord
		if err := rows.Scan(
			&record.Name,
			&record.PrimaryPhone,
			&record.SecondaryPhone,
			&record.PostalCode,
			&record.City,
			&record.Street,
			&record.Email,
			&record.SourceURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// parseTimestamp parses a stored timestamp, tolerating the formats SQLite
// may hand back depending on how the value was written.
func parseTimestamp(value string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
