package results

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"reelscout/internal/config"
	"reelscout/internal/record"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users must delete the results database after a bump.
const schemaVersion = 2

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrLocked indicates another process holds the results lock.
var ErrLocked = errors.New("results directory locked by another run")

// Run summarizes one pipeline execution.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Queries    int
	Discovered int
	Kept       int
}

// Store persists ranked runs in SQLite. The output directory is guarded by a
// file lock so concurrent runs cannot interleave writes.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the results database, taking the directory
// lock and applying the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.OutputDir, ".reelscout.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire results lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	dbPath := filepath.Join(cfg.Paths.OutputDir, "reelscout.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection and releases the directory lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
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

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start over)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
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
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// SaveRun writes the run summary and every ranked record in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, ranked []record.Ranked) error {
	if run.ID == "" {
		return errors.New("run id required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, query_count, discovered_count, kept_count)
         VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Queries,
		run.Discovered,
		run.Kept,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO movies (
            run_id, rank, score, candidate_id, title, source_url, duration_seconds,
            views, uploader, query, is_old_movie, era, genre, relevance, heuristic,
            verification_attempted, verified, verified_title, release_year,
            runtime_minutes, companies_json, confidence
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare movie insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range ranked {
		verification := r.Verification
		verified := verification != nil && verification.Verified
		var (
			verifiedTitle  string
			releaseYear    int
			runtimeMinutes int
			companiesJSON  any
			confidence     float64
		)
		if verified {
			verifiedTitle = verification.Title
			releaseYear = verification.ReleaseYear
			runtimeMinutes = verification.RuntimeMinutes
			confidence = verification.Confidence
			if len(verification.Companies) > 0 {
				encoded, err := json.Marshal(verification.Companies)
				if err != nil {
					return fmt.Errorf("marshal companies: %w", err)
				}
				companiesJSON = string(encoded)
			}
		}

		if _, err := stmt.ExecContext(ctx,
			run.ID,
			r.Rank,
			r.Score,
			r.Candidate.ID,
			r.Candidate.Title,
			nullableString(r.Candidate.SourceURL),
			r.Candidate.Duration,
			r.Candidate.Views,
			nullableString(r.Candidate.Uploader),
			nullableString(r.Candidate.Query),
			boolToInt(r.Classification.IsOldMovie),
			nullableString(r.Classification.Era),
			nullableString(r.Classification.Genre),
			r.Classification.Relevance,
			boolToInt(r.Classification.Heuristic),
			boolToInt(verification != nil),
			boolToInt(verified),
			nullableString(verifiedTitle),
			releaseYear,
			runtimeMinutes,
			companiesJSON,
			confidence,
		); err != nil {
			return fmt.Errorf("insert movie %s: %w", r.Candidate.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, query_count, discovered_count, kept_count
         FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recent run, or nil when the store is empty.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, finished_at, query_count, discovered_count, kept_count
         FROM runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return &run, nil
}

// RunRecords returns the ranked records of one run in rank order.
func (s *Store) RunRecords(ctx context.Context, runID string) ([]record.Ranked, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, score, candidate_id, title, source_url, duration_seconds,
                views, uploader, query, is_old_movie, era, genre, relevance, heuristic,
                verification_attempted, verified, verified_title, release_year,
                runtime_minutes, companies_json, confidence
         FROM movies WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run records: %w", err)
	}
	defer rows.Close()

	var ranked []record.Ranked
	for rows.Next() {
		var (
			r              record.Ranked
			sourceURL      sql.NullString
			uploader       sql.NullString
			query          sql.NullString
			isOldMovie     int
			era            sql.NullString
			genre          sql.NullString
			heuristic      int
			attempted      int
			verified       int
			verifiedTitle  sql.NullString
			releaseYear    int
			runtimeMinutes int
			companiesJSON  sql.NullString
			confidence     float64
		)
		if err := rows.Scan(
			&r.Rank,
			&r.Score,
			&r.Candidate.ID,
			&r.Candidate.Title,
			&sourceURL,
			&r.Candidate.Duration,
			&r.Candidate.Views,
			&uploader,
			&query,
			&isOldMovie,
			&era,
			&genre,
			&r.Classification.Relevance,
			&heuristic,
			&attempted,
			&verified,
			&verifiedTitle,
			&releaseYear,
			&runtimeMinutes,
			&companiesJSON,
			&confidence,
		); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		r.Candidate.SourceURL = sourceURL.String
		r.Candidate.Uploader = uploader.String
		r.Candidate.Query = query.String
		r.Classification.IsOldMovie = isOldMovie != 0
		r.Classification.Era = era.String
		r.Classification.Genre = genre.String
		r.Classification.Heuristic = heuristic != 0
		switch {
		case verified != 0:
			verification := &record.Verification{
				Verified:       true,
				Title:          verifiedTitle.String,
				ReleaseYear:    releaseYear,
				RuntimeMinutes: runtimeMinutes,
				Confidence:     confidence,
			}
			if companiesJSON.Valid && companiesJSON.String != "" {
				if err := json.Unmarshal([]byte(companiesJSON.String), &verification.Companies); err != nil {
					return nil, fmt.Errorf("decode companies: %w", err)
				}
			}
			r.Verification = verification
		case attempted != 0:
			// A lookup ran and found no confident match. Distinct from
			// records of runs that skipped verification entirely, which
			// restore with no verification at all.
			r.Verification = &record.Verification{}
		}
		ranked = append(ranked, r)
	}
	return ranked, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run         Run
		startedRaw  string
		finishedRaw string
	)
	if err := scanner.Scan(&run.ID, &startedRaw, &finishedRaw, &run.Queries, &run.Discovered, &run.Kept); err != nil {
		return Run{}, err
	}
	if started, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		run.StartedAt = started
	}
	if finished, err := time.Parse(time.RFC3339Nano, finishedRaw); err == nil {
		run.FinishedAt = finished
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
