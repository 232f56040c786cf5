/*
Package sqlite provides the SQLite-backed fact store accessor.

PURPOSE:
  Reads per-district daily counters from the aadhaar_stats table. The table
  is populated before the dashboard starts (see import.go / askctl import);
  from the dashboard's point of view it is a passive, read-only fact table.

INTERFACES IMPLEMENTED:
  engine.FactStore:   ListRegions, FetchRegion
  engine.DemandStore: DemandByRegion

KEY TABLE:
  aadhaar_stats(state, district, date, age_0_5, bio_age_5_17, bio_age_17_,
                demo_age_5_17, demo_age_17_)
  Keyed by (state, district, date). Dates are day-first text ("31-01-2025").

BOUND PARAMETERS:
  Every region filter is a ? placeholder. Region values never appear in
  query text.

LIFECYCLE:
  Open at process start, Close at shutdown. Open fails with
  engine.ErrStoreUnavailable if the file is missing or the table does not
  exist; callers halt and tell the operator to populate the store first.

  store, err := sqlite.Open("./aadhaar_analysis.db")
  if errors.Is(err, engine.ErrStoreUnavailable) {
      log.Fatal("run `askctl import` first")
  }
  defer store.Close()

SEE ALSO:
  - engine/store.go: Interface definitions
  - store/sqlite/import.go: CSV loader that creates and fills the table
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/seva-insights/engine"
)

// TableName is the fact table read by the accessor.
const TableName = "aadhaar_stats"

// Store implements engine.DemandStore using SQLite.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens an existing, populated store read-only.
func Open(dbPath string) (*Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", engine.ErrStoreUnavailable, dbPath, err)
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_query_only=true")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrStoreUnavailable, err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.Ping(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Create opens (or creates) a writable store and ensures the schema exists.
// Used by the importer; the dashboard itself only calls Open.
func Create(dbPath string) (*Store, error) {
	// Rollback journal rather than WAL, so read-only opens need no -shm file.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=DELETE")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases coherent across calls.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, path: dbPath}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database is reachable and the fact table exists.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrStoreUnavailable, err)
	}

	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		TableName,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: table %s does not exist", engine.ErrStoreUnavailable, TableName)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", engine.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS aadhaar_stats (
		state TEXT NOT NULL,
		district TEXT NOT NULL,
		date TEXT NOT NULL,
		age_0_5 INTEGER NOT NULL DEFAULT 0,
		bio_age_5_17 INTEGER NOT NULL DEFAULT 0,
		bio_age_17_ INTEGER NOT NULL DEFAULT 0,
		demo_age_5_17 INTEGER NOT NULL DEFAULT 0,
		demo_age_17_ INTEGER NOT NULL DEFAULT 0
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_aadhaar_stats_key
		ON aadhaar_stats(state, district, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// FACT STORE (engine.FactStore interface)
// =============================================================================

// ListRegions returns the distinct regions in ascending order.
func (s *Store) ListRegions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT state FROM aadhaar_stats ORDER BY state")
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	defer rows.Close()

	var regions []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, r)
	}
	return regions, rows.Err()
}

// FetchRegion returns every record of region. Any malformed row fails the
// whole read with an engine.MalformedRecordError.
func (s *Store) FetchRegion(ctx context.Context, region string) ([]engine.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT state, district, date, age_0_5, bio_age_5_17, bio_age_17_,
		       demo_age_5_17, demo_age_17_
		FROM aadhaar_stats
		WHERE state = ?
	`

	rows, err := s.db.QueryContext(ctx, query, region)
	if err != nil {
		return nil, fmt.Errorf("failed to query region %q: %w", region, err)
	}
	defer rows.Close()

	var records []engine.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DemandByRegion sums update activity per region across the whole table.
func (s *Store) DemandByRegion(ctx context.Context) ([]engine.RegionDemand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT state,
		       COALESCE(SUM(bio_age_5_17 + bio_age_17_ + demo_age_5_17 + demo_age_17_), 0)
		FROM aadhaar_stats
		GROUP BY state
		ORDER BY state
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query demand: %w", err)
	}
	defer rows.Close()

	var out []engine.RegionDemand
	for rows.Next() {
		var d engine.RegionDemand
		if err := rows.Scan(&d.Region, &d.Demand); err != nil {
			return nil, fmt.Errorf("failed to scan demand: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanRecord(rows *sql.Rows) (engine.Record, error) {
	var (
		r        engine.Record
		date     any
		counters [5]any
	)

	err := rows.Scan(&r.Region, &r.District, &date,
		&counters[0], &counters[1], &counters[2], &counters[3], &counters[4])
	if err != nil {
		return r, fmt.Errorf("failed to scan record: %w", err)
	}

	r.Date, err = parseDateValue(date)
	if err != nil {
		return r, &engine.MalformedRecordError{
			Field: "date", District: r.District, Value: valueString(date), Reason: err.Error(),
		}
	}

	fields := [5]struct {
		name string
		dst  *int64
	}{
		{"age_0_5", &r.Enrolment0to5},
		{"bio_age_5_17", &r.BioUpdate5to17},
		{"bio_age_17_", &r.BioUpdate17Plus},
		{"demo_age_5_17", &r.DemoUpdate5to17},
		{"demo_age_17_", &r.DemoUpdate17Plus},
	}
	for i, f := range fields {
		v, reason := parseCounter(counters[i])
		if reason != "" {
			return r, &engine.MalformedRecordError{
				Field:    f.name,
				District: r.District,
				Date:     r.Date,
				Value:    valueString(counters[i]),
				Reason:   reason,
			}
		}
		*f.dst = v
	}
	return r, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDateValue(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return engine.DateOnly(d), nil
	case string:
		return engine.ParseDate(d)
	case []byte:
		return engine.ParseDate(string(d))
	case nil:
		return time.Time{}, fmt.Errorf("missing")
	default:
		return time.Time{}, fmt.Errorf("unexpected type %T", v)
	}
}

// parseCounter converts a scanned column into a non-negative count.
// A non-empty reason means the value is malformed.
func parseCounter(v any) (int64, string) {
	var n int64
	switch c := v.(type) {
	case int64:
		n = c
	case float64:
		if c != math.Trunc(c) {
			return 0, "not a whole number"
		}
		n = int64(c)
	case []byte:
		return parseCounter(string(c))
	case string:
		s := strings.TrimSpace(c)
		if s == "" {
			return 0, "missing"
		}
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return 0, "not numeric"
			}
			return parseCounter(f)
		}
		n = parsed
	case nil:
		return 0, "missing"
	default:
		return 0, fmt.Sprintf("unexpected type %T", v)
	}
	if n < 0 {
		return 0, "negative counter"
	}
	return n, ""
}

func valueString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(c)
	default:
		return fmt.Sprint(c)
	}
}
