package sqlite

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/warp/seva-insights/engine"
)

// =============================================================================
// IMPORT - Batch loader that populates the fact table
// =============================================================================

// ImportResult reports what an import wrote.
type ImportResult struct {
	Rows    int
	Regions int
}

// column aliases, matched after lower-casing and stripping "_", "-" and " ".
var importColumns = []struct {
	name    string
	aliases []string
}{
	{"state", []string{"state", "region"}},
	{"district", []string{"district"}},
	{"date", []string{"date"}},
	{"age_0_5", []string{"age_0_5", "enrolment_0_5", "enrollment_0_5"}},
	{"bio_age_5_17", []string{"bio_age_5_17", "bio_update_5_17"}},
	{"bio_age_17_", []string{"bio_age_17_", "bio_age_17_plus", "bio_update_17_plus"}},
	{"demo_age_5_17", []string{"demo_age_5_17", "demo_update_5_17"}},
	{"demo_age_17_", []string{"demo_age_17_", "demo_age_17_plus", "demo_update_17_plus"}},
}

// importKey is the fact table's unique key; date is stored day-first.
type importKey struct {
	state, district, date string
}

// ImportCSV loads a CSV with a header row into aadhaar_stats in one
// transaction. Rows of the file sharing (state, district, date) are summed,
// which rolls pincode-level extracts up to district level. A key already in
// the table is replaced by the file's sum, so re-importing an extract is
// idempotent. Any invalid row aborts the import and nothing is written.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("unable to read header: %w", err)
	}
	colMap := normalizeHeaders(headers)

	idx := make([]int, len(importColumns))
	for i, c := range importColumns {
		col, ok := findColumn(colMap, c.aliases)
		if !ok {
			return ImportResult{}, fmt.Errorf("missing %s column", c.name)
		}
		idx[i] = col
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO aadhaar_stats
		(state, district, date, age_0_5, bio_age_5_17, bio_age_17_, demo_age_5_17, demo_age_17_)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(state, district, date) DO UPDATE SET
			age_0_5 = excluded.age_0_5,
			bio_age_5_17 = excluded.bio_age_5_17,
			bio_age_17_ = excluded.bio_age_17_,
			demo_age_5_17 = excluded.demo_age_5_17,
			demo_age_17_ = excluded.demo_age_17_
	`)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var result ImportResult
	regions := make(map[string]struct{})
	sums := make(map[importKey]*[5]int64)
	var order []importKey
	line := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return ImportResult{}, fmt.Errorf("unable to read CSV: %w", err)
		}
		line++
		if len(record) == 0 {
			continue
		}

		region := getValue(record, idx[0])
		district := getValue(record, idx[1])
		if region == "" {
			return ImportResult{}, fmt.Errorf("line %d: %w", line,
				&engine.MalformedRecordError{Field: "state", District: district, Reason: "empty"})
		}
		if district == "" {
			return ImportResult{}, fmt.Errorf("line %d: %w", line,
				&engine.MalformedRecordError{Field: "district", Reason: "empty"})
		}

		date, err := engine.ParseDate(getValue(record, idx[2]))
		if err != nil {
			return ImportResult{}, fmt.Errorf("line %d: %w", line,
				&engine.MalformedRecordError{Field: "date", District: district, Value: getValue(record, idx[2]), Reason: err.Error()})
		}

		key := importKey{region, district, date.Format("02-01-2006")}
		var counters [5]int64
		for i := 3; i < len(importColumns); i++ {
			raw := getValue(record, idx[i])
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 0 {
				return ImportResult{}, fmt.Errorf("line %d: %w", line,
					&engine.MalformedRecordError{Field: importColumns[i].name, District: district, Date: date, Value: raw, Reason: "expected a non-negative integer"})
			}
			counters[i-3] = n
		}

		sum, ok := sums[key]
		if !ok {
			sum = new([5]int64)
			sums[key] = sum
			order = append(order, key)
		}
		for i, n := range counters {
			sum[i] += n
		}
		result.Rows++
		regions[region] = struct{}{}
	}

	for _, key := range order {
		c := sums[key]
		if _, err := stmt.ExecContext(ctx, key.state, key.district, key.date, c[0], c[1], c[2], c[3], c[4]); err != nil {
			return ImportResult{}, fmt.Errorf("%s/%s/%s: failed to insert: %w", key.state, key.district, key.date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("failed to commit import: %w", err)
	}
	result.Regions = len(regions)
	return result, nil
}

func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for idx, header := range headers {
		normalized := normalizeHeader(header)
		if _, exists := result[normalized]; !exists {
			result[normalized] = idx
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

func findColumn(headers map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if idx, ok := headers[normalizeHeader(name)]; ok {
			return idx, true
		}
	}
	return -1, false
}

func getValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
