/*
activity.go - Metrics engine: per-row derived columns and region totals

PURPOSE:
  Annotate adds TotalActivity and Weekday to every record. This is the
  single shared computation the gap analyzer and forecast depend on.

TOTAL ACTIVITY:
  TotalActivity = BioUpdate5to17 + BioUpdate17Plus
                + DemoUpdate5to17 + DemoUpdate17Plus

  Enrolments are excluded: activity means update load on the centers,
  not new enrolment.

VALIDATION:
  Counters must be >= 0 and the date must be set. The first violation
  aborts the whole call with a MalformedRecordError naming the field.

SEE ALSO:
  - gap.go: Consumes AnnotatedRecord
  - forecast.go: Consumes AnnotatedRecord
*/
package engine

import (
	"sort"
	"strconv"
)

// Annotate returns a new slice with derived columns for every record.
// The input is never modified; calling it twice yields identical output.
func Annotate(records []Record) ([]AnnotatedRecord, error) {
	out := make([]AnnotatedRecord, len(records))
	for i, r := range records {
		if err := validateRecord(r); err != nil {
			return nil, err
		}
		out[i] = AnnotatedRecord{
			Record:        r,
			TotalActivity: TotalActivity(r),
			Weekday:       r.Date.Weekday(),
		}
	}
	return out, nil
}

// TotalActivity is the update load of a single record.
func TotalActivity(r Record) int64 {
	return r.BioUpdate5to17 + r.BioUpdate17Plus + r.DemoUpdate5to17 + r.DemoUpdate17Plus
}

func validateRecord(r Record) error {
	if r.District == "" {
		return &MalformedRecordError{Field: "district", Date: r.Date, Reason: "empty"}
	}
	if r.Date.IsZero() {
		return &MalformedRecordError{Field: "date", District: r.District, Reason: "missing"}
	}
	counters := []struct {
		field string
		value int64
	}{
		{"age_0_5", r.Enrolment0to5},
		{"bio_age_5_17", r.BioUpdate5to17},
		{"bio_age_17_", r.BioUpdate17Plus},
		{"demo_age_5_17", r.DemoUpdate5to17},
		{"demo_age_17_", r.DemoUpdate17Plus},
	}
	for _, c := range counters {
		if c.value < 0 {
			return &MalformedRecordError{
				Field:    c.field,
				District: r.District,
				Date:     r.Date,
				Value:    strconv.FormatInt(c.value, 10),
				Reason:   "negative counter",
			}
		}
	}
	return nil
}

// ComputeTotals sums the headline card figures over a region's records.
func ComputeTotals(records []AnnotatedRecord) Totals {
	var t Totals
	districts := make(map[string]struct{})
	for _, r := range records {
		t.TotalActivity += r.TotalActivity
		t.Enrolments += r.Enrolment0to5
		t.MBURequirement += r.BioUpdate5to17
		districts[r.District] = struct{}{}
	}
	t.ActiveDistricts = len(districts)
	return t
}

// SortNewestFirst orders records by date descending, district ascending.
// It sorts a copy; the argument is left as it was.
func SortNewestFirst(records []AnnotatedRecord) []AnnotatedRecord {
	out := make([]AnnotatedRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].District < out[j].District
	})
	return out
}
