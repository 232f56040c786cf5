/*
Package engine provides the derived-metrics and prioritization engine.

PURPOSE:
  Turns raw per-district daily counters into the figures the dashboard shows:
  total update activity, district gap and priority rankings, and day-of-week
  demand forecasts. Every function in this package is pure. Nothing here
  touches the fact store except through the FactStore interface.

KEY CONCEPTS IN THIS FILE (types.go):
  - Record: One row of the fact table (region, district, date, counters)
  - AnnotatedRecord: Record plus TotalActivity and Weekday
  - DistrictSummary: Per-district sums, mean activity, gap and priority
  - Totals: Region-wide card figures

DESIGN PRINCIPLES:
  1. Immutability: Records are never modified once read
  2. Precision: Means, percentages and scores use decimal.Decimal so equal
     scores compare equal and tie-breaks stay deterministic
  3. Determinism: Every ordering has an explicit key and tie-break

USAGE:
  annotated, err := engine.Annotate(records)
  summaries := engine.Summarize(annotated)
  top, err := engine.RankPriority(summaries, 5)

SEE ALSO:
  - activity.go: Annotate and totals
  - gap.go: Gap & priority analysis
  - forecast.go: Weekday demand
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORD - One row of the fact table
// =============================================================================

// Record is one district's counters for one day in one region.
type Record struct {
	Region   string
	District string
	Date     time.Time

	Enrolment0to5    int64 // new enrolments, age 0-5
	BioUpdate5to17   int64 // biometric updates, age 5-17
	BioUpdate17Plus  int64 // biometric updates, age 17+
	DemoUpdate5to17  int64 // demographic updates, age 5-17
	DemoUpdate17Plus int64 // demographic updates, age 17+
}

// AnnotatedRecord is a Record with its derived columns.
type AnnotatedRecord struct {
	Record
	TotalActivity int64
	Weekday       time.Weekday
}

// =============================================================================
// DISTRICT SUMMARY - Gap & priority per district
// =============================================================================

// DistrictSummary aggregates one district over the loaded record set.
type DistrictSummary struct {
	District       string
	Days           int
	Enrolment0to5  int64
	BioUpdate5to17 int64
	TotalActivity  int64
	MeanActivity   decimal.Decimal

	// GapScore is max(0, Enrolment0to5 - BioUpdate5to17).
	GapScore int64
	// GapPercentage is the gap relative to enrolments, 0 when there are none.
	GapPercentage decimal.Decimal
	// PriorityScore = GapPercentage * MeanActivity / 100. Relative only.
	PriorityScore decimal.Decimal
}

// =============================================================================
// TOTALS - Region-wide card figures
// =============================================================================

// Totals holds the headline numbers for a region.
type Totals struct {
	TotalActivity   int64 // total ASK load
	Enrolments      int64
	MBURequirement  int64 // sum of bio_update_5_17
	ActiveDistricts int
}

// RegionDemand is the summed activity of one region across the whole store.
type RegionDemand struct {
	Region string
	Demand int64
}
