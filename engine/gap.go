/*
gap.go - Gap & priority analyzer

PURPOSE:
  Groups annotated records by district and measures the shortfall between
  new enrolments (age 0-5) and biometric updates (age 5-17). The gap and
  the district's average load combine into the mobile-unit priority score.

FORMULAS:
  GapScore      = max(0, Enrolment0to5 - BioUpdate5to17)
  GapPercentage = max(0, (Enrolment0to5 - BioUpdate5to17) / Enrolment0to5 * 100)
                  0 when Enrolment0to5 == 0
  PriorityScore = GapPercentage * MeanActivity / 100
                = GapScore * TotalActivity / (Enrolment0to5 * Days)

  Each ratio is a single division of exact integers, so two districts with
  the same rational score get the same decimal and fall through to the
  district-name tie-break.

EXAMPLE:
  Pune: enrolments 100, bio 5-17 40, activity 60 over one day
    GapScore = 60, GapPercentage = 60, PriorityScore = 36

ORDERING:
  RankPriority sorts by PriorityScore descending, then district ascending.
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summarize groups records by district. Output is sorted by district name.
func Summarize(records []AnnotatedRecord) []DistrictSummary {
	byDistrict := make(map[string]*DistrictSummary)
	for _, r := range records {
		s, ok := byDistrict[r.District]
		if !ok {
			s = &DistrictSummary{District: r.District}
			byDistrict[r.District] = s
		}
		s.Days++
		s.Enrolment0to5 += r.Enrolment0to5
		s.BioUpdate5to17 += r.BioUpdate5to17
		s.TotalActivity += r.TotalActivity
	}

	out := make([]DistrictSummary, 0, len(byDistrict))
	for _, s := range byDistrict {
		s.MeanActivity = decimal.NewFromInt(s.TotalActivity).Div(decimal.NewFromInt(int64(s.Days)))
		s.GapScore, s.GapPercentage = Gap(s.Enrolment0to5, s.BioUpdate5to17)
		s.PriorityScore = priorityScore(s)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].District < out[j].District })
	return out
}

// Gap returns the clamped gap score and gap percentage for one district.
func Gap(enrolments, bioUpdates int64) (int64, decimal.Decimal) {
	diff := enrolments - bioUpdates
	// Counters are non-negative, so diff > 0 implies enrolments > 0.
	if diff <= 0 || enrolments <= 0 {
		return 0, decimal.Zero
	}
	pct := decimal.NewFromInt(diff).Mul(hundred).Div(decimal.NewFromInt(enrolments))
	return diff, pct
}

func priorityScore(s *DistrictSummary) decimal.Decimal {
	if s.GapScore == 0 || s.Days == 0 {
		return decimal.Zero
	}
	num := decimal.NewFromInt(s.GapScore).Mul(decimal.NewFromInt(s.TotalActivity))
	den := decimal.NewFromInt(s.Enrolment0to5).Mul(decimal.NewFromInt(int64(s.Days)))
	return num.Div(den)
}

// RankPriority returns the top N districts by PriorityScore.
// Length is min(topN, len(summaries)).
func RankPriority(summaries []DistrictSummary, topN int) ([]DistrictSummary, error) {
	if topN <= 0 {
		return nil, ErrInvalidTopN
	}
	ranked := make([]DistrictSummary, len(summaries))
	copy(ranked, summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		if c := ranked[i].PriorityScore.Cmp(ranked[j].PriorityScore); c != 0 {
			return c > 0
		}
		return ranked[i].District < ranked[j].District
	})
	if topN < len(ranked) {
		ranked = ranked[:topN]
	}
	return ranked, nil
}

// CountRiskDistricts counts districts whose GapPercentage exceeds threshold.
func CountRiskDistricts(summaries []DistrictSummary, threshold decimal.Decimal) int {
	n := 0
	for _, s := range summaries {
		if s.GapPercentage.GreaterThan(threshold) {
			n++
		}
	}
	return n
}
