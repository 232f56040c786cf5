package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ANALYSIS - Accessor -> Metrics -> {Gap & Priority, Forecast}
// =============================================================================

// Analysis is everything derived from one region's record set.
// It holds no references to the store and is safe to share read-only.
type Analysis struct {
	Region    string
	Records   []AnnotatedRecord
	Totals    Totals
	Districts []DistrictSummary
	Demand    WeekdayDemand
}

// Analyze runs the metrics engine, gap analyzer and weekday aggregation.
func Analyze(region string, records []Record) (*Analysis, error) {
	annotated, err := Annotate(records)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", region, err)
	}
	return &Analysis{
		Region:    region,
		Records:   annotated,
		Totals:    ComputeTotals(annotated),
		Districts: Summarize(annotated),
		Demand:    WeekdayMeans(annotated),
	}, nil
}

// LoadAnalysis fetches region from the store and analyzes it.
// The region must be one of the store's enumerated regions.
func LoadAnalysis(ctx context.Context, store FactStore, region string) (*Analysis, error) {
	regions, err := store.ListRegions(ctx)
	if err != nil {
		return nil, err
	}
	if !containsRegion(regions, region) {
		return nil, fmt.Errorf("%w: %q", ErrRegionNotFound, region)
	}

	records, err := store.FetchRegion(ctx, region)
	if err != nil {
		return nil, err
	}
	return Analyze(region, records)
}

// RiskDistricts counts districts with a gap above thresholdPct.
func (a *Analysis) RiskDistricts(thresholdPct decimal.Decimal) int {
	return CountRiskDistricts(a.Districts, thresholdPct)
}

// SelectRegion picks preferred when present, else the first region.
// regions is expected in ascending order as returned by ListRegions.
func SelectRegion(regions []string, preferred string) (string, error) {
	if len(regions) == 0 {
		return "", fmt.Errorf("%w: store has no regions", ErrStoreUnavailable)
	}
	if preferred != "" && containsRegion(regions, preferred) {
		return preferred, nil
	}
	return regions[0], nil
}

func containsRegion(regions []string, region string) bool {
	if sort.StringsAreSorted(regions) {
		i := sort.SearchStrings(regions, region)
		return i < len(regions) && regions[i] == region
	}
	for _, r := range regions {
		if r == region {
			return true
		}
	}
	return false
}
