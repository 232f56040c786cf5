/*
forecast.go - Day-of-week demand aggregation

PURPOSE:
  The "predictive allocation" view. For every (district, weekday) pair seen
  in the records, the forecast is the historical mean of TotalActivity on
  that weekday. It is a mean, not a model: pairs absent from the input are
  never invented.

STRESS GAUGE:
  The gauge value is the mean load of the selected weekday's top districts.
  Bands follow the dashboard gauge:
    [0, 2000)    normal
    [2000, 4000) elevated
    [4000, ...)  critical

REFERENCE TIME:
  CurrentWeekdayLoad takes the reference time as an argument. Nothing in
  this file reads the wall clock.
*/
package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// WeekdayKey identifies one district on one weekday.
type WeekdayKey struct {
	District string
	Weekday  time.Weekday
}

// WeekdayDemand maps (district, weekday) to mean TotalActivity.
type WeekdayDemand map[WeekdayKey]decimal.Decimal

// DistrictLoad is one entry of a ranked weekday forecast.
type DistrictLoad struct {
	District string
	Load     decimal.Decimal
}

// StressLevel is the gauge band of a load value.
type StressLevel string

const (
	StressNormal   StressLevel = "normal"
	StressElevated StressLevel = "elevated"
	StressCritical StressLevel = "critical"
)

var (
	elevatedLoad = decimal.NewFromInt(2000)
	criticalLoad = decimal.NewFromInt(4000)
)

// WeekdayMeans averages TotalActivity per district per weekday.
func WeekdayMeans(records []AnnotatedRecord) WeekdayDemand {
	type acc struct {
		sum   int64
		count int64
	}
	sums := make(map[WeekdayKey]*acc)
	for _, r := range records {
		k := WeekdayKey{District: r.District, Weekday: r.Weekday}
		a, ok := sums[k]
		if !ok {
			a = &acc{}
			sums[k] = a
		}
		a.sum += r.TotalActivity
		a.count++
	}

	means := make(WeekdayDemand, len(sums))
	for k, a := range sums {
		means[k] = decimal.NewFromInt(a.sum).Div(decimal.NewFromInt(a.count))
	}
	return means
}

// TopForWeekday ranks districts by their mean load on day.
// Sorted by load descending, then district ascending.
func TopForWeekday(means WeekdayDemand, day time.Weekday, topN int) ([]DistrictLoad, error) {
	if topN <= 0 {
		return nil, ErrInvalidTopN
	}
	var loads []DistrictLoad
	for k, v := range means {
		if k.Weekday == day {
			loads = append(loads, DistrictLoad{District: k.District, Load: v})
		}
	}
	sort.Slice(loads, func(i, j int) bool {
		if c := loads[i].Load.Cmp(loads[j].Load); c != 0 {
			return c > 0
		}
		return loads[i].District < loads[j].District
	})
	if topN < len(loads) {
		loads = loads[:topN]
	}
	return loads, nil
}

// CurrentWeekdayLoad returns the mean, across districts, of the loads
// recorded for now's weekday. If there are none it returns fallback.
func CurrentWeekdayLoad(means WeekdayDemand, now time.Time, fallback decimal.Decimal) decimal.Decimal {
	day := now.Weekday()
	sum := decimal.Zero
	n := 0
	for k, v := range means {
		if k.Weekday == day {
			sum = sum.Add(v)
			n++
		}
	}
	if n == 0 {
		return fallback
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}

// GaugeLoad is the mean load of a ranked forecast. Zero for an empty list.
func GaugeLoad(loads []DistrictLoad) decimal.Decimal {
	if len(loads) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, l := range loads {
		sum = sum.Add(l.Load)
	}
	return sum.Div(decimal.NewFromInt(int64(len(loads))))
}

// Stress classifies a load into a gauge band.
func Stress(load decimal.Decimal) StressLevel {
	switch {
	case load.LessThan(elevatedLoad):
		return StressNormal
	case load.LessThan(criticalLoad):
		return StressElevated
	default:
		return StressCritical
	}
}
