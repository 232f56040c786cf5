/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  Defines the JSON structures the dashboard front end consumes. Engine types
  use decimal.Decimal; DTOs carry float64 so charts can plot them directly.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Response: Wrappers combining several DTOs

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: Source types
*/
package api

import (
	"github.com/warp/seva-insights/engine"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// RegionsResponse lists selectable regions and the default selection.
type RegionsResponse struct {
	Regions []string `json:"regions"`
	Default string   `json:"default"`
}

// RegionDemandDTO is one tile of the region demand treemap.
type RegionDemandDTO struct {
	Region string `json:"region"`
	Demand int64  `json:"demand"`
}

// OverviewDTO carries the headline cards for a region.
type OverviewDTO struct {
	Region          string `json:"region"`
	TotalActivity   int64  `json:"total_activity"`
	Enrolments      int64  `json:"new_enrolments"`
	MBURequirement  int64  `json:"mbu_requirement"`
	ActiveDistricts int    `json:"active_districts"`
	RiskDistricts   int    `json:"risk_districts"`
	Records         int    `json:"records"`
}

// DistrictDTO is one row of the gap analysis.
type DistrictDTO struct {
	District       string  `json:"district"`
	Days           int     `json:"days"`
	Enrolment0to5  int64   `json:"age_0_5"`
	BioUpdate5to17 int64   `json:"bio_age_5_17"`
	MeanActivity   float64 `json:"mean_total_activity"`
	GapScore       int64   `json:"gap_score"`
	GapPercentage  float64 `json:"gap_percentage"`
	PriorityScore  float64 `json:"priority_score"`
}

// PriorityDTO is one ranked mobile-van route.
type PriorityDTO struct {
	Rank int `json:"rank"`
	DistrictDTO
}

// DistrictLoadDTO is one bar of the weekday forecast.
type DistrictLoadDTO struct {
	District string  `json:"district"`
	Load     float64 `json:"load"`
}

// ForecastResponse is the predictive allocation view.
type ForecastResponse struct {
	Region             string            `json:"region"`
	Weekday            string            `json:"weekday"`
	Districts          []DistrictLoadDTO `json:"districts"`
	GaugeLoad          float64           `json:"gauge_load"`
	Stress             string            `json:"stress"`
	CurrentWeekday     string            `json:"current_weekday"`
	CurrentWeekdayLoad float64           `json:"current_weekday_load"`
}

// RecordDTO is one raw row with its derived columns.
type RecordDTO struct {
	Date             string `json:"date"`
	Weekday          string `json:"weekday"`
	Region           string `json:"state"`
	District         string `json:"district"`
	Enrolment0to5    int64  `json:"age_0_5"`
	BioUpdate5to17   int64  `json:"bio_age_5_17"`
	BioUpdate17Plus  int64  `json:"bio_age_17_"`
	DemoUpdate5to17  int64  `json:"demo_age_5_17"`
	DemoUpdate17Plus int64  `json:"demo_age_17_"`
	TotalActivity    int64  `json:"total_activity"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toDistrictDTO(s engine.DistrictSummary) DistrictDTO {
	return DistrictDTO{
		District:       s.District,
		Days:           s.Days,
		Enrolment0to5:  s.Enrolment0to5,
		BioUpdate5to17: s.BioUpdate5to17,
		MeanActivity:   s.MeanActivity.InexactFloat64(),
		GapScore:       s.GapScore,
		GapPercentage:  s.GapPercentage.InexactFloat64(),
		PriorityScore:  s.PriorityScore.InexactFloat64(),
	}
}

func toRecordDTO(r engine.AnnotatedRecord) RecordDTO {
	return RecordDTO{
		Date:             r.Date.Format("2006-01-02"),
		Weekday:          r.Weekday.String(),
		Region:           r.Region,
		District:         r.District,
		Enrolment0to5:    r.Enrolment0to5,
		BioUpdate5to17:   r.BioUpdate5to17,
		BioUpdate17Plus:  r.BioUpdate17Plus,
		DemoUpdate5to17:  r.DemoUpdate5to17,
		DemoUpdate17Plus: r.DemoUpdate17Plus,
		TotalActivity:    r.TotalActivity,
	}
}
