/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Region listing and default selection
- Overview, gap analysis, priority and forecast views
- Error statuses (unknown region, bad parameters)
- Exports (PDF, xlsx, PNG) and their rate limit
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/seva-insights/config"
	"github.com/warp/seva-insights/engine"
	"github.com/warp/seva-insights/engine/store"
)

// 2026-10-19 is a Monday.
var testNow = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
}

func testRecords() []engine.Record {
	return []engine.Record{
		// Akola: total 60, gap 60 (60%), priority 36. Monday.
		{Region: "Maharashtra", District: "Akola", Date: day(6), Enrolment0to5: 100, BioUpdate5to17: 40, BioUpdate17Plus: 10, DemoUpdate5to17: 5, DemoUpdate17Plus: 5},
		// Pune: fully covered. Tuesday.
		{Region: "Maharashtra", District: "Pune", Date: day(7), Enrolment0to5: 50, BioUpdate5to17: 50},
		{Region: "Goa", District: "North Goa", Date: day(6), Enrolment0to5: 3, BioUpdate5to17: 1},
	}
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) http.Handler {
	t.Helper()
	cfg := config.Default()
	for _, m := range mutate {
		m(&cfg)
	}
	h := NewHandler(store.NewMemory(testRecords()...), cfg).WithClock(func() time.Time { return testNow })
	return NewRouter(h)
}

func get(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// REGIONS
// =============================================================================

func TestListRegions(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/api/regions")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[RegionsResponse](t, rec)
	assert.Equal(t, []string{"Goa", "Maharashtra"}, resp.Regions)
	assert.Equal(t, "Maharashtra", resp.Default)
}

func TestListRegions_PreferredAbsentFallsBackToFirst(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.Dashboard.PreferredRegion = "Kerala" })

	resp := decode[RegionsResponse](t, get(t, srv, "/api/regions"))
	assert.Equal(t, "Goa", resp.Default)
}

func TestListRegions_EmptyStore(t *testing.T) {
	h := NewHandler(store.NewMemory(), config.Default())

	rec := get(t, NewRouter(h), "/api/regions")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDemand(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/demand")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[[]RegionDemandDTO](t, rec)
	assert.Equal(t, []RegionDemandDTO{
		{Region: "Goa", Demand: 1},
		{Region: "Maharashtra", Demand: 110},
	}, resp)
}

// =============================================================================
// REGION VIEWS
// =============================================================================

func TestOverview(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/regions/Maharashtra/overview")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[OverviewDTO](t, rec)
	assert.Equal(t, "Maharashtra", resp.Region)
	assert.Equal(t, int64(110), resp.TotalActivity)
	assert.Equal(t, int64(150), resp.Enrolments)
	assert.Equal(t, int64(90), resp.MBURequirement)
	assert.Equal(t, 2, resp.ActiveDistricts)
	assert.Equal(t, 1, resp.RiskDistricts)
	assert.Equal(t, 2, resp.Records)
}

func TestOverview_UnknownRegion(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/regions/Atlantis/overview")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	assert.Contains(t, resp.Details, "Atlantis")
}

func TestDistricts(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/regions/Maharashtra/districts")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[[]DistrictDTO](t, rec)
	require.Len(t, resp, 2)
	assert.Equal(t, "Akola", resp[0].District)
	assert.Equal(t, int64(60), resp[0].GapScore)
	assert.InDelta(t, 60.0, resp[0].GapPercentage, 1e-9)
	assert.InDelta(t, 36.0, resp[0].PriorityScore, 1e-9)
	assert.Equal(t, "Pune", resp[1].District)
	assert.Equal(t, int64(0), resp[1].GapScore)
}

func TestPriority(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/api/regions/Maharashtra/priority?top=1")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[[]PriorityDTO](t, rec)
	require.Len(t, resp, 1)
	assert.Equal(t, 1, resp[0].Rank)
	assert.Equal(t, "Akola", resp[0].District)
}

func TestPriority_InvalidTop(t *testing.T) {
	srv := newTestServer(t)

	for _, top := range []string{"0", "-3", "five"} {
		rec := get(t, srv, "/api/regions/Maharashtra/priority?top="+top)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "top=%s", top)
	}
}

func TestForecast_DefaultsToToday(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/regions/Maharashtra/forecast")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[ForecastResponse](t, rec)
	assert.Equal(t, "Monday", resp.Weekday)
	require.Len(t, resp.Districts, 1)
	assert.Equal(t, "Akola", resp.Districts[0].District)
	assert.InDelta(t, 60.0, resp.Districts[0].Load, 1e-9)
	assert.InDelta(t, 60.0, resp.GaugeLoad, 1e-9)
	assert.Equal(t, string(engine.StressNormal), resp.Stress)
	assert.Equal(t, "Monday", resp.CurrentWeekday)
	assert.InDelta(t, 60.0, resp.CurrentWeekdayLoad, 1e-9)
}

func TestForecast_SelectedDay(t *testing.T) {
	resp := decode[ForecastResponse](t, get(t, newTestServer(t), "/api/regions/Maharashtra/forecast?day=tuesday"))

	assert.Equal(t, "Tuesday", resp.Weekday)
	require.Len(t, resp.Districts, 1)
	assert.Equal(t, "Pune", resp.Districts[0].District)
	// Today's load is still Monday's.
	assert.InDelta(t, 60.0, resp.CurrentWeekdayLoad, 1e-9)
}

func TestForecast_NoDataForDay(t *testing.T) {
	resp := decode[ForecastResponse](t, get(t, newTestServer(t), "/api/regions/Maharashtra/forecast?day=Sunday"))

	assert.Empty(t, resp.Districts)
	assert.Zero(t, resp.GaugeLoad)
}

func TestForecast_UnknownDay(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/regions/Maharashtra/forecast?day=Funday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecords_NewestFirst(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/regions/Maharashtra/records")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[[]RecordDTO](t, rec)
	require.Len(t, resp, 2)
	assert.Equal(t, "2025-01-07", resp[0].Date)
	assert.Equal(t, "Tuesday", resp[0].Weekday)
	assert.Equal(t, "2025-01-06", resp[1].Date)
	assert.Equal(t, int64(60), resp[1].TotalActivity)
}

func TestMalformedRecordIsServerError(t *testing.T) {
	bad := engine.Record{Region: "Bihar", District: "Patna", Date: day(6), BioUpdate5to17: -1}
	h := NewHandler(store.NewMemory(bad), config.Default())

	rec := get(t, NewRouter(h), "/api/regions/Bihar/overview")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "bio_age_5_17")
}

// =============================================================================
// EXPORTS
// =============================================================================

func TestReportPDF(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/regions/Maharashtra/report.pdf")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Aadhaar_Report_Maharashtra.pdf")
	assert.NotEmpty(t, rec.Header().Get("X-Report-ID"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestRecordsXLSX(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/regions/Goa/records.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Aadhaar_Report_Goa_records.xlsx")
	// xlsx is a zip container.
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestCharts(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{
		"/api/regions/Maharashtra/charts/priority.png",
		"/api/regions/Maharashtra/charts/forecast.png?day=Monday",
	} {
		rec := get(t, srv, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")), path)
	}

	// A weekday with no history still renders.
	rec := get(t, srv, "/api/regions/Maharashtra/charts/forecast.png?day=Sunday")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = get(t, srv, "/api/regions/Maharashtra/charts/pie.png")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportRateLimit(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.Exports.RatePerSecond = 0.001
		c.Exports.Burst = 1
	})

	first := get(t, srv, "/api/regions/Goa/report.pdf")
	require.Equal(t, http.StatusOK, first.Code)

	second := get(t, srv, "/api/regions/Goa/report.pdf")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// JSON views are not throttled.
	assert.Equal(t, http.StatusOK, get(t, srv, "/api/regions/Goa/overview").Code)
}

// =============================================================================
// HEALTH AND CACHE
// =============================================================================

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalysisIsCached(t *testing.T) {
	mem := store.NewMemory(testRecords()...)
	h := NewHandler(mem, config.Default())
	srv := NewRouter(h)

	before := decode[OverviewDTO](t, get(t, srv, "/api/regions/Goa/overview"))
	mem.Add(engine.Record{Region: "Goa", District: "South Goa", Date: day(6), BioUpdate5to17: 9})

	cached := decode[OverviewDTO](t, get(t, srv, "/api/regions/Goa/overview"))
	assert.Equal(t, before, cached)

	h.FlushCache()
	fresh := decode[OverviewDTO](t, get(t, srv, "/api/regions/Goa/overview"))
	assert.Equal(t, int64(10), fresh.TotalActivity)
	assert.Equal(t, 2, fresh.ActiveDistricts)
}

func TestCacheWarmer_SkipsMalformedRegions(t *testing.T) {
	bad := engine.Record{Region: "Bihar", District: "Patna", Date: day(6), BioUpdate5to17: -1}
	h := NewHandler(store.NewMemory(append(testRecords(), bad)...), config.Default())

	warmer := NewCacheWarmer(h, time.Minute)
	assert.Equal(t, 2, warmer.RunNow(context.Background()))

	_, found := h.analyses.Get("Goa")
	assert.True(t, found)
	_, found = h.analyses.Get("Bihar")
	assert.False(t, found)
}

func TestCacheWarmer_DisabledDoesNotStart(t *testing.T) {
	warmer := NewCacheWarmer(NewHandler(store.NewMemory(), config.Default()), 0)
	warmer.Start()
	warmer.Stop()
	assert.Nil(t, warmer.ticker)
}

func TestCacheWarmer_RestartAfterStop(t *testing.T) {
	h := NewHandler(store.NewMemory(testRecords()...), config.Default())
	warmer := NewCacheWarmer(h, time.Hour)

	warmer.Start()
	warmer.Stop()
	warmer.Start()
	require.NotNil(t, warmer.ticker, "second Start runs again")

	assert.NotPanics(t, warmer.Stop)
	assert.Nil(t, warmer.ticker)
}

func TestRegionParam_DecodesOnce(t *testing.T) {
	records := []engine.Record{
		{Region: "Daman%20Diu", District: "Daman", Date: day(6), BioUpdate5to17: 4},
		{Region: "Dadra/Nagar Haveli", District: "Silvassa", Date: day(6), BioUpdate5to17: 7},
	}
	srv := NewRouter(NewHandler(store.NewMemory(records...), config.Default()))

	// Literal "%20" in the name arrives as "%2520".
	rec := get(t, srv, "/api/regions/Daman%2520Diu/overview")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Daman%20Diu", decode[OverviewDTO](t, rec).Region)

	// An escaped "/" keeps the name in one segment.
	rec = get(t, srv, "/api/regions/Dadra%2FNagar%20Haveli/overview")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Dadra/Nagar Haveli", decode[OverviewDTO](t, rec).Region)
}
