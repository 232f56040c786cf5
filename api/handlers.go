/*
handlers.go - HTTP API handlers for the regional analytics dashboard

PURPOSE:
  Exposes the metrics engine to the dashboard front end. Handlers parse the
  request, load (or reuse) the region analysis, and serialize the result.
  No metric is computed here; everything comes from the engine package.

ENDPOINTS:
  Regions:
    GET /api/regions                         Selectable regions + default
    GET /api/demand                          Demand per region (treemap)

  Region views:
    GET /api/regions/{region}/overview       Headline cards
    GET /api/regions/{region}/districts      MBU gap analysis
    GET /api/regions/{region}/priority       Mobile van ranking (?top=N)
    GET /api/regions/{region}/forecast       Weekday forecast (?day=Monday&top=N)
    GET /api/regions/{region}/records        Raw data, newest first

  Exports (rate limited):
    GET /api/regions/{region}/records.xlsx
    GET /api/regions/{region}/report.pdf
    GET /api/regions/{region}/charts/{chart}.png   chart = priority | forecast

ANALYSIS CACHE:
  The fact store is read-only while the server runs, so a region's Analysis
  is cached (go-cache, TTL from config) and shared across requests.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Bad top N or weekday
  - 404: Region not in the store
  - 429: Export rate limit exceeded
  - 503: Fact store unavailable
  - 500: Malformed records, render failures, anything else

SEE ALSO:
  - dto.go: Response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/warp/seva-insights/config"
	"github.com/warp/seva-insights/engine"
	"github.com/warp/seva-insights/metrics"
	"github.com/warp/seva-insights/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  engine.DemandStore
	Config config.DashboardConfig

	analyses      *cache.Cache
	exportLimiter *rate.Limiter
	riskThreshold decimal.Decimal

	// now is the reference clock for "today" and report timestamps.
	now func() time.Time
}

// NewHandler creates a new handler with the given store and configuration.
func NewHandler(store engine.DemandStore, cfg config.Config) *Handler {
	ttl := cfg.Dashboard.CacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Handler{
		Store:         store,
		Config:        cfg.Dashboard,
		analyses:      cache.New(ttl, 2*ttl),
		exportLimiter: rate.NewLimiter(rate.Limit(cfg.Exports.RatePerSecond), cfg.Exports.Burst),
		riskThreshold: decimal.NewFromFloat(cfg.Dashboard.RiskThresholdPct),
		now:           time.Now,
	}
}

// WithClock replaces the reference clock.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// analysis returns the cached analysis of the request's region.
func (h *Handler) analysis(ctx context.Context, region string) (*engine.Analysis, error) {
	if v, ok := h.analyses.Get(region); ok {
		metrics.AnalysisLoads.WithLabelValues("hit").Inc()
		return v.(*engine.Analysis), nil
	}

	a, err := engine.LoadAnalysis(ctx, h.Store, region)
	if err != nil {
		metrics.AnalysisLoads.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.AnalysisLoads.WithLabelValues("miss").Inc()
	h.analyses.SetDefault(region, a)
	return a, nil
}

// regionAnalysis resolves {region} and writes the error response on failure.
func (h *Handler) regionAnalysis(w http.ResponseWriter, r *http.Request) (*engine.Analysis, bool) {
	region := regionParam(r)
	a, err := h.analysis(r.Context(), region)
	if err != nil {
		writeEngineError(w, fmt.Sprintf("Failed to load region %q", region), err)
		return nil, false
	}
	return a, true
}

// FlushCache drops every cached analysis.
func (h *Handler) FlushCache() {
	h.analyses.Flush()
}

// =============================================================================
// HEALTH
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports whether the fact store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Fact store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// REGION HANDLERS
// =============================================================================

// ListRegions returns the selectable regions and the default selection.
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.Store.ListRegions(r.Context())
	if err != nil {
		writeEngineError(w, "Failed to list regions", err)
		return
	}
	def, err := engine.SelectRegion(regions, h.Config.PreferredRegion)
	if err != nil {
		writeEngineError(w, "No regions available", err)
		return
	}
	writeJSON(w, http.StatusOK, RegionsResponse{Regions: regions, Default: def})
}

// Demand returns total update demand per region.
func (h *Handler) Demand(w http.ResponseWriter, r *http.Request) {
	demand, err := h.Store.DemandByRegion(r.Context())
	if err != nil {
		writeEngineError(w, "Failed to load demand", err)
		return
	}
	dtos := make([]RegionDemandDTO, len(demand))
	for i, d := range demand {
		dtos[i] = RegionDemandDTO{Region: d.Region, Demand: d.Demand}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Overview returns the headline cards of a region.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	a, ok := h.regionAnalysis(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, OverviewDTO{
		Region:          a.Region,
		TotalActivity:   a.Totals.TotalActivity,
		Enrolments:      a.Totals.Enrolments,
		MBURequirement:  a.Totals.MBURequirement,
		ActiveDistricts: a.Totals.ActiveDistricts,
		RiskDistricts:   a.RiskDistricts(h.riskThreshold),
		Records:         len(a.Records),
	})
}

// Districts returns the gap analysis for every district of a region.
func (h *Handler) Districts(w http.ResponseWriter, r *http.Request) {
	a, ok := h.regionAnalysis(w, r)
	if !ok {
		return
	}
	dtos := make([]DistrictDTO, len(a.Districts))
	for i, s := range a.Districts {
		dtos[i] = toDistrictDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Priority returns the top-N mobile van deployment ranking.
func (h *Handler) Priority(w http.ResponseWriter, r *http.Request) {
	topN, err := topParam(r, h.Config.PriorityTopN)
	if err != nil {
		writeEngineError(w, "Invalid top parameter", err)
		return
	}
	a, ok := h.regionAnalysis(w, r)
	if !ok {
		return
	}

	ranked, err := engine.RankPriority(a.Districts, topN)
	if err != nil {
		writeEngineError(w, "Failed to rank districts", err)
		return
	}
	dtos := make([]PriorityDTO, len(ranked))
	for i, s := range ranked {
		dtos[i] = PriorityDTO{Rank: i + 1, DistrictDTO: toDistrictDTO(s)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Forecast returns the ranked expected load for a weekday.
// Without ?day the reference clock's weekday is used.
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	day, loads, a, ok := h.forecast(w, r, now)
	if !ok {
		return
	}

	gauge := engine.GaugeLoad(loads)
	dtos := make([]DistrictLoadDTO, len(loads))
	for i, l := range loads {
		dtos[i] = DistrictLoadDTO{District: l.District, Load: l.Load.InexactFloat64()}
	}
	writeJSON(w, http.StatusOK, ForecastResponse{
		Region:             a.Region,
		Weekday:            day.String(),
		Districts:          dtos,
		GaugeLoad:          gauge.InexactFloat64(),
		Stress:             string(engine.Stress(gauge)),
		CurrentWeekday:     now.Weekday().String(),
		CurrentWeekdayLoad: engine.CurrentWeekdayLoad(a.Demand, now, gauge).InexactFloat64(),
	})
}

func (h *Handler) forecast(w http.ResponseWriter, r *http.Request, now time.Time) (time.Weekday, []engine.DistrictLoad, *engine.Analysis, bool) {
	day := now.Weekday()
	if name := r.URL.Query().Get("day"); name != "" {
		parsed, err := engine.ParseWeekday(name)
		if err != nil {
			writeEngineError(w, "Invalid day parameter", err)
			return day, nil, nil, false
		}
		day = parsed
	}
	topN, err := topParam(r, h.Config.ForecastTopN)
	if err != nil {
		writeEngineError(w, "Invalid top parameter", err)
		return day, nil, nil, false
	}

	a, ok := h.regionAnalysis(w, r)
	if !ok {
		return day, nil, nil, false
	}
	loads, err := engine.TopForWeekday(a.Demand, day, topN)
	if err != nil {
		writeEngineError(w, "Failed to rank forecast", err)
		return day, nil, nil, false
	}
	return day, loads, a, true
}

// Records returns the raw records of a region, newest first.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	a, ok := h.regionAnalysis(w, r)
	if !ok {
		return
	}
	sorted := engine.SortNewestFirst(a.Records)
	dtos := make([]RecordDTO, len(sorted))
	for i, rec := range sorted {
		dtos[i] = toRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// ReportPDF renders the single-page summary report as a download.
func (h *Handler) ReportPDF(w http.ResponseWriter, r *http.Request) {
	a, ok := h.regionAnalysis(w, r)
	if !ok {
		return
	}

	pdf, err := report.RenderSummary(report.Summary{
		Region:          a.Region,
		TotalUpdates:    report.Int(a.Totals.TotalActivity),
		TotalEnrolments: report.Int(a.Totals.Enrolments),
		RiskDistricts:   report.Int(int64(a.RiskDistricts(h.riskThreshold))),
		GeneratedAt:     h.now(),
	})
	if err != nil {
		metrics.ReportsRendered.WithLabelValues("pdf", "error").Inc()
		writeEngineError(w, "Failed to render report", err)
		return
	}
	h.writeDownload(w, "pdf", report.ContentTypePDF, report.Filename(h.Config.ReportPrefix, a.Region), pdf)
}

// RecordsXLSX exports the raw records as a workbook.
func (h *Handler) RecordsXLSX(w http.ResponseWriter, r *http.Request) {
	a, ok := h.regionAnalysis(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteRecordsXLSX(&buf, engine.SortNewestFirst(a.Records)); err != nil {
		metrics.ReportsRendered.WithLabelValues("xlsx", "error").Inc()
		writeEngineError(w, "Failed to export records", err)
		return
	}
	filename := fmt.Sprintf("%s_%s_records.xlsx", h.Config.ReportPrefix, a.Region)
	h.writeDownload(w, "xlsx", report.ContentTypeXLSX, filename, buf.Bytes())
}

// Chart renders the priority or forecast chart as a PNG.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	var (
		png []byte
		err error
	)
	switch chi.URLParam(r, "chart") {
	case "priority":
		topN, perr := topParam(r, h.Config.PriorityTopN)
		if perr != nil {
			writeEngineError(w, "Invalid top parameter", perr)
			return
		}
		a, ok := h.regionAnalysis(w, r)
		if !ok {
			return
		}
		ranked, rerr := engine.RankPriority(a.Districts, topN)
		if rerr != nil {
			writeEngineError(w, "Failed to rank districts", rerr)
			return
		}
		png, err = report.PriorityChart(a.Region, ranked)
	case "forecast":
		day, loads, a, ok := h.forecast(w, r, h.now())
		if !ok {
			return
		}
		png, err = report.ForecastChart(a.Region, day.String(), loads)
	default:
		writeError(w, http.StatusNotFound, "Unknown chart", nil)
		return
	}
	if err != nil {
		metrics.ReportsRendered.WithLabelValues("chart", "error").Inc()
		writeEngineError(w, "Failed to render chart", err)
		return
	}

	metrics.ReportsRendered.WithLabelValues("chart", "ok").Inc()
	w.Header().Set("Content-Type", report.ContentTypePNG)
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) writeDownload(w http.ResponseWriter, kind, contentType, filename string, body []byte) {
	reportID := uuid.NewString()
	log.Printf("export %s: %s (%d bytes, report %s)", kind, filename, len(body), reportID)
	metrics.ReportsRendered.WithLabelValues(kind, "ok").Inc()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("X-Report-ID", reportID)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// limitExports rejects export requests beyond the configured rate.
func (h *Handler) limitExports(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.exportLimiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "Export rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// regionParam returns the decoded {region} segment. chi matches on RawPath
// when it is set (e.g. an escaped "/"), leaving the segment encoded.
func regionParam(r *http.Request) string {
	raw := chi.URLParam(r, "region")
	if r.URL.RawPath == "" {
		return raw
	}
	if region, err := url.PathUnescape(raw); err == nil {
		return region
	}
	return raw
}

func topParam(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("top")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", engine.ErrInvalidTopN, v)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case engine.IsClientError(err):
		return http.StatusBadRequest
	case engine.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
