/*
Package report renders exports of already-derived figures.

PURPOSE:
  Pure presentation. Nothing in this package computes a metric; callers
  pass the scalars the engine produced.

EXPORTS:
  RenderSummary:    Single-page PDF summary (application/pdf)
  PriorityChart:    PNG bar chart of the mobile-unit ranking
  ForecastChart:    PNG bar chart of a weekday forecast
  WriteRecordsXLSX: Raw records workbook

PDF LAYOUT (A4 portrait, fixed):
  Title
  Generated: <timestamp>
  Region: <region>
  Total update load: <n>
  New enrolments (age 0-5): <n>
  High-risk districts: <n>
  Disclaimer

  Every line is mandatory. A missing scalar fails with engine.RenderError
  instead of silently dropping the line.
*/
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/warp/seva-insights/engine"
)

const (
	ReportTitle = "Aadhaar Seva Kendra Intelligence Report"
	Disclaimer  = "Figures are historical aggregates of update activity; gap scores are a demand proxy, not an audited metric."

	ContentTypePDF = "application/pdf"
)

var (
	pageWidth  = vg.Points(595)
	pageHeight = vg.Points(842)
	margin     = vg.Points(56)
)

// Summary carries the scalars shown on the PDF. Nil means absent.
type Summary struct {
	Region          string
	TotalUpdates    *int64
	TotalEnrolments *int64
	RiskDistricts   *int64
	GeneratedAt     time.Time
}

// Int returns a pointer to v, for filling Summary fields.
func Int(v int64) *int64 { return &v }

// Filename returns "<prefix>_<region>.pdf" with path-unsafe runes replaced.
func Filename(prefix, region string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		return r
	}, region)
	return fmt.Sprintf("%s_%s.pdf", prefix, safe)
}

// RenderSummary produces the single-page PDF.
func RenderSummary(s Summary) ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	c := vgpdf.New(pageWidth, pageHeight)
	dc := draw.New(c)

	titleStyle := textStyle(vg.Points(20))
	bodyStyle := textStyle(vg.Points(12))
	metricStyle := textStyle(vg.Points(14))
	noteStyle := textStyle(vg.Points(9))
	noteStyle.Color = color.Gray{Y: 90}

	y := pageHeight - margin
	line := func(sty text.Style, txt string, gap vg.Length) {
		dc.FillText(sty, vg.Point{X: margin, Y: y}, txt)
		y -= gap
	}

	line(titleStyle, ReportTitle, vg.Points(36))
	line(bodyStyle, "Generated: "+s.GeneratedAt.Format("2006-01-02 15:04 MST"), vg.Points(20))
	line(bodyStyle, "Region: "+s.Region, vg.Points(36))
	line(metricStyle, "Total update load: "+formatCount(*s.TotalUpdates), vg.Points(24))
	line(metricStyle, "New enrolments (age 0-5): "+formatCount(*s.TotalEnrolments), vg.Points(24))
	line(metricStyle, "High-risk districts: "+formatCount(*s.RiskDistricts), vg.Points(48))
	line(noteStyle, Disclaimer, 0)

	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, &engine.RenderError{Section: "document", Err: err}
	}
	return buf.Bytes(), nil
}

func (s Summary) validate() error {
	switch {
	case strings.TrimSpace(s.Region) == "":
		return &engine.RenderError{Section: "region"}
	case s.GeneratedAt.IsZero():
		return &engine.RenderError{Section: "generated_at"}
	case s.TotalUpdates == nil:
		return &engine.RenderError{Section: "total_updates"}
	case s.TotalEnrolments == nil:
		return &engine.RenderError{Section: "total_enrolments"}
	case s.RiskDistricts == nil:
		return &engine.RenderError{Section: "risk_districts"}
	}
	return nil
}

func textStyle(size vg.Length) text.Style {
	return text.Style{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, size),
		Handler: plot.DefaultTextHandler,
	}
}

// formatCount renders n with thousands separators, e.g. 1,234,567.
func formatCount(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
