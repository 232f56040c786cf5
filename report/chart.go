package report

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/warp/seva-insights/engine"
)

const ContentTypePNG = "image/png"

var (
	chartWidth  = 8 * vg.Inch
	chartHeight = 5 * vg.Inch

	priorityColor = color.RGBA{R: 200, G: 40, B: 40, A: 255}
	forecastColor = color.RGBA{R: 230, G: 120, B: 20, A: 255}
)

// PriorityChart draws the ranked districts' priority scores as a PNG.
func PriorityChart(region string, ranked []engine.DistrictSummary) ([]byte, error) {
	names := make([]string, len(ranked))
	values := make(plotter.Values, len(ranked))
	for i, s := range ranked {
		names[i] = s.District
		values[i] = s.PriorityScore.InexactFloat64()
	}
	return barChart(
		fmt.Sprintf("Mobile van deployment priority: %s", region),
		"Priority score", names, values, priorityColor,
	)
}

// ForecastChart draws a weekday forecast as a PNG.
func ForecastChart(region, weekday string, loads []engine.DistrictLoad) ([]byte, error) {
	names := make([]string, len(loads))
	values := make(plotter.Values, len(loads))
	for i, l := range loads {
		names[i] = l.District
		values[i] = l.Load.InexactFloat64()
	}
	return barChart(
		fmt.Sprintf("Expected %s load: %s", weekday, region),
		"Mean update activity", names, values, forecastColor,
	)
}

// barChart draws one bar per name. With no values it draws empty titled axes.
func barChart(title, yLabel string, names []string, values plotter.Values, fill color.Color) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.Y.Min = 0

	if len(values) == 0 {
		p.Title.Text = title + " (no data)"
		p.X.Min, p.X.Max = 0, 1
		p.Y.Max = 1
		p.Add(plotter.NewGrid())
	} else {
		bars, err := plotter.NewBarChart(values, vg.Points(24))
		if err != nil {
			return nil, &engine.RenderError{Section: "chart", Err: err}
		}
		bars.Color = fill
		bars.LineStyle.Width = 0
		p.Add(bars, plotter.NewGrid())
		p.NominalX(names...)
	}

	w, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return nil, &engine.RenderError{Section: "chart", Err: err}
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, &engine.RenderError{Section: "chart", Err: err}
	}
	return buf.Bytes(), nil
}
