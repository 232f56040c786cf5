package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/seva-insights/engine"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const recordsSheet = "Records"

var recordsHeader = []any{
	"Date", "Weekday", "State", "District",
	"age_0_5", "bio_age_5_17", "bio_age_17_", "demo_age_5_17", "demo_age_17_",
	"total_activity",
}

// WriteRecordsXLSX writes records, in the given order, to a single sheet.
func WriteRecordsXLSX(w io.Writer, records []engine.AnnotatedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return &engine.RenderError{Section: "workbook", Err: err}
	}
	if err := f.SetSheetRow(recordsSheet, "A1", &recordsHeader); err != nil {
		return &engine.RenderError{Section: "header", Err: err}
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return &engine.RenderError{Section: "records", Err: err}
		}
		row := []any{
			r.Date.Format("2006-01-02"),
			r.Weekday.String(),
			r.Region,
			r.District,
			r.Enrolment0to5,
			r.BioUpdate5to17,
			r.BioUpdate17Plus,
			r.DemoUpdate5to17,
			r.DemoUpdate17Plus,
			r.TotalActivity,
		}
		if err := f.SetSheetRow(recordsSheet, cell, &row); err != nil {
			return &engine.RenderError{Section: fmt.Sprintf("record %d", i+1), Err: err}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return &engine.RenderError{Section: "workbook", Err: err}
	}
	return nil
}
