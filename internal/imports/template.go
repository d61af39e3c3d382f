package imports

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"

	"paytrack/internal/core"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var templateRows = [][]string{
	{ColDate, ColHours, ColHourlyRate, ColTag, ColNotes},
	{"YYYY-MM-DD", "hours worked, 0 to 24", "pay per hour, 0 or more", "optional label", "optional notes"},
	{"2025-01-06", "8", "15.50", "Cafe", "Morning shift"},
	{"2025-01-08", "6", "20", "Bar", ""},
}

// Template is a downloadable upload template.
type Template struct {
	Filename    string
	ContentType string
	Body        []byte
}

// BuildTemplate renders the upload template as "csv" or "xlsx".
func BuildTemplate(format string) (Template, error) {
	switch format {
	case "", "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.WriteAll(templateRows); err != nil {
			return Template{}, fmt.Errorf("write template: %w", err)
		}
		return Template{Filename: "schedule-upload-template.csv", ContentType: contentTypeCSV, Body: buf.Bytes()}, nil
	case "xlsx":
		body, err := templateXLSX()
		if err != nil {
			return Template{}, err
		}
		return Template{Filename: "schedule-upload-template.xlsx", ContentType: contentTypeXLSX, Body: body}, nil
	default:
		return Template{}, core.NewValidationError("format", fmt.Sprintf("unsupported template format %q", format))
	}
}

func templateXLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Schedules"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("name template sheet: %w", err)
	}
	for i, row := range templateRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write template row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	return buf.Bytes(), nil
}
