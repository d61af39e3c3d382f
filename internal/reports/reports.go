// Package reports renders schedule and expense data for a period as
// downloadable CSV, XLSX or PDF files.
package reports

import (
	"context"
	"fmt"
	"strings"

	"paytrack/internal/core"
	"paytrack/internal/log"
	"paytrack/internal/period"
	"paytrack/internal/services"
	"paytrack/internal/storage"
)

type Type string

const (
	TypeSchedule Type = "schedule"
	TypeExpenses Type = "expenses"
	TypeCombined Type = "combined"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeSchedule, TypeExpenses, TypeCombined:
		return t, nil
	default:
		return "", core.NewValidationError("reportType", fmt.Sprintf("unknown report type %q", s))
	}
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", core.NewValidationError("format", fmt.Sprintf("unknown format %q", s))
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return ContentTypeXLSX
	case FormatPDF:
		return ContentTypePDF
	default:
		return ContentTypeCSV
	}
}

// Preset is a named quick export.
type Preset struct {
	Type   Type
	Period period.Kind
	Format Format
}

var presets = map[string]Preset{
	"weekly-summary":   {Type: TypeCombined, Period: period.Week, Format: FormatPDF},
	"monthly-overview": {Type: TypeCombined, Period: period.Month, Format: FormatXLSX},
	"expense-analysis": {Type: TypeExpenses, Period: period.Month, Format: FormatCSV},
	"schedule-month":   {Type: TypeSchedule, Period: period.Month, Format: FormatCSV},
}

func LookupPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, core.NewValidationError("preset", fmt.Sprintf("unknown quick export %q", name))
	}
	return p, nil
}

// Report is a rendered file ready to download.
type Report struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Filename is deterministic: type, first and last calendar day, extension.
func Filename(t Type, r period.Range, f Format) string {
	return fmt.Sprintf("%s-report_%s_%s.%s", t, r.FirstDay(), r.LastDay(), f)
}

type Generator struct {
	schedules storage.ScheduleStore
	expenses  storage.ExpenseStore
}

func NewGenerator(schedules storage.ScheduleStore, expenses storage.ExpenseStore) *Generator {
	return &Generator{schedules: schedules, expenses: expenses}
}

// Generate renders the report. A period without records still produces a
// file carrying the column headers.
func (g *Generator) Generate(ctx context.Context, ownerID string, t Type, r period.Range, f Format) (Report, error) {
	if ownerID == "" {
		return Report{}, core.ErrUnauthenticated
	}

	var (
		schedStore storage.ScheduleStore
		expStore   storage.ExpenseStore
	)
	if t != TypeExpenses {
		schedStore = g.schedules
	}
	if t != TypeSchedule {
		expStore = g.expenses
	}
	schedules, expenses, err := services.LoadPeriod(ctx, schedStore, expStore, ownerID, r)
	if err != nil {
		return Report{}, err
	}

	doc := buildDocument(t, r, schedules, expenses)

	var body []byte
	switch f {
	case FormatCSV:
		body, err = renderCSV(doc)
	case FormatXLSX:
		body, err = renderXLSX(doc)
	case FormatPDF:
		body, err = renderPDF(doc)
	default:
		return Report{}, core.NewValidationError("format", fmt.Sprintf("unknown format %q", f))
	}
	if err != nil {
		return Report{}, fmt.Errorf("render %s report: %w", f, err)
	}

	name := Filename(t, r, f)
	log.FromContext(ctx).WithComponent(log.ComponentReport).InfoContext(ctx, "Report generated",
		log.FieldOwnerID, ownerID,
		log.FieldReportType, string(t),
		log.FieldFormat, string(f),
		log.FieldPeriod, r.String(),
		log.FieldFilename, name)
	return Report{Filename: name, ContentType: f.ContentType(), Body: body}, nil
}
