package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"paytrack/internal/core"
	"paytrack/internal/period"
	"paytrack/internal/storage/memory"
)

const owner = "owner-1"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seededGenerator(t *testing.T) (*Generator, period.Range) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	_, err := store.CreateSchedules(ctx, []core.Schedule{
		{OwnerID: owner, Date: core.NewDate(2024, 1, 1), Pay: core.HourlyPay{Hours: dec("8"), Rate: dec("15")}, Tag: "cafe"},
		{OwnerID: owner, Date: core.NewDate(2024, 1, 3), Pay: core.MonthlyPay{Salary: dec("2000")}, Notes: "salary"},
		{OwnerID: "other", Date: core.NewDate(2024, 1, 2), Pay: core.HourlyPay{Hours: dec("1"), Rate: dec("1")}},
	})
	require.NoError(t, err)
	_, err = store.CreateExpense(ctx, core.Expense{OwnerID: owner, Date: core.NewDate(2024, 1, 2), Vendor: "Market", Category: "Food", Amount: dec("50")})
	require.NoError(t, err)
	_, err = store.CreateExpense(ctx, core.Expense{OwnerID: owner, Date: core.NewDate(2024, 1, 4), Vendor: "Bus", Amount: dec("2.5"), Notes: "ticket"})
	require.NoError(t, err)

	resolver := period.NewResolver(core.FixedClock(time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)), time.UTC)
	week, err := resolver.Resolve(period.Request{Kind: period.Week})
	require.NoError(t, err)
	return NewGenerator(store, store), week
}

func readCSV(t *testing.T, body []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestScheduleCSV(t *testing.T) {
	g, week := seededGenerator(t)

	rep, err := g.Generate(context.Background(), owner, TypeSchedule, week, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "schedule-report_2024-01-01_2024-01-07.csv", rep.Filename)
	assert.Equal(t, ContentTypeCSV, rep.ContentType)

	rows := readCSV(t, rep.Body)
	require.Len(t, rows, 3)
	assert.Equal(t, ScheduleColumns, rows[0])
	assert.Equal(t, []string{"2024-01-01", "Monday", "8", "15.00", "cafe", "120.00"}, rows[1])
	// no tag: the notes stand in for it
	assert.Equal(t, []string{"2024-01-03", "Wednesday", "", "", "salary", "500.00"}, rows[2])
}

func TestExpenseCSV(t *testing.T) {
	g, week := seededGenerator(t)

	rep, err := g.Generate(context.Background(), owner, TypeExpenses, week, FormatCSV)
	require.NoError(t, err)

	rows := readCSV(t, rep.Body)
	require.Len(t, rows, 3)
	assert.Equal(t, ExpenseColumns, rows[0])
	assert.Equal(t, []string{"2024-01-02", "Market", "Food", "50.00", ""}, rows[1])
	assert.Equal(t, []string{"2024-01-04", "Bus", core.UncategorizedLabel, "2.50", "ticket"}, rows[2])
}

func TestCombinedCSV(t *testing.T) {
	g, week := seededGenerator(t)

	rep, err := g.Generate(context.Background(), owner, TypeCombined, week, FormatCSV)
	require.NoError(t, err)

	// blank separator lines are dropped by the csv reader
	rows := readCSV(t, rep.Body)
	require.Len(t, rows, 8)
	assert.Equal(t, ScheduleColumns, rows[0])
	assert.Equal(t, ExpenseColumns, rows[3])
	assert.Equal(t, TotalsColumns, rows[6])
	assert.Equal(t, []string{"620.00", "52.50", "567.50"}, rows[7])
	assert.Contains(t, string(rep.Body), "\n\n")
}

func TestEmptyPeriodStillRenders(t *testing.T) {
	g := NewGenerator(memory.New(), memory.New())
	r, err := period.NewResolver(core.FixedClock(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)), time.UTC).
		Resolve(period.Request{Kind: period.Month})
	require.NoError(t, err)

	for _, f := range []Format{FormatCSV, FormatXLSX, FormatPDF} {
		rep, err := g.Generate(context.Background(), owner, TypeCombined, r, f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, rep.Body, f)
		assert.Equal(t, "combined-report_2024-02-01_2024-02-29."+string(f), rep.Filename)
	}

	rep, err := g.Generate(context.Background(), owner, TypeSchedule, r, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, [][]string{ScheduleColumns}, readCSV(t, rep.Body))
}

func TestCombinedXLSX(t *testing.T) {
	g, week := seededGenerator(t)

	rep, err := g.Generate(context.Background(), owner, TypeCombined, week, FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, ContentTypeXLSX, rep.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(rep.Body))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Schedules", "Expenses", "Summary"}, f.GetSheetList())

	schedules, err := f.GetRows("Schedules")
	require.NoError(t, err)
	assert.Equal(t, ScheduleColumns, schedules[0])
	assert.Equal(t, "120", schedules[1][5])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, TotalsColumns, summary[0])
	assert.Equal(t, []string{"620", "52.5", "567.5"}, summary[1])
}

func TestPDFReport(t *testing.T) {
	g, week := seededGenerator(t)

	rep, err := g.Generate(context.Background(), owner, TypeSchedule, week, FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, ContentTypePDF, rep.ContentType)
	assert.True(t, bytes.HasPrefix(rep.Body, []byte("%PDF")))

	path := filepath.Join(t.TempDir(), rep.Filename)
	require.NoError(t, os.WriteFile(path, rep.Body, 0o600))
	file, r, err := pdf.Open(path)
	require.NoError(t, err)
	defer file.Close()
	require.GreaterOrEqual(t, r.NumPage(), 1)

	text, err := r.Page(1).GetPlainText(nil)
	require.NoError(t, err)
	assert.Contains(t, text, "calculated_income")
	assert.Contains(t, text, "Monday")
	assert.Contains(t, text, "120.00")
}

func TestGenerateRequiresOwner(t *testing.T) {
	g, week := seededGenerator(t)
	_, err := g.Generate(context.Background(), "", TypeSchedule, week, FormatCSV)
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestParseAndPresets(t *testing.T) {
	typ, err := ParseType(" Combined ")
	require.NoError(t, err)
	assert.Equal(t, TypeCombined, typ)
	_, err = ParseType("income")
	assert.ErrorIs(t, err, core.ErrValidation)

	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	_, err = ParseFormat("docx")
	assert.ErrorIs(t, err, core.ErrValidation)

	tests := []struct {
		name string
		want Preset
	}{
		{"weekly-summary", Preset{TypeCombined, period.Week, FormatPDF}},
		{"monthly-overview", Preset{TypeCombined, period.Month, FormatXLSX}},
		{"expense-analysis", Preset{TypeExpenses, period.Month, FormatCSV}},
		{"schedule-month", Preset{TypeSchedule, period.Month, FormatCSV}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LookupPreset(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	_, err = LookupPreset("yearly")
	assert.True(t, strings.Contains(err.Error(), "yearly"))
}

func TestCustomRangeFilename(t *testing.T) {
	r, err := period.NewResolver(nil, nil).Resolve(period.Request{Kind: period.Custom, StartDate: "2024-03-05", EndDate: "2024-03-09"})
	require.NoError(t, err)
	assert.Equal(t, "expenses-report_2024-03-05_2024-03-09.pdf", Filename(TypeExpenses, r, FormatPDF))
}
