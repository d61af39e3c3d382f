package reports

import (
	"github.com/shopspring/decimal"

	"paytrack/internal/core"
	"paytrack/internal/period"
)

var (
	ScheduleColumns = []string{"date", "day", "hours", "hourly_rate", "tag", "calculated_income"}
	ExpenseColumns  = []string{"date", "vendor", "category", "amount", "notes"}
	TotalsColumns   = []string{"total_income", "total_expenses", "net"}
)

// money cells print with two decimals; decimal.Decimal cells print as-is
type money decimal.Decimal

// section is one titled table of a report.
type section struct {
	Title  string
	Sheet  string
	Header []string
	Rows   [][]any
}

type document struct {
	Title    string
	Sections []section
}

func buildDocument(t Type, r period.Range, schedules []core.Schedule, expenses []core.Expense) document {
	doc := document{Title: reportTitle(t, r)}

	var totalIncome, totalExpenses decimal.Decimal
	if t != TypeExpenses {
		s := section{Title: "Schedules", Sheet: "Schedules", Header: ScheduleColumns, Rows: make([][]any, 0, len(schedules))}
		for _, sc := range schedules {
			income := sc.Income()
			totalIncome = totalIncome.Add(income)
			s.Rows = append(s.Rows, ScheduleRow(sc))
		}
		doc.Sections = append(doc.Sections, s)
	}
	if t != TypeSchedule {
		s := section{Title: "Expenses", Sheet: "Expenses", Header: ExpenseColumns, Rows: make([][]any, 0, len(expenses))}
		for _, e := range expenses {
			totalExpenses = totalExpenses.Add(e.Amount)
			s.Rows = append(s.Rows, ExpenseRow(e))
		}
		doc.Sections = append(doc.Sections, s)
	}
	if t == TypeCombined {
		doc.Sections = append(doc.Sections, section{
			Title:  "Totals",
			Sheet:  "Summary",
			Header: TotalsColumns,
			Rows:   [][]any{{money(totalIncome), money(totalExpenses), money(totalIncome.Sub(totalExpenses))}},
		})
	}
	return doc
}

func reportTitle(t Type, r period.Range) string {
	var name string
	switch t {
	case TypeSchedule:
		name = "Schedule report"
	case TypeExpenses:
		name = "Expense report"
	default:
		name = "Combined report"
	}
	return name + " " + r.FirstDay().String() + " to " + r.LastDay().String()
}

// ScheduleRow lays a schedule out in ScheduleColumns order. Monthly pay has
// no hours or rate.
func ScheduleRow(s core.Schedule) []any {
	var hours, rate any = "", ""
	if p, ok := s.Pay.(core.HourlyPay); ok {
		hours, rate = p.Hours, money(p.Rate)
	}
	return []any{s.Date.String(), s.Date.WeekdayName(), hours, rate, s.Label(), money(s.Income())}
}

// ExpenseRow lays an expense out in ExpenseColumns order.
func ExpenseRow(e core.Expense) []any {
	return []any{e.Date.String(), e.Vendor, e.CategoryLabel(), money(e.Amount), e.Notes}
}

// FormatCell renders a cell as text.
func FormatCell(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case money:
		return core.FormatMoney(decimal.Decimal(c))
	case decimal.Decimal:
		return c.String()
	default:
		return ""
	}
}

// SheetValue renders a cell for a spreadsheet, keeping numbers numeric.
func SheetValue(v any) any {
	switch c := v.(type) {
	case money:
		return decimal.Decimal(c).Round(2).InexactFloat64()
	case decimal.Decimal:
		return c.InexactFloat64()
	default:
		return v
	}
}

func textRow(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = FormatCell(v)
	}
	return out
}
