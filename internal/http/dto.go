package http

import (
	"time"

	"github.com/shopspring/decimal"

	"paytrack/internal/core"
	"paytrack/internal/imports"
	"paytrack/internal/period"
)

func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func optionalAmount(d decimal.Decimal, ok bool) *float64 {
	if !ok {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}

type scheduleInput struct {
	Date          string              `json:"date"`
	PayType       string              `json:"payType"`
	Hours         decimal.NullDecimal `json:"hours"`
	HourlyRate    decimal.NullDecimal `json:"hourlyRate"`
	MonthlySalary decimal.NullDecimal `json:"monthlySalary"`
	Tag           string              `json:"tag"`
	Notes         string              `json:"notes"`
}

// pay builds the pay variant named by payType. Fields of the other variant are ignored.
func (in scheduleInput) pay(verr *core.ValidationError) core.Pay {
	switch core.PayType(in.PayType) {
	case "", core.PayHourly:
		if !in.Hours.Valid {
			verr.Add("hours", "hours are required for hourly pay")
		}
		if !in.HourlyRate.Valid {
			verr.Add("hourlyRate", "hourly rate is required for hourly pay")
		}
		return core.HourlyPay{Hours: in.Hours.Decimal, Rate: in.HourlyRate.Decimal}
	case core.PayMonthly:
		if !in.MonthlySalary.Valid {
			verr.Add("monthlySalary", "monthly salary is required for monthly pay")
		}
		return core.MonthlyPay{Salary: in.MonthlySalary.Decimal}
	default:
		verr.Add("payType", "pay type must be hourly or monthly")
		return nil
	}
}

func (in scheduleInput) toSchedule() (core.Schedule, error) {
	verr := &core.ValidationError{}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		verr.Add("date", "date must be YYYY-MM-DD")
	}
	s := core.Schedule{
		Date:  date,
		Pay:   in.pay(verr),
		Tag:   sanitizeInput(in.Tag),
		Notes: sanitizeInput(in.Notes),
	}
	return s, verr.OrNil()
}

type weeklyInput struct {
	StartDate     string              `json:"startDate"`
	Weekdays      []string            `json:"weekdays"`
	PayType       string              `json:"payType"`
	Hours         decimal.NullDecimal `json:"hours"`
	HourlyRate    decimal.NullDecimal `json:"hourlyRate"`
	MonthlySalary decimal.NullDecimal `json:"monthlySalary"`
	Tag           string              `json:"tag"`
	Notes         string              `json:"notes"`
}

type scheduleView struct {
	ID               string   `json:"id"`
	Date             string   `json:"date"`
	DayOfWeek        string   `json:"dayOfWeek"`
	PayType          string   `json:"payType"`
	Hours            *float64 `json:"hours,omitempty"`
	HourlyRate       *float64 `json:"hourlyRate,omitempty"`
	MonthlySalary    *float64 `json:"monthlySalary,omitempty"`
	CalculatedIncome float64  `json:"calculatedIncome"`
	Tag              string   `json:"tag"`
	Notes            string   `json:"notes"`
	IsFuture         bool     `json:"isFuture"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

func newScheduleView(s core.Schedule) scheduleView {
	v := scheduleView{
		ID:               s.ID,
		Date:             s.Date.String(),
		DayOfWeek:        s.DayOfWeek,
		PayType:          string(s.PayType()),
		CalculatedIncome: amount(s.Income()),
		Tag:              s.Tag,
		Notes:            s.Notes,
		IsFuture:         s.IsFuture,
		CreatedAt:        s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        s.UpdatedAt.UTC().Format(time.RFC3339),
	}
	switch p := s.Pay.(type) {
	case core.HourlyPay:
		v.Hours = optionalAmount(p.Hours, true)
		v.HourlyRate = optionalAmount(p.Rate, true)
	case core.MonthlyPay:
		v.MonthlySalary = optionalAmount(p.Salary, true)
	}
	return v
}

func scheduleViews(list []core.Schedule) []scheduleView {
	out := make([]scheduleView, len(list))
	for i, s := range list {
		out[i] = newScheduleView(s)
	}
	return out
}

type expenseInput struct {
	Date       string              `json:"date"`
	Vendor     string              `json:"vendor"`
	Category   string              `json:"category"`
	Amount     decimal.NullDecimal `json:"amount"`
	ReceiptRef *string             `json:"receiptRef"`
	Notes      string              `json:"notes"`
}

// receiptRef is nil when the field was absent or null, which keeps the
// stored receipt on update.
func (in expenseInput) receiptRef() *string {
	if in.ReceiptRef == nil {
		return nil
	}
	ref := sanitizeInput(*in.ReceiptRef)
	return &ref
}

func (in expenseInput) toExpense() (core.Expense, error) {
	verr := &core.ValidationError{}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		verr.Add("date", "date must be YYYY-MM-DD")
	}
	if !in.Amount.Valid {
		verr.Add("amount", "amount is required")
	}
	e := core.Expense{
		Date:     date,
		Vendor:   sanitizeInput(in.Vendor),
		Category: sanitizeInput(in.Category),
		Amount:   in.Amount.Decimal.Round(2),
		Notes:    sanitizeInput(in.Notes),
	}
	if ref := in.receiptRef(); ref != nil {
		e.ReceiptRef = *ref
	}
	return e, verr.OrNil()
}

type expenseView struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"`
	Vendor     string  `json:"vendor"`
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	ReceiptRef string  `json:"receiptRef,omitempty"`
	Notes      string  `json:"notes"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

func newExpenseView(e core.Expense) expenseView {
	return expenseView{
		ID:         e.ID,
		Date:       e.Date.String(),
		Vendor:     e.Vendor,
		Category:   e.Category,
		Amount:     amount(e.Amount),
		ReceiptRef: e.ReceiptRef,
		Notes:      e.Notes,
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func expenseViews(list []core.Expense) []expenseView {
	out := make([]expenseView, len(list))
	for i, e := range list {
		out[i] = newExpenseView(e)
	}
	return out
}

type periodView struct {
	Kind      string `json:"kind"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func newPeriodView(r period.Range) periodView {
	return periodView{Kind: string(r.Kind), StartDate: r.FirstDay().String(), EndDate: r.LastDay().String()}
}

type namedAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type dayAmount struct {
	Day    string  `json:"day"`
	Amount float64 `json:"amount"`
}

type dashboardView struct {
	Period             periodView    `json:"period"`
	TotalIncome        float64       `json:"totalIncome"`
	TotalExpenses      float64       `json:"totalExpenses"`
	NetProfit          float64       `json:"netProfit"`
	IncomeByWeekday    []dayAmount   `json:"incomeByWeekday"`
	ExpensesByCategory []namedAmount `json:"expensesByCategory"`
}

func newDashboardView(r period.Range, d core.Dashboard) dashboardView {
	// net is derived from the rounded totals so the three figures always agree
	income, expenses := d.TotalIncome.Round(2), d.TotalExpenses.Round(2)
	v := dashboardView{
		Period:             newPeriodView(r),
		TotalIncome:        amount(income),
		TotalExpenses:      amount(expenses),
		NetProfit:          amount(income.Sub(expenses)),
		IncomeByWeekday:    make([]dayAmount, len(d.IncomeByWeekday)),
		ExpensesByCategory: make([]namedAmount, len(d.ExpensesByCategory)),
	}
	for i, w := range d.IncomeByWeekday {
		v.IncomeByWeekday[i] = dayAmount{Day: w.Day, Amount: amount(w.Amount)}
	}
	for i, c := range d.ExpensesByCategory {
		v.ExpensesByCategory[i] = namedAmount{Name: c.Name, Amount: amount(c.Amount)}
	}
	return v
}

type previewRowView struct {
	Row              int            `json:"row"`
	Date             string         `json:"date"`
	Hours            *float64       `json:"hours"`
	HourlyRate       *float64       `json:"hourly_rate"`
	Tag              string         `json:"tag"`
	Notes            string         `json:"notes"`
	DayOfWeek        string         `json:"dayOfWeek,omitempty"`
	CalculatedIncome *float64       `json:"calculatedIncome,omitempty"`
	Valid            bool           `json:"valid"`
	Errors           []string       `json:"errors"`
	Raw              imports.RawRow `json:"raw"`
}

type previewView struct {
	SessionID string           `json:"sessionId"`
	ExpiresAt string           `json:"expiresAt"`
	TotalRows int              `json:"totalRows"`
	Valid     int              `json:"valid"`
	Invalid   int              `json:"invalid"`
	Preview   []previewRowView `json:"preview"`
}

func newPreviewView(p imports.Preview) previewView {
	v := previewView{
		SessionID: p.SessionID,
		ExpiresAt: p.ExpiresAt.UTC().Format(time.RFC3339),
		TotalRows: p.TotalRows,
		Valid:     p.Valid,
		Invalid:   p.Invalid,
		Preview:   make([]previewRowView, len(p.Rows)),
	}
	for i, r := range p.Rows {
		row := previewRowView{
			Row:       r.RowNumber,
			Date:      r.Raw.Date,
			Tag:       r.Raw.Tag,
			Notes:     r.Raw.Notes,
			DayOfWeek: r.DayOfWeek,
			Valid:     r.Valid(),
			Errors:    r.Errors,
			Raw:       r.Raw,
		}
		if row.Errors == nil {
			row.Errors = []string{}
		}
		if !r.Date.IsZero() {
			row.Date = r.Date.String()
		}
		if r.Valid() {
			row.Hours = optionalAmount(r.Hours, true)
			row.HourlyRate = optionalAmount(r.Rate, true)
			income := amount(r.Income)
			row.CalculatedIncome = &income
		}
		v.Preview[i] = row
	}
	return v
}

type confirmInput struct {
	RowsToImport []int `json:"rowsToImport"`
}

type reportInput struct {
	ReportType string `json:"reportType"`
	Format     string `json:"format"`
	Period     string `json:"period"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}
