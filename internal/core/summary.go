package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeekdayLabels are the Monday-first labels of the income-by-weekday series.
var WeekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

type WeekdayAmount struct {
	Day    string
	Amount decimal.Decimal
}

// Dashboard holds the KPIs and chart series for one owner over one period.
type Dashboard struct {
	TotalIncome        decimal.Decimal
	TotalExpenses      decimal.Decimal
	NetProfit          decimal.Decimal
	IncomeByWeekday    [7]WeekdayAmount
	ExpensesByCategory []CategoryAmount
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
