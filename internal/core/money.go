// Package core provides money parsing and the pay calculation rules.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var four = decimal.NewFromInt(4)

// ParseNumber parses a decimal number, accepting both dot (12.34) and comma (12,34)
// separators. Thousands separators are not supported.
func ParseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseAmount parses a strictly positive monetary amount rounded half-up to cents.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
//	ParseAmount("0")      -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := ParseNumber(s)
	if err != nil {
		return decimal.Zero, err
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// CalculatePay converts a pay arrangement into the income it yields.
//
// Hourly pay yields hours × rate. Monthly pay yields salary / 4: a fixed
// four-weeks-per-month approximation with no calendar-aware proration.
// Unknown or malformed arrangements yield zero.
func CalculatePay(p Pay) decimal.Decimal {
	switch v := p.(type) {
	case HourlyPay:
		if v.Hours.IsNegative() || v.Rate.IsNegative() {
			return decimal.Zero
		}
		return v.Hours.Mul(v.Rate)
	case MonthlyPay:
		if !v.Salary.IsPositive() {
			return decimal.Zero
		}
		return v.Salary.Div(four)
	default:
		return decimal.Zero
	}
}

// Income is the calculated pay of the schedule.
func (s Schedule) Income() decimal.Decimal {
	return CalculatePay(s.Pay)
}
