package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PayHourly  PayType = "hourly"
	PayMonthly PayType = "monthly"

	// UncategorizedLabel replaces an empty expense category in groupings and exports.
	UncategorizedLabel = "Uncategorized"

	MaxShiftHours = 24
	dateLayout    = "2006-01-02"
)

type (
	PayType string

	// Date is a calendar date stored at UTC midnight.
	Date struct {
		time.Time
	}

	// Pay is the pay arrangement of a schedule: HourlyPay or MonthlyPay.
	Pay interface {
		Type() PayType
		isPay()
	}

	HourlyPay struct {
		Hours decimal.Decimal
		Rate  decimal.Decimal
	}

	MonthlyPay struct {
		Salary decimal.Decimal
	}

	Schedule struct {
		ID        string
		OwnerID   string
		Date      Date
		DayOfWeek string
		Pay       Pay
		Tag       string
		Notes     string
		IsFuture  bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Expense struct {
		ID         string
		OwnerID    string
		Date       Date
		Vendor     string
		Category   string
		Amount     decimal.Decimal
		ReceiptRef string
		Notes      string
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func (HourlyPay) Type() PayType  { return PayHourly }
func (HourlyPay) isPay()         {}
func (MonthlyPay) Type() PayType { return PayMonthly }
func (MonthlyPay) isPay()        {}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts only YYYY-MM-DD and rejects impossible dates such as 2025-02-30.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if !isoDate.MatchString(s) {
		return Date{}, fmt.Errorf("date %q is not in YYYY-MM-DD format", s)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// WeekdayName is the display label stored as a schedule's dayOfWeek.
func (d Date) WeekdayName() string {
	return d.Weekday().String()
}

// WeekdayIndex is the Monday-first position of the date's weekday (Mon=0 .. Sun=6).
func (d Date) WeekdayIndex() int {
	return (int(d.Weekday()) + 6) % 7
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Derive recomputes the fields that depend on Date.
func (s *Schedule) Derive(today Date) {
	s.DayOfWeek = s.Date.WeekdayName()
	s.IsFuture = !s.Date.Before(today.Time)
}

func (s Schedule) PayType() PayType {
	if s.Pay == nil {
		return ""
	}
	return s.Pay.Type()
}

// Label is the text shown for the schedule: the tag, falling back to notes.
func (s Schedule) Label() string {
	if strings.TrimSpace(s.Tag) != "" {
		return s.Tag
	}
	return s.Notes
}

func (s Schedule) Validate() error {
	verr := &ValidationError{}
	if s.Date.IsZero() {
		verr.Add("date", "date is required")
	}
	switch p := s.Pay.(type) {
	case HourlyPay:
		if !p.Hours.IsPositive() || p.Hours.GreaterThan(decimal.NewFromInt(MaxShiftHours)) {
			verr.Add("hours", "hours must be greater than 0 and at most 24")
		}
		if p.Rate.IsNegative() {
			verr.Add("hourlyRate", "hourly rate cannot be negative")
		}
	case MonthlyPay:
		if !p.Salary.IsPositive() {
			verr.Add("monthlySalary", "monthly salary must be greater than 0")
		}
	default:
		verr.Add("payType", "pay type must be hourly or monthly")
	}
	if len(s.Tag) > 200 {
		verr.Add("tag", "tag too long (max 200 characters)")
	}
	return verr.OrNil()
}

// CategoryLabel returns the category used for grouping.
func (e Expense) CategoryLabel() string {
	if c := strings.TrimSpace(e.Category); c != "" {
		return c
	}
	return UncategorizedLabel
}

func (e Expense) Validate() error {
	verr := &ValidationError{}
	if e.Date.IsZero() {
		verr.Add("date", "date is required")
	}
	if strings.TrimSpace(e.Vendor) == "" {
		verr.Add("vendor", "vendor is required")
	} else if len(e.Vendor) > 200 {
		verr.Add("vendor", "vendor too long (max 200 characters)")
	}
	if !e.Amount.IsPositive() {
		verr.Add("amount", "amount must be greater than 0")
	}
	return verr.OrNil()
}
