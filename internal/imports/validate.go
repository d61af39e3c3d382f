package imports

import (
	"strings"

	"github.com/shopspring/decimal"

	"paytrack/internal/core"
)

const (
	errInvalidDate  = "Missing/invalid date"
	errInvalidHours = "Invalid hours"
	errInvalidRate  = "Invalid rate"
)

var maxHours = decimal.NewFromInt(core.MaxShiftHours)

// RawRow holds the cell text of one data row.
type RawRow struct {
	Date       string `json:"date"`
	Hours      string `json:"hours"`
	HourlyRate string `json:"hourly_rate"`
	Tag        string `json:"tag"`
	Notes      string `json:"notes"`
}

func (r RawRow) blank() bool {
	return r.Date == "" && r.Hours == "" && r.HourlyRate == "" && r.Tag == "" && r.Notes == ""
}

// CheckedRow is one data row after validation. Parsed fields are zero when
// their cell failed to parse.
type CheckedRow struct {
	RowNumber int
	Raw       RawRow
	Date      core.Date
	Hours     decimal.Decimal
	Rate      decimal.Decimal
	DayOfWeek string
	Income    decimal.Decimal
	Errors    []string
}

func (r CheckedRow) Valid() bool { return len(r.Errors) == 0 }

func (r CheckedRow) staged() core.StagedRow {
	return core.StagedRow{
		RowNumber: r.RowNumber,
		Date:      r.Date,
		Hours:     r.Hours,
		Rate:      r.Rate,
		Tag:       r.Raw.Tag,
		Notes:     r.Raw.Notes,
	}
}

// CheckRows validates every data row of table. The header is row 1, so the
// first data row is row 2. Blank rows are skipped; a table with no non-blank
// data row is ErrEmptyFile.
func CheckRows(table [][]string) ([]CheckedRow, error) {
	if len(table) == 0 {
		return nil, core.ErrEmptyFile
	}
	idx, err := columnIndex(table[0])
	if err != nil {
		return nil, err
	}

	cell := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	checked := make([]CheckedRow, 0, len(table)-1)
	for i, row := range table[1:] {
		raw := RawRow{
			Date:       cell(row, ColDate),
			Hours:      cell(row, ColHours),
			HourlyRate: cell(row, ColHourlyRate),
			Tag:        cell(row, ColTag),
			Notes:      cell(row, ColNotes),
		}
		if raw.blank() {
			continue
		}
		checked = append(checked, checkRow(i+2, raw))
	}
	if len(checked) == 0 {
		return nil, core.ErrEmptyFile
	}
	return checked, nil
}

func checkRow(rowNumber int, raw RawRow) CheckedRow {
	r := CheckedRow{RowNumber: rowNumber, Raw: raw}

	if d, err := core.ParseDate(raw.Date); err != nil {
		r.Errors = append(r.Errors, errInvalidDate)
	} else {
		r.Date = d
		r.DayOfWeek = d.WeekdayName()
	}

	hours, err := core.ParseNumber(raw.Hours)
	if err != nil || !hours.IsPositive() || hours.GreaterThan(maxHours) {
		r.Errors = append(r.Errors, errInvalidHours)
	} else {
		r.Hours = hours
	}

	rate, err := core.ParseNumber(raw.HourlyRate)
	if err != nil || rate.IsNegative() {
		r.Errors = append(r.Errors, errInvalidRate)
	} else {
		r.Rate = rate
	}

	if r.Valid() {
		r.Income = core.CalculatePay(core.HourlyPay{Hours: r.Hours, Rate: r.Rate})
	}
	return r
}
