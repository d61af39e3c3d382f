package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// StagedRow is a validated upload row awaiting confirmation.
type StagedRow struct {
	RowNumber int             `json:"row"`
	Date      Date            `json:"date"`
	Hours     decimal.Decimal `json:"hours"`
	Rate      decimal.Decimal `json:"hourly_rate"`
	Tag       string          `json:"tag,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

// Schedule builds the hourly schedule an imported row becomes.
func (r StagedRow) Schedule(ownerID string, today Date) Schedule {
	s := Schedule{
		OwnerID: ownerID,
		Date:    r.Date,
		Pay:     HourlyPay{Hours: r.Hours, Rate: r.Rate},
		Tag:     r.Tag,
		Notes:   r.Notes,
	}
	s.Derive(today)
	return s
}

// UploadSession holds the staged rows of one upload until confirm or expiry.
type UploadSession struct {
	ID        string
	OwnerID   string
	Rows      []StagedRow
	ExpiresAt time.Time
}

// Select returns the staged rows whose numbers appear in rowNumbers, in staged order.
// Numbers that were never staged are ignored.
func (s UploadSession) Select(rowNumbers []int) []StagedRow {
	wanted := make(map[int]struct{}, len(rowNumbers))
	for _, n := range rowNumbers {
		wanted[n] = struct{}{}
	}
	selected := make([]StagedRow, 0, len(rowNumbers))
	for _, r := range s.Rows {
		if _, ok := wanted[r.RowNumber]; ok {
			selected = append(selected, r)
		}
	}
	return selected
}
