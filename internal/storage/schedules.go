package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paytrack/internal/core"
)

const scheduleColumns = `id, owner_id, date, day_of_week, pay_type, hours, hourly_rate, monthly_salary,
	tag, notes, is_future, created_at, updated_at`

const insertSchedule = `INSERT INTO schedules (` + scheduleColumns + `)
	VALUES (:id, :owner_id, :date, :day_of_week, :pay_type, :hours, :hourly_rate, :monthly_salary,
	:tag, :notes, :is_future, :created_at, :updated_at)`

type scheduleRow struct {
	ID            string              `db:"id"`
	OwnerID       string              `db:"owner_id"`
	Date          string              `db:"date"`
	DayOfWeek     string              `db:"day_of_week"`
	PayType       string              `db:"pay_type"`
	Hours         decimal.NullDecimal `db:"hours"`
	HourlyRate    decimal.NullDecimal `db:"hourly_rate"`
	MonthlySalary decimal.NullDecimal `db:"monthly_salary"`
	Tag           string              `db:"tag"`
	Notes         string              `db:"notes"`
	IsFuture      bool                `db:"is_future"`
	CreatedAt     time.Time           `db:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at"`
}

func toScheduleRow(s core.Schedule) scheduleRow {
	row := scheduleRow{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		Date:      s.Date.String(),
		DayOfWeek: s.DayOfWeek,
		PayType:   string(s.PayType()),
		Tag:       s.Tag,
		Notes:     s.Notes,
		IsFuture:  s.IsFuture,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	switch p := s.Pay.(type) {
	case core.HourlyPay:
		row.Hours = decimal.NewNullDecimal(p.Hours)
		row.HourlyRate = decimal.NewNullDecimal(p.Rate)
	case core.MonthlyPay:
		row.MonthlySalary = decimal.NewNullDecimal(p.Salary)
	}
	return row
}

func (row scheduleRow) toCore() (core.Schedule, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Schedule{}, fmt.Errorf("schedule %s: %w", row.ID, err)
	}
	s := core.Schedule{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Date:      date,
		DayOfWeek: row.DayOfWeek,
		Tag:       row.Tag,
		Notes:     row.Notes,
		IsFuture:  row.IsFuture,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	switch core.PayType(row.PayType) {
	case core.PayHourly:
		s.Pay = core.HourlyPay{Hours: row.Hours.Decimal, Rate: row.HourlyRate.Decimal}
	case core.PayMonthly:
		s.Pay = core.MonthlyPay{Salary: row.MonthlySalary.Decimal}
	}
	return s, nil
}

func schedulesFromRows(rows []scheduleRow) ([]core.Schedule, error) {
	out := make([]core.Schedule, 0, len(rows))
	for _, row := range rows {
		s, err := row.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateSchedules(ctx context.Context, schedules []core.Schedule) ([]core.Schedule, error) {
	now := r.now()
	created := make([]core.Schedule, len(schedules))
	for i, s := range schedules {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.CreatedAt, s.UpdatedAt = now, now
		created[i] = s
	}

	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		for _, s := range created {
			if _, err := tx.NamedExecContext(ctx, insertSchedule, toScheduleRow(s)); err != nil {
				return fmt.Errorf("insert schedule for %s: %w", s.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create schedules: %w", err)
	}
	return created, nil
}

func (r *SQLiteRepository) GetSchedule(ctx context.Context, ownerID, id string) (core.Schedule, error) {
	var row scheduleRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+scheduleColumns+` FROM schedules WHERE id = ? AND owner_id = ?`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Schedule{}, fmt.Errorf("schedule %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Schedule{}, fmt.Errorf("get schedule: %w", err)
	}
	return row.toCore()
}

func (r *SQLiteRepository) UpdateSchedule(ctx context.Context, s core.Schedule) (core.Schedule, error) {
	s.UpdatedAt = r.now()
	res, err := r.db.NamedExecContext(ctx, `UPDATE schedules SET
		date = :date, day_of_week = :day_of_week, pay_type = :pay_type, hours = :hours,
		hourly_rate = :hourly_rate, monthly_salary = :monthly_salary, tag = :tag, notes = :notes,
		is_future = :is_future, updated_at = :updated_at
		WHERE id = :id AND owner_id = :owner_id`, toScheduleRow(s))
	if err != nil {
		return core.Schedule{}, fmt.Errorf("update schedule: %w", err)
	}
	if err := checkAffected(res, fmt.Errorf("schedule %s: %w", s.ID, core.ErrNotFound)); err != nil {
		return core.Schedule{}, err
	}
	return r.GetSchedule(ctx, s.OwnerID, s.ID)
}

func (r *SQLiteRepository) DeleteSchedule(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return checkAffected(res, fmt.Errorf("schedule %s: %w", id, core.ErrNotFound))
}

func (r *SQLiteRepository) ListSchedules(ctx context.Context, ownerID string, from, until core.Date) ([]core.Schedule, error) {
	var rows []scheduleRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+scheduleColumns+` FROM schedules
		WHERE owner_id = ? AND date >= ? AND date < ?
		ORDER BY date, created_at`, ownerID, from.String(), until.String())
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedulesFromRows(rows)
}

func (r *SQLiteRepository) ListUpcomingSchedules(ctx context.Context, ownerID string, from core.Date) ([]core.Schedule, error) {
	var rows []scheduleRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+scheduleColumns+` FROM schedules
		WHERE owner_id = ? AND date >= ?
		ORDER BY date, created_at`, ownerID, from.String())
	if err != nil {
		return nil, fmt.Errorf("list upcoming schedules: %w", err)
	}
	return schedulesFromRows(rows)
}
