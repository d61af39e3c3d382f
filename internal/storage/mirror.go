package storage

import (
	"context"
	"fmt"
	"time"

	"paytrack/internal/core"
)

func (r *SQLiteRepository) PendingSchedules(ctx context.Context, limit int) ([]core.Schedule, error) {
	var rows []scheduleRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+scheduleColumns+` FROM schedules
		WHERE mirrored_at IS NULL ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending schedules: %w", err)
	}
	return schedulesFromRows(rows)
}

func (r *SQLiteRepository) PendingExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	var rows []expenseRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+expenseColumns+` FROM expenses
		WHERE mirrored_at IS NULL ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending expenses: %w", err)
	}
	return expensesFromRows(rows)
}

func mirrorTable(kind RecordKind) (string, error) {
	switch kind {
	case KindSchedule:
		return "schedules", nil
	case KindExpense:
		return "expenses", nil
	default:
		return "", fmt.Errorf("unknown record kind %q", kind)
	}
}

func (r *SQLiteRepository) MarkMirrored(ctx context.Context, kind RecordKind, id string, at time.Time) error {
	table, err := mirrorTable(kind)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE `+table+` SET mirrored_at = ? WHERE id = ?`, at.UTC(), id); err != nil {
		return fmt.Errorf("mark %s %s mirrored: %w", kind, id, err)
	}
	return nil
}

// IsMirrored reports whether the record was already copied. Unknown ids are
// reported as not mirrored.
func (r *SQLiteRepository) IsMirrored(ctx context.Context, kind RecordKind, id string) (bool, error) {
	table, err := mirrorTable(kind)
	if err != nil {
		return false, err
	}
	var n int
	err = r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table+` WHERE id = ? AND mirrored_at IS NOT NULL`, id)
	if err != nil {
		return false, fmt.Errorf("check %s %s mirrored: %w", kind, id, err)
	}
	return n > 0, nil
}
