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

const expenseColumns = `id, owner_id, date, vendor, category, amount, receipt_ref, notes, created_at, updated_at`

type expenseRow struct {
	ID         string          `db:"id"`
	OwnerID    string          `db:"owner_id"`
	Date       string          `db:"date"`
	Vendor     string          `db:"vendor"`
	Category   string          `db:"category"`
	Amount     decimal.Decimal `db:"amount"`
	ReceiptRef string          `db:"receipt_ref"`
	Notes      string          `db:"notes"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func toExpenseRow(e core.Expense) expenseRow {
	return expenseRow{
		ID:         e.ID,
		OwnerID:    e.OwnerID,
		Date:       e.Date.String(),
		Vendor:     e.Vendor,
		Category:   e.Category,
		Amount:     e.Amount,
		ReceiptRef: e.ReceiptRef,
		Notes:      e.Notes,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func (row expenseRow) toCore() (core.Expense, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: %w", row.ID, err)
	}
	return core.Expense{
		ID:         row.ID,
		OwnerID:    row.OwnerID,
		Date:       date,
		Vendor:     row.Vendor,
		Category:   row.Category,
		Amount:     row.Amount,
		ReceiptRef: row.ReceiptRef,
		Notes:      row.Notes,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func expensesFromRows(rows []expenseRow) ([]core.Expense, error) {
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := row.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := r.now()
	e.CreatedAt, e.UpdatedAt = now, now

	_, err := r.db.NamedExecContext(ctx, `INSERT INTO expenses (`+expenseColumns+`)
		VALUES (:id, :owner_id, :date, :vendor, :category, :amount, :receipt_ref, :notes, :created_at, :updated_at)`,
		toExpenseRow(e))
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	var row expenseRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return row.toCore()
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.UpdatedAt = r.now()
	res, err := r.db.NamedExecContext(ctx, `UPDATE expenses SET
		date = :date, vendor = :vendor, category = :category, amount = :amount,
		receipt_ref = :receipt_ref, notes = :notes, updated_at = :updated_at
		WHERE id = :id AND owner_id = :owner_id`, toExpenseRow(e))
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if err := checkAffected(res, fmt.Errorf("expense %s: %w", e.ID, core.ErrNotFound)); err != nil {
		return core.Expense{}, err
	}
	return r.GetExpense(ctx, e.OwnerID, e.ID)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return checkAffected(res, fmt.Errorf("expense %s: %w", id, core.ErrNotFound))
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, ownerID string, from, until core.Date) ([]core.Expense, error) {
	var rows []expenseRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+expenseColumns+` FROM expenses
		WHERE owner_id = ? AND date >= ? AND date < ?
		ORDER BY date, created_at`, ownerID, from.String(), until.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expensesFromRows(rows)
}
