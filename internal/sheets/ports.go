package sheets

import (
	"context"

	"paytrack/internal/core"
)

// Tab names of the mirror spreadsheet.
const (
	SchedulesTab = "Schedules"
	ExpensesTab  = "Expenses"
)

// RowAppender copies persisted records into a spreadsheet, one row each.
type RowAppender interface {
	AppendSchedule(ctx context.Context, s core.Schedule) (rowRef string, err error)
	AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
}
