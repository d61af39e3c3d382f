package http

import (
	"context"

	"paytrack/internal/core"
	"paytrack/internal/imports"
	"paytrack/internal/period"
	"paytrack/internal/reports"
	"paytrack/internal/services"
)

type DashboardReader interface {
	Dashboard(ctx context.Context, ownerID string, r period.Range) (core.Dashboard, error)
}

type ScheduleManager interface {
	Create(ctx context.Context, ownerID string, s core.Schedule) (core.Schedule, error)
	CreateWeekly(ctx context.Context, ownerID string, req services.WeeklyRequest) ([]core.Schedule, error)
	Get(ctx context.Context, ownerID, id string) (core.Schedule, error)
	Update(ctx context.Context, ownerID, id string, s core.Schedule) (core.Schedule, error)
	Delete(ctx context.Context, ownerID, id string) error
	List(ctx context.Context, ownerID string, r period.Range) ([]core.Schedule, error)
	Upcoming(ctx context.Context, ownerID string) ([]core.Schedule, error)
}

type ExpenseManager interface {
	Create(ctx context.Context, ownerID string, e core.Expense) (core.Expense, error)
	Get(ctx context.Context, ownerID, id string) (core.Expense, error)
	Update(ctx context.Context, ownerID, id string, e core.Expense, receiptRef *string) (core.Expense, error)
	Delete(ctx context.Context, ownerID, id string) error
	List(ctx context.Context, ownerID string, r period.Range) ([]core.Expense, error)
}

type ImportPipeline interface {
	Upload(ctx context.Context, ownerID, path, filename string) (imports.Preview, error)
	Confirm(ctx context.Context, ownerID, sessionID string, rowNumbers []int) (int, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, ownerID string, t reports.Type, r period.Range, f reports.Format) (reports.Report, error)
}

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
