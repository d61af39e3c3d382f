package storage

import (
	"context"
	"time"

	"paytrack/internal/core"
)

type RecordKind string

const (
	KindSchedule RecordKind = "schedule"
	KindExpense  RecordKind = "expense"
)

// ScheduleStore persists schedules. Every read and write is scoped by owner;
// a record owned by someone else behaves as if it did not exist.
type ScheduleStore interface {
	// CreateSchedules inserts the batch atomically and returns it with ids assigned.
	CreateSchedules(ctx context.Context, schedules []core.Schedule) ([]core.Schedule, error)
	GetSchedule(ctx context.Context, ownerID, id string) (core.Schedule, error)
	UpdateSchedule(ctx context.Context, s core.Schedule) (core.Schedule, error)
	DeleteSchedule(ctx context.Context, ownerID, id string) error
	// ListSchedules returns schedules dated from <= date < until, oldest first.
	ListSchedules(ctx context.Context, ownerID string, from, until core.Date) ([]core.Schedule, error)
	ListUpcomingSchedules(ctx context.Context, ownerID string, from core.Date) ([]core.Schedule, error)
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, ownerID, id string) error
	ListExpenses(ctx context.Context, ownerID string, from, until core.Date) ([]core.Expense, error)
}

// MirrorStore tracks which records have been copied to the spreadsheet mirror.
type MirrorStore interface {
	PendingSchedules(ctx context.Context, limit int) ([]core.Schedule, error)
	PendingExpenses(ctx context.Context, limit int) ([]core.Expense, error)
	MarkMirrored(ctx context.Context, kind RecordKind, id string, at time.Time) error
	IsMirrored(ctx context.Context, kind RecordKind, id string) (bool, error)
}

// Store is the full record store used by the services and the mirror worker.
type Store interface {
	ScheduleStore
	ExpenseStore
	MirrorStore
	Ping(ctx context.Context) error
	Close() error
}
