package memory

import (
	"context"
	"fmt"
	"sync"

	"paytrack/internal/core"
	ports "paytrack/internal/sheets"
)

// Sink keeps appended records in memory. Set Err to make appends fail.
type Sink struct {
	mu        sync.Mutex
	schedules []core.Schedule
	expenses  []core.Expense
	Err       error
}

var _ ports.RowAppender = (*Sink)(nil)

func New() *Sink {
	return &Sink{}
}

func (s *Sink) AppendSchedule(_ context.Context, sc core.Schedule) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.schedules = append(s.schedules, sc)
	return fmt.Sprintf("%s!A%d", ports.SchedulesTab, len(s.schedules)+1), nil
}

func (s *Sink) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.expenses = append(s.expenses, e)
	return fmt.Sprintf("%s!A%d", ports.ExpensesTab, len(s.expenses)+1), nil
}

func (s *Sink) Schedules() []core.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Schedule(nil), s.schedules...)
}

func (s *Sink) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses...)
}
