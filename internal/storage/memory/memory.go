// Package memory is an in-process record store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"paytrack/internal/core"
	"paytrack/internal/storage"
)

type Store struct {
	mu        sync.Mutex
	schedules map[string]core.Schedule
	expenses  map[string]core.Expense
	mirrored  map[string]time.Time
	now       func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		schedules: make(map[string]core.Schedule),
		expenses:  make(map[string]core.Expense),
		mirrored:  make(map[string]time.Time),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// CreateSchedules mirrors the SQL table constraints so a bad record fails the whole batch.
func (s *Store) CreateSchedules(_ context.Context, schedules []core.Schedule) ([]core.Schedule, error) {
	for _, sc := range schedules {
		if sc.Pay == nil || sc.OwnerID == "" || sc.Date.IsZero() {
			return nil, fmt.Errorf("create schedules: invalid schedule for %s", sc.Date)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	created := make([]core.Schedule, len(schedules))
	for i, sc := range schedules {
		if sc.ID == "" {
			sc.ID = uuid.NewString()
		}
		sc.CreatedAt, sc.UpdatedAt = now, now
		s.schedules[sc.ID] = sc
		created[i] = sc
	}
	return created, nil
}

func (s *Store) GetSchedule(_ context.Context, ownerID, id string) (core.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok || sc.OwnerID != ownerID {
		return core.Schedule{}, fmt.Errorf("schedule %s: %w", id, core.ErrNotFound)
	}
	return sc, nil
}

func (s *Store) UpdateSchedule(_ context.Context, sc core.Schedule) (core.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.schedules[sc.ID]
	if !ok || prev.OwnerID != sc.OwnerID {
		return core.Schedule{}, fmt.Errorf("schedule %s: %w", sc.ID, core.ErrNotFound)
	}
	sc.CreatedAt = prev.CreatedAt
	sc.UpdatedAt = s.now()
	s.schedules[sc.ID] = sc
	return sc, nil
}

func (s *Store) DeleteSchedule(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok || sc.OwnerID != ownerID {
		return fmt.Errorf("schedule %s: %w", id, core.ErrNotFound)
	}
	delete(s.schedules, id)
	return nil
}

func (s *Store) ListSchedules(_ context.Context, ownerID string, from, until core.Date) ([]core.Schedule, error) {
	return s.filterSchedules(func(sc core.Schedule) bool {
		return sc.OwnerID == ownerID && !sc.Date.Before(from.Time) && sc.Date.Before(until.Time)
	}), nil
}

func (s *Store) ListUpcomingSchedules(_ context.Context, ownerID string, from core.Date) ([]core.Schedule, error) {
	return s.filterSchedules(func(sc core.Schedule) bool {
		return sc.OwnerID == ownerID && !sc.Date.Before(from.Time)
	}), nil
}

func (s *Store) filterSchedules(keep func(core.Schedule) bool) []core.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Schedule{}
	for _, sc := range s.schedules {
		if keep(sc) {
			out = append(out, sc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := s.now()
	e.CreatedAt, e.UpdatedAt = now, now
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) GetExpense(_ context.Context, ownerID, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.expenses[e.ID]
	if !ok || prev.OwnerID != e.OwnerID {
		return core.Expense{}, fmt.Errorf("expense %s: %w", e.ID, core.ErrNotFound)
	}
	e.CreatedAt = prev.CreatedAt
	e.UpdatedAt = s.now()
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, ownerID string, from, until core.Date) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if e.OwnerID == ownerID && !e.Date.Before(from.Time) && e.Date.Before(until.Time) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) PendingSchedules(_ context.Context, limit int) ([]core.Schedule, error) {
	all := s.filterSchedules(func(sc core.Schedule) bool {
		_, done := s.mirrored[mirrorKey(storage.KindSchedule, sc.ID)]
		return !done
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) PendingExpenses(_ context.Context, limit int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if _, done := s.mirrored[mirrorKey(storage.KindExpense, e.ID)]; !done {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkMirrored(_ context.Context, kind storage.RecordKind, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrored[mirrorKey(kind, id)] = at
	return nil
}

func (s *Store) IsMirrored(_ context.Context, kind storage.RecordKind, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, done := s.mirrored[mirrorKey(kind, id)]
	return done, nil
}

func mirrorKey(kind storage.RecordKind, id string) string {
	return string(kind) + ":" + id
}
