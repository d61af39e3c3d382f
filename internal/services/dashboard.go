package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"paytrack/internal/cache"
	"paytrack/internal/core"
	"paytrack/internal/log"
	"paytrack/internal/period"
	"paytrack/internal/storage"
)

// DashboardService is the aggregation engine behind the dashboard.
type DashboardService struct {
	schedules storage.ScheduleStore
	expenses  storage.ExpenseStore
	cache     cache.Cache[core.Dashboard]

	// generations counts invalidations per owner; an aggregate is cached only
	// if no invalidation happened while it was being computed.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewDashboardService builds the service; a nil cache disables caching.
func NewDashboardService(schedules storage.ScheduleStore, expenses storage.ExpenseStore, c cache.Cache[core.Dashboard]) *DashboardService {
	return &DashboardService{
		schedules:   schedules,
		expenses:    expenses,
		cache:       c,
		generations: make(map[string]uint64),
	}
}

// Dashboard aggregates one owner's records over the resolved period.
func (s *DashboardService) Dashboard(ctx context.Context, ownerID string, r period.Range) (core.Dashboard, error) {
	if ownerID == "" {
		return core.Dashboard{}, core.ErrUnauthenticated
	}

	key, cacheable := dashboardKey(ownerID, r)
	cacheable = cacheable && s.cache != nil
	var gen uint64
	if cacheable {
		if d, ok := s.cache.Get(key); ok {
			return d, nil
		}
		gen = s.generation(ownerID)
	}

	schedules, expenses, err := LoadPeriod(ctx, s.schedules, s.expenses, ownerID, r)
	if err != nil {
		return core.Dashboard{}, err
	}
	d := Aggregate(schedules, expenses)

	if cacheable {
		s.setIfCurrent(ownerID, gen, key, d)
	}
	log.FromContext(ctx).WithComponent(log.ComponentDashboard).DebugContext(ctx, "Dashboard aggregated",
		log.FieldOwnerID, ownerID,
		log.FieldPeriod, r.String(),
		"schedules", len(schedules),
		"expenses", len(expenses))
	return d, nil
}

// Invalidate drops every cached dashboard of the owner. Aggregates computed
// before the call and still in flight are not cached.
func (s *DashboardService) Invalidate(ownerID string) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[ownerID]++
	s.cache.DeletePrefix(ownerID + "|")
}

func (s *DashboardService) generation(ownerID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[ownerID]
}

func (s *DashboardService) setIfCurrent(ownerID string, gen uint64, key string, d core.Dashboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[ownerID] == gen {
		s.cache.Set(key, d)
	}
}

// ranges ending at "now" move on every call and are never cached
func dashboardKey(ownerID string, r period.Range) (string, bool) {
	if r.Kind == period.Last4Weeks {
		return "", false
	}
	from, until := r.DateBounds()
	return ownerID + "|" + from.String() + "|" + until.String(), true
}

// LoadPeriod fetches the owner's schedules and expenses for the range concurrently.
func LoadPeriod(ctx context.Context, schedules storage.ScheduleStore, expenses storage.ExpenseStore, ownerID string, r period.Range) ([]core.Schedule, []core.Expense, error) {
	from, until := r.DateBounds()

	var (
		scheds []core.Schedule
		exps   []core.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	if schedules != nil {
		g.Go(func() error {
			var err error
			scheds, err = schedules.ListSchedules(gctx, ownerID, from, until)
			if err != nil {
				return fmt.Errorf("load schedules: %w", err)
			}
			return nil
		})
	}
	if expenses != nil {
		g.Go(func() error {
			var err error
			exps, err = expenses.ListExpenses(gctx, ownerID, from, until)
			if err != nil {
				return fmt.Errorf("load expenses: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return scheds, exps, nil
}

// Aggregate computes the dashboard from already scoped records.
//
// Only hourly schedules count towards total income and the weekday series;
// monthly-salary schedules still show their calculated pay per record.
func Aggregate(schedules []core.Schedule, expenses []core.Expense) core.Dashboard {
	var d core.Dashboard
	for i, label := range core.WeekdayLabels {
		d.IncomeByWeekday[i] = core.WeekdayAmount{Day: label, Amount: decimal.Zero}
	}
	d.TotalIncome = decimal.Zero
	d.TotalExpenses = decimal.Zero

	for _, s := range schedules {
		if _, ok := s.Pay.(core.HourlyPay); !ok {
			continue
		}
		pay := core.CalculatePay(s.Pay)
		d.TotalIncome = d.TotalIncome.Add(pay)
		idx := s.Date.WeekdayIndex()
		d.IncomeByWeekday[idx].Amount = d.IncomeByWeekday[idx].Amount.Add(pay)
	}

	byCategory := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		d.TotalExpenses = d.TotalExpenses.Add(e.Amount)
		label := e.CategoryLabel()
		byCategory[label] = byCategory[label].Add(e.Amount)
	}

	d.ExpensesByCategory = make([]core.CategoryAmount, 0, len(byCategory))
	for name, amount := range byCategory {
		d.ExpensesByCategory = append(d.ExpensesByCategory, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(d.ExpensesByCategory, func(i, j int) bool {
		return d.ExpensesByCategory[i].Name < d.ExpensesByCategory[j].Name
	})

	d.NetProfit = d.TotalIncome.Sub(d.TotalExpenses)
	return d
}
