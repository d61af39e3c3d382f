package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"paytrack/internal/auth"
	"paytrack/internal/core"
	"paytrack/internal/period"
	"paytrack/internal/services"
)

// resolvePeriod resolves the period query parameters of r.
func (s *Server) resolvePeriod(r *http.Request) (period.Range, error) {
	req, err := ParsePeriodRequest(r.URL.Query())
	if err != nil {
		return period.Range{}, err
	}
	return s.deps.Resolver.Resolve(req)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	rng, err := s.resolvePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.deps.Dashboard.Dashboard(r.Context(), auth.OwnerFrom(r.Context()), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(newDashboardView(rng, d)).Write(w)
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	rng, err := s.resolvePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.deps.Schedules.List(r.Context(), auth.OwnerFrom(r.Context()), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(map[string]any{"period": newPeriodView(rng), "schedules": scheduleViews(list)}).Write(w)
}

func (s *Server) handleUpcomingSchedules(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Schedules.Upcoming(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(map[string]any{"schedules": scheduleViews(list)}).Write(w)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var in scheduleInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	sc, err := in.toSchedule()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.deps.Schedules.Create(r.Context(), auth.OwnerFrom(r.Context()), sc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(newScheduleView(created)).Write(w)
}

func (s *Server) handleCreateWeekly(w http.ResponseWriter, r *http.Request) {
	var in weeklyInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	verr := &core.ValidationError{}
	start, err := core.ParseDate(in.StartDate)
	if err != nil {
		verr.Add("startDate", "startDate must be YYYY-MM-DD")
	}
	weekdays, err := ParseWeekdays(in.Weekdays)
	if err != nil {
		verr.Add("weekdays", err.Error())
	}
	pay := scheduleInput{
		PayType:       in.PayType,
		Hours:         in.Hours,
		HourlyRate:    in.HourlyRate,
		MonthlySalary: in.MonthlySalary,
	}.pay(verr)
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.deps.Schedules.CreateWeekly(r.Context(), auth.OwnerFrom(r.Context()), services.WeeklyRequest{
		Start:    start,
		Weekdays: weekdays,
		Pay:      pay,
		Tag:      sanitizeInput(in.Tag),
		Notes:    sanitizeInput(in.Notes),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(map[string]any{
		"created":   len(created),
		"schedules": scheduleViews(created),
	}).Write(w)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	sc, err := s.deps.Schedules.Get(r.Context(), auth.OwnerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(newScheduleView(sc)).Write(w)
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var in scheduleInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	sc, err := in.toSchedule()
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.deps.Schedules.Update(r.Context(), auth.OwnerFrom(r.Context()), chi.URLParam(r, "id"), sc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(newScheduleView(updated)).Write(w)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Schedules.Delete(r.Context(), auth.OwnerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	rng, err := s.resolvePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.deps.Expenses.List(r.Context(), auth.OwnerFrom(r.Context()), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(map[string]any{"period": newPeriodView(rng), "expenses": expenseViews(list)}).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := in.toExpense()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.deps.Expenses.Create(r.Context(), auth.OwnerFrom(r.Context()), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(newExpenseView(created)).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Expenses.Get(r.Context(), auth.OwnerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(newExpenseView(e)).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := in.toExpense()
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.deps.Expenses.Update(r.Context(), auth.OwnerFrom(r.Context()), chi.URLParam(r, "id"), e, in.receiptRef())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(newExpenseView(updated)).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Expenses.Delete(r.Context(), auth.OwnerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
