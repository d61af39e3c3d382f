package services

import (
	"context"
	"time"

	"paytrack/internal/core"
	"paytrack/internal/log"
	"paytrack/internal/period"
	"paytrack/internal/storage"
)

// ScheduleService owns schedule writes: derivation, validation, persistence
// and the notifications that follow a successful write.
type ScheduleService struct {
	store       storage.ScheduleStore
	resolver    *period.Resolver
	events      EventPublisher
	invalidator Invalidator
}

func NewScheduleService(store storage.ScheduleStore, resolver *period.Resolver, events EventPublisher, invalidator Invalidator) *ScheduleService {
	return &ScheduleService{store: store, resolver: resolver, events: events, invalidator: invalidator}
}

// WeeklyRequest describes a repeating shift pattern.
type WeeklyRequest struct {
	Start    core.Date
	Weekdays []time.Weekday
	Pay      core.Pay
	Tag      string
	Notes    string
}

func (s *ScheduleService) Create(ctx context.Context, ownerID string, sc core.Schedule) (core.Schedule, error) {
	created, err := s.CreateBatch(ctx, ownerID, []core.Schedule{sc})
	if err != nil {
		return core.Schedule{}, err
	}
	return created[0], nil
}

// CreateBatch validates every schedule before persisting any, then stores
// the batch all-or-nothing.
func (s *ScheduleService) CreateBatch(ctx context.Context, ownerID string, schedules []core.Schedule) ([]core.Schedule, error) {
	if ownerID == "" {
		return nil, core.ErrUnauthenticated
	}
	today := s.resolver.Today()
	batch := make([]core.Schedule, len(schedules))
	for i, sc := range schedules {
		sc.ID = ""
		sc.OwnerID = ownerID
		sc.Derive(today)
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		batch[i] = sc
	}

	created, err := s.store.CreateSchedules(ctx, batch)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, ownerID)
	for _, sc := range created {
		s.publish(ctx, sc)
	}
	log.FromContext(ctx).WithComponent(log.ComponentSchedule).InfoContext(ctx, "Schedules created",
		log.FieldOwnerID, ownerID,
		log.FieldCount, len(created))
	return created, nil
}

// CreateWeekly spawns one schedule per selected weekday from Start up to, but
// not including, the same day next month.
func (s *ScheduleService) CreateWeekly(ctx context.Context, ownerID string, req WeeklyRequest) ([]core.Schedule, error) {
	if req.Start.IsZero() {
		return nil, core.NewValidationError("startDate", "start date is required")
	}
	dates := WeeklyDates(req.Start, req.Weekdays)
	if len(dates) == 0 {
		return nil, core.NewValidationError("weekdays", "select at least one weekday")
	}

	batch := make([]core.Schedule, 0, len(dates))
	for _, d := range dates {
		batch = append(batch, core.Schedule{Date: d, Pay: req.Pay, Tag: req.Tag, Notes: req.Notes})
	}
	return s.CreateBatch(ctx, ownerID, batch)
}

// WeeklyDates lists the dates in [start, start+1 month) falling on one of weekdays.
func WeeklyDates(start core.Date, weekdays []time.Weekday) []core.Date {
	selected := make(map[time.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		selected[wd] = true
	}
	end := start.AddDate(0, 1, 0)
	var out []core.Date
	for d := start; d.Before(end); d = d.AddDays(1) {
		if selected[d.Weekday()] {
			out = append(out, d)
		}
	}
	return out
}

func (s *ScheduleService) Get(ctx context.Context, ownerID, id string) (core.Schedule, error) {
	if ownerID == "" {
		return core.Schedule{}, core.ErrUnauthenticated
	}
	return s.store.GetSchedule(ctx, ownerID, id)
}

// Update replaces every field of the schedule and re-derives the computed ones.
func (s *ScheduleService) Update(ctx context.Context, ownerID, id string, sc core.Schedule) (core.Schedule, error) {
	if ownerID == "" {
		return core.Schedule{}, core.ErrUnauthenticated
	}
	sc.ID = id
	sc.OwnerID = ownerID
	sc.Derive(s.resolver.Today())
	if err := sc.Validate(); err != nil {
		return core.Schedule{}, err
	}

	updated, err := s.store.UpdateSchedule(ctx, sc)
	if err != nil {
		return core.Schedule{}, err
	}
	s.afterWrite(ctx, ownerID)
	return updated, nil
}

func (s *ScheduleService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return core.ErrUnauthenticated
	}
	if err := s.store.DeleteSchedule(ctx, ownerID, id); err != nil {
		return err
	}
	s.afterWrite(ctx, ownerID)
	return nil
}

func (s *ScheduleService) List(ctx context.Context, ownerID string, r period.Range) ([]core.Schedule, error) {
	if ownerID == "" {
		return nil, core.ErrUnauthenticated
	}
	from, until := r.DateBounds()
	return s.store.ListSchedules(ctx, ownerID, from, until)
}

// Upcoming lists schedules dated today or later.
func (s *ScheduleService) Upcoming(ctx context.Context, ownerID string) ([]core.Schedule, error) {
	if ownerID == "" {
		return nil, core.ErrUnauthenticated
	}
	return s.store.ListUpcomingSchedules(ctx, ownerID, s.resolver.Today())
}

func (s *ScheduleService) afterWrite(_ context.Context, ownerID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ownerID)
	}
}

func (s *ScheduleService) publish(ctx context.Context, sc core.Schedule) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishRecordCreated(ctx, string(storage.KindSchedule), sc.ID, sc.OwnerID); err != nil {
		// the mirror worker's sweep picks the record up later
		log.FromContext(ctx).WithComponent(log.ComponentSchedule).WarnContext(ctx, "Failed to publish schedule event",
			log.FieldRecordID, sc.ID,
			log.FieldError, err.Error())
	}
}
