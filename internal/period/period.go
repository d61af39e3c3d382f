// Package period turns named period tokens into concrete date ranges.
//
// All ranges live on a "floating" UTC timeline: calendar dates are UTC
// midnights and the current wall-clock time of the configured zone is
// projected onto UTC. Stored record dates compare against range bounds
// directly.
package period

import (
	"fmt"
	"strings"
	"time"

	"paytrack/internal/core"
)

const (
	Week       Kind = "week"
	Month      Kind = "month"
	Custom     Kind = "custom"
	Last4Weeks Kind = "last4weeks"

	// DefaultKind applies when no period is requested.
	DefaultKind = Week
)

type Kind string

// Request is an unresolved period as received from a caller.
type Request struct {
	Kind      Kind
	StartDate string
	EndDate   string
}

// Range is a resolved period. It is half-open [Start, End) unless InclusiveEnd
// is set, which only custom ranges do.
type Range struct {
	Kind         Kind
	Start        time.Time
	End          time.Time
	InclusiveEnd bool
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return DefaultKind, nil
	case Week, Month, Custom, Last4Weeks:
		return k, nil
	default:
		return "", core.NewValidationError("period", fmt.Sprintf("unknown period %q", s))
	}
}

// ExclusiveEnd normalizes the range to a half-open upper bound.
func (r Range) ExclusiveEnd() time.Time {
	if r.InclusiveEnd {
		return r.End.Add(time.Millisecond)
	}
	return r.End
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.ExclusiveEnd())
}

// DateBounds returns the record dates d selected by the range as from <= d < until.
func (r Range) DateBounds() (from, until core.Date) {
	return ceilDay(r.Start), ceilDay(r.ExclusiveEnd())
}

// FirstDay and LastDay are the inclusive calendar days the range covers.
func (r Range) FirstDay() core.Date {
	from, _ := r.DateBounds()
	return from
}

func (r Range) LastDay() core.Date {
	_, until := r.DateBounds()
	return until.AddDays(-1)
}

func (r Range) String() string {
	return fmt.Sprintf("%s[%s..%s]", r.Kind, r.FirstDay(), r.LastDay())
}

func ceilDay(t time.Time) core.Date {
	d := core.DateOf(t.UTC())
	if !t.Equal(d.Time) {
		return d.AddDays(1)
	}
	return d
}

// Resolver resolves requests against an injected clock.
type Resolver struct {
	clock core.Clock
	loc   *time.Location
}

func NewResolver(clock core.Clock, loc *time.Location) *Resolver {
	if clock == nil {
		clock = core.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{clock: clock, loc: loc}
}

// Now is the wall-clock time of the configured zone projected onto UTC.
func (r *Resolver) Now() time.Time {
	w := r.clock.Now().In(r.loc)
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), time.UTC)
}

func (r *Resolver) Today() core.Date {
	return core.DateOf(r.Now())
}

func (r *Resolver) Resolve(req Request) (Range, error) {
	kind := req.Kind
	if kind == "" {
		kind = DefaultKind
	}
	today := r.Today()

	switch kind {
	case Week:
		start := today.AddDays(-today.WeekdayIndex())
		return Range{Kind: Week, Start: start.Time, End: start.AddDays(7).Time}, nil
	case Month:
		start := core.NewDate(today.Year(), int(today.Month()), 1)
		return Range{Kind: Month, Start: start.Time, End: start.AddDate(0, 1, 0)}, nil
	case Last4Weeks:
		return Range{Kind: Last4Weeks, Start: today.AddDays(-28).Time, End: r.Now()}, nil
	case Custom:
		return resolveCustom(req.StartDate, req.EndDate)
	default:
		return Range{}, core.NewValidationError("period", fmt.Sprintf("unknown period %q", kind))
	}
}

func resolveCustom(startDate, endDate string) (Range, error) {
	if strings.TrimSpace(startDate) == "" || strings.TrimSpace(endDate) == "" {
		return Range{}, fmt.Errorf("%w: startDate and endDate are required for a custom period", core.ErrInvalidRange)
	}
	start, err := core.ParseDate(startDate)
	if err != nil {
		return Range{}, fmt.Errorf("%w: startDate: %v", core.ErrInvalidRange, err)
	}
	end, err := core.ParseDate(endDate)
	if err != nil {
		return Range{}, fmt.Errorf("%w: endDate: %v", core.ErrInvalidRange, err)
	}
	if start.After(end.Time) {
		return Range{}, fmt.Errorf("%w: startDate %s is after endDate %s", core.ErrInvalidRange, start, end)
	}
	endOfDay := end.Add(24*time.Hour - time.Millisecond)
	return Range{Kind: Custom, Start: start.Time, End: endOfDay, InclusiveEnd: true}, nil
}
