package period

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paytrack/internal/core"
)

func resolverAt(t time.Time) *Resolver {
	return NewResolver(core.FixedClock(t), time.UTC)
}

func TestResolveWeek(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart core.Date
	}{
		{"wednesday", time.Date(2025, 1, 22, 15, 4, 5, 0, time.UTC), core.NewDate(2025, 1, 20)},
		{"monday midnight", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), core.NewDate(2025, 1, 20)},
		{"sunday belongs to the week that started monday", time.Date(2025, 1, 26, 23, 0, 0, 0, time.UTC), core.NewDate(2025, 1, 20)},
		{"across year boundary", time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), core.NewDate(2024, 12, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := resolverAt(tt.now).Resolve(Request{Kind: Week})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart.Time, r.Start)
			assert.Equal(t, tt.wantStart.AddDays(7).Time, r.End)
			assert.False(t, r.InclusiveEnd)
		})
	}
}

func TestWeekAndMonthShapeForEveryDay(t *testing.T) {
	day := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 800; i++ {
		now := day.AddDate(0, 0, i)
		res := resolverAt(now)

		w, err := res.Resolve(Request{Kind: Week})
		require.NoError(t, err)
		require.Equal(t, time.Monday, w.Start.Weekday(), "week start for %s", now)
		require.Equal(t, 7*24*time.Hour, w.End.Sub(w.Start), "week span for %s", now)
		require.True(t, w.Contains(now))

		m, err := res.Resolve(Request{Kind: Month})
		require.NoError(t, err)
		require.Equal(t, 1, m.Start.Day())
		require.Equal(t, 1, m.End.Day())
		require.Equal(t, now.Month(), m.Start.Month())
		require.True(t, m.Start.AddDate(0, 1, 0).Equal(m.End))
	}
}

func TestResolveMonth(t *testing.T) {
	r, err := resolverAt(time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC)).Resolve(Request{Kind: Month})
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2024, 2, 1).Time, r.Start)
	assert.Equal(t, core.NewDate(2024, 3, 1).Time, r.End)
	assert.Equal(t, core.NewDate(2024, 2, 29), r.LastDay())
}

func TestResolveLast4Weeks(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	r, err := resolverAt(now).Resolve(Request{Kind: Last4Weeks})
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2025, 2, 10).Time, r.Start)
	assert.Equal(t, now, r.End)
	assert.Equal(t, core.NewDate(2025, 3, 10), r.LastDay())
}

func TestResolveCustom(t *testing.T) {
	res := resolverAt(time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC))

	r, err := res.Resolve(Request{Kind: Custom, StartDate: "2025-01-01", EndDate: "2025-01-15"})
	require.NoError(t, err)
	assert.True(t, r.InclusiveEnd)
	assert.Equal(t, core.NewDate(2025, 1, 1).Time, r.Start)
	assert.Equal(t, time.Date(2025, 1, 15, 23, 59, 59, 999_000_000, time.UTC), r.End)
	assert.True(t, r.Contains(r.End))
	assert.False(t, r.Contains(core.NewDate(2025, 1, 16).Time))

	from, until := r.DateBounds()
	assert.Equal(t, core.NewDate(2025, 1, 1), from)
	assert.Equal(t, core.NewDate(2025, 1, 16), until)

	single, err := res.Resolve(Request{Kind: Custom, StartDate: "2025-01-05", EndDate: "2025-01-05"})
	require.NoError(t, err)
	assert.Equal(t, single.FirstDay(), single.LastDay())
}

func TestResolveCustomInvalid(t *testing.T) {
	res := resolverAt(time.Now())
	cases := []Request{
		{Kind: Custom, StartDate: "2025-02-01", EndDate: "2025-01-01"},
		{Kind: Custom, StartDate: "2025-01-01"},
		{Kind: Custom, EndDate: "2025-01-01"},
		{Kind: Custom, StartDate: "01/01/2025", EndDate: "2025-01-31"},
		{Kind: Custom, StartDate: "2025-01-01", EndDate: "2025-02-30"},
	}
	for _, req := range cases {
		_, err := res.Resolve(req)
		assert.True(t, errors.Is(err, core.ErrInvalidRange), "request %+v: %v", req, err)
	}
}

func TestWeekBoundaryInclusion(t *testing.T) {
	r, err := resolverAt(time.Date(2025, 1, 23, 10, 0, 0, 0, time.UTC)).Resolve(Request{Kind: Week})
	require.NoError(t, err)
	monday := core.NewDate(2025, 1, 20)
	assert.True(t, r.Contains(monday.Time))
	assert.False(t, r.Contains(monday.AddDays(-1).Time))
	assert.False(t, r.Contains(monday.AddDays(7).Time))
}

func TestResolverUsesConfiguredZone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 02:00 UTC on Monday is still Sunday evening at UTC-5.
	res := NewResolver(core.FixedClock(time.Date(2025, 1, 20, 2, 0, 0, 0, time.UTC)), loc)
	assert.Equal(t, core.NewDate(2025, 1, 19), res.Today())

	r, err := res.Resolve(Request{Kind: Week})
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2025, 1, 13).Time, r.Start)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, DefaultKind, k)

	k, err = ParseKind("Month")
	require.NoError(t, err)
	assert.Equal(t, Month, k)

	_, err = ParseKind("fortnight")
	assert.ErrorIs(t, err, core.ErrValidation)
}
