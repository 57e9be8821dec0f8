package schedule

import (
	"errors"
	"testing"
	"time"
)

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 9, 30, 0, 0, time.UTC) }
}

func assertWeek(t *testing.T, dates []time.Time) {
	t.Helper()
	if len(dates) != 7 {
		t.Fatalf("expected 7 dates, got %d", len(dates))
	}
	if dates[0].Weekday() != time.Monday {
		t.Fatalf("week starts on %s, want Monday", dates[0].Weekday())
	}
	for i := 1; i < len(dates); i++ {
		if got := dates[i].Sub(dates[i-1]); got != 24*time.Hour {
			t.Fatalf("dates %d and %d are %s apart", i-1, i, got)
		}
	}
}

func TestNextScheduleDatesSkipsNextWeek(t *testing.T) {
	p := &Planner{Now: fixedClock(2026, time.October, 17)}

	dates := p.NextScheduleDates()
	assertWeek(t, dates)

	if got := FormatDate(dates[0]); got != "26-10-2026" {
		t.Fatalf("first date = %s, want 26-10-2026", got)
	}
	if got := FormatDate(dates[6]); got != "01-11-2026" {
		t.Fatalf("last date = %s, want 01-11-2026", got)
	}
}

func TestNextScheduleDatesRollsOverYear(t *testing.T) {
	p := &Planner{Now: fixedClock(2026, time.December, 20)}

	dates := p.NextScheduleDates()
	assertWeek(t, dates)

	if got := FormatDate(dates[0]); got != "28-12-2026" {
		t.Fatalf("first date = %s", got)
	}
	if got := FormatDate(dates[6]); got != "03-01-2027" {
		t.Fatalf("last date = %s", got)
	}
}

func TestNextScheduleDatesDistanceFromToday(t *testing.T) {
	start := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 400; i++ {
		today := start.AddDate(0, 0, i)
		p := &Planner{Now: func() time.Time { return today }}

		dates := p.NextScheduleDates()
		assertWeek(t, dates)

		ahead := int(dates[0].Sub(DateOnly(today)).Hours() / 24)
		if ahead <= 7 || ahead > 14 {
			t.Fatalf("%s: first date is %d days ahead", today.Format(sqlDateLayout), ahead)
		}
	}
}

func TestDatesForWeekIsMondayStarting(t *testing.T) {
	for _, year := range []int{2025, 2026, 2027, 2028} {
		p := &Planner{Now: fixedClock(year, time.June, 1)}
		for w := 2; w <= 52; w++ {
			dates, err := p.DatesForWeek(w)
			if err != nil {
				t.Fatalf("%d week %d: %v", year, w, err)
			}
			assertWeek(t, dates)
		}
	}
}

func TestDatesForWeekBoundaries(t *testing.T) {
	// 2026-01-01 is a Thursday, so the first Monday is 2026-01-05.
	p := &Planner{Now: fixedClock(2026, time.March, 3)}

	cases := []struct {
		week  int
		first string
		last  string
	}{
		{1, "29-12-2025", "04-01-2026"},
		{2, "05-01-2026", "11-01-2026"},
		{52, "21-12-2026", "27-12-2026"},
		{53, "28-12-2026", "03-01-2027"},
	}
	for _, tc := range cases {
		dates, err := p.DatesForWeek(tc.week)
		if err != nil {
			t.Fatalf("week %d: %v", tc.week, err)
		}
		assertWeek(t, dates)
		if got := FormatDate(dates[0]); got != tc.first {
			t.Errorf("week %d starts %s, want %s", tc.week, got, tc.first)
		}
		if got := FormatDate(dates[6]); got != tc.last {
			t.Errorf("week %d ends %s, want %s", tc.week, got, tc.last)
		}
	}
}

func TestDatesForWeekWhenYearStartsOnMonday(t *testing.T) {
	// 2024-01-01 is a Monday.
	p := &Planner{Now: fixedClock(2024, time.May, 5)}

	dates, err := p.DatesForWeek(2)
	if err != nil {
		t.Fatal(err)
	}
	if got := FormatDate(dates[0]); got != "01-01-2024" {
		t.Fatalf("week 2 starts %s, want 01-01-2024", got)
	}
}

func TestDatesForWeekRejectsOutOfRange(t *testing.T) {
	p := &Planner{Now: fixedClock(2026, time.March, 3)}
	for _, w := range []int{-1, 0, 54} {
		if _, err := p.DatesForWeek(w); !errors.Is(err, ErrInvalidWeek) {
			t.Errorf("week %d: expected ErrInvalidWeek, got %v", w, err)
		}
	}
}

func TestPlan(t *testing.T) {
	p := &Planner{Now: fixedClock(2026, time.October, 17)}

	dates, err := p.Plan(nil)
	if err != nil || FormatDate(dates[0]) != "26-10-2026" {
		t.Fatalf("Plan(nil) = %v, %v", dates, err)
	}

	week := 10
	dates, err = p.Plan(&week)
	if err != nil || FormatDate(dates[0]) != "02-03-2026" {
		t.Fatalf("Plan(10) = %v, %v", dates, err)
	}
}

func TestISOWeekStart(t *testing.T) {
	cases := []struct {
		year, week int
		want       string
	}{
		{2026, 1, "29-12-2025"},
		{2026, 44, "26-10-2026"},
		{2020, 53, "28-12-2020"},
	}
	for _, tc := range cases {
		if got := FormatDate(ISOWeekStart(tc.year, tc.week)); got != tc.want {
			t.Errorf("ISOWeekStart(%d, %d) = %s, want %s", tc.year, tc.week, got, tc.want)
		}
	}
}
