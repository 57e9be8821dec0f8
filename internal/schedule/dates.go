package schedule

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the day-month-year form the portal expects in its URLs.
const DateLayout = "02-01-2006"

var ErrInvalidWeek = errors.New("invalid week number")

func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// MondayOf returns the Monday that starts t's week.
func MondayOf(t time.Time) time.Time {
	d := DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// ISOWeekStart returns the Monday of ISO week `week` of ISO year `year`.
// January 4th always falls in week 1.
func ISOWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	return MondayOf(jan4).AddDate(0, 0, (week-1)*7)
}

func weekFrom(start time.Time) []time.Time {
	dates := make([]time.Time, 7)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

// Planner decides which calendar dates a scrape covers.
type Planner struct {
	Now func() time.Time
}

func NewPlanner() *Planner {
	return &Planner{Now: time.Now}
}

func (p *Planner) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// NextScheduleDates returns Monday..Sunday of the week after next.
func (p *Planner) NextScheduleDates() []time.Time {
	return weekFrom(MondayOf(p.now()).AddDate(0, 0, 14))
}

// DatesForWeek returns the seven dates of `week` in the current year, counted
// from the first Monday on or after January 1st with the portal's (week - 2)
// offset.
func (p *Planner) DatesForWeek(week int) ([]time.Time, error) {
	if week < 1 || week > 53 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWeek, week)
	}

	jan1 := time.Date(p.now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Monday) - int(jan1.Weekday()) + 7) % 7
	firstMonday := jan1.AddDate(0, 0, offset)

	return weekFrom(firstMonday.AddDate(0, 0, (week-2)*7)), nil
}

// Plan returns DatesForWeek(*week) when week is set, NextScheduleDates otherwise.
func (p *Planner) Plan(week *int) ([]time.Time, error) {
	if week == nil {
		return p.NextScheduleDates(), nil
	}
	return p.DatesForWeek(*week)
}
