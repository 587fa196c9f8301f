// utils/dates.go
package utils

import (
	"fmt"
	"time"
)

var location = time.Local

// Now is the clock used for "today" and "tomorrow" decisions. Tests replace it.
var Now = func() time.Time { return time.Now().In(location) }

// SetLocation sets the business time zone used for calendar-day comparisons.
func SetLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	location = loc
	return nil
}

func Location() *time.Location {
	return location
}

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.In(location).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// EndOfDay is the last millisecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return BeginningOfDay(t).Add(24*time.Hour - time.Millisecond)
}

func SameDay(a, b time.Time) bool {
	return BeginningOfDay(a).Equal(BeginningOfDay(b))
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseDate accepts RFC3339 timestamps or plain YYYY-MM-DD days in the local zone.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// DateRange is an inclusive window; a nil bound is open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// ParseDateRange parses optional start/end query values. The end bound is
// extended to the end of its day.
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange
	if start != "" {
		t, err := ParseDate(start)
		if err != nil {
			return r, err
		}
		t = BeginningOfDay(t)
		r.Start = &t
	}
	if end != "" {
		t, err := ParseDate(end)
		if err != nil {
			return r, err
		}
		t = EndOfDay(t)
		r.End = &t
	}
	if r.Start != nil && r.End != nil && r.End.Before(*r.Start) {
		return r, fmt.Errorf("endDate is before startDate")
	}
	return r, nil
}

func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// Previous is the window of equal length immediately before r. It is only
// meaningful when both bounds are set.
func (r DateRange) Previous() DateRange {
	if r.Start == nil || r.End == nil {
		return DateRange{}
	}
	length := r.End.Sub(*r.Start)
	end := r.Start.Add(-time.Millisecond)
	start := end.Add(-length)
	return DateRange{Start: &start, End: &end}
}

// DashboardRangeKey returns key when it is a known dashboard range and "1m" otherwise.
func DashboardRangeKey(key string) string {
	switch key {
	case "1d", "3d", "5d", "7d", "2w", "1m", "3m":
		return key
	}
	return "1m"
}

// DashboardRange maps a range key (1d, 3d, 5d, 7d, 2w, 1m, 3m) to whole days
// ending with today. Unknown keys fall back to one month.
func DashboardRange(key string, now time.Time) DateRange {
	var start time.Time
	switch DashboardRangeKey(key) {
	case "1d":
		start = now.AddDate(0, 0, -1)
	case "3d":
		start = now.AddDate(0, 0, -3)
	case "5d":
		start = now.AddDate(0, 0, -5)
	case "7d":
		start = now.AddDate(0, 0, -7)
	case "2w":
		start = now.AddDate(0, 0, -14)
	case "3m":
		start = now.AddDate(0, -3, 0)
	default:
		start = now.AddDate(0, -1, 0)
	}
	start = BeginningOfDay(start)
	end := EndOfDay(now)
	return DateRange{Start: &start, End: &end}
}

// MonthRange parses YYYY-MM and returns the first and last instant of that month.
func MonthRange(month string) (DateRange, int, error) {
	first, err := time.ParseInLocation("2006-01", month, location)
	if err != nil {
		return DateRange{}, 0, fmt.Errorf("invalid month %q, expected YYYY-MM", month)
	}
	next := first.AddDate(0, 1, 0)
	last := next.Add(-time.Millisecond)
	days := int(next.Sub(first).Hours()/24 + 0.5)
	return DateRange{Start: &first, End: &last}, days, nil
}
