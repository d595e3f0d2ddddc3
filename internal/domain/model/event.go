// Package model contains domain models passed between pipeline stages.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DayLayout is the textual form of a Day.
const DayLayout = "2006-01-02"

// Day is a calendar day with no time-of-day component, counted as days since
// 1970-01-01. Arithmetic on days is plain integer arithmetic.
type Day int

// DayOf truncates an instant to its calendar day in loc. A nil loc means
// time.Local.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return Date(y, m, d)
}

// Date returns the Day for the given calendar date.
func Date(year int, month time.Month, day int) Day {
	midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Day(midnight.Unix() / secondsPerDay)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse day %q: %w", s, err)
	}
	return Date(t.Date()), nil
}

const secondsPerDay = 24 * 60 * 60

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// Add returns the day n days later.
func (d Day) Add(n int) Day { return d + Day(n) }

// Sub returns the number of days between d and other.
func (d Day) Sub(other Day) int { return int(d - other) }

func (d Day) String() string { return d.Time().Format(DayLayout) }

// Event is the format-independent unit of aggregation: a sent or received
// message credited to one or more people. Weight is split evenly across
// Creditors at aggregation time.
type Event struct {
	Day       Day
	Creditors []string
	Weight    float64
}

func (e Event) String() string {
	return fmt.Sprintf("event{day=%s creditors=%v weight=%g}", e.Day, e.Creditors, e.Weight)
}

// Series maps a day to the accumulated weighted count for one person. Only
// days with activity are present.
type Series map[Day]float64

// Days returns the keys of s in ascending order.
func (s Series) Days() []Day {
	days := make([]Day, 0, len(s))
	for d := range s {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// Total returns the sum of all counts in s.
func (s Series) Total() float64 {
	var total float64
	for _, d := range s.Days() {
		total += s[d]
	}
	return total
}
