package models

import "sort"

// DaySnapshot is the minimal per-instrument view on a trading day.
type DaySnapshot struct {
	Primary   *float64 `json:"primary_value"`
	ChangePct float64  `json:"change_pct"`
}

// TimelineDay is a trading day on which every active fund has data.
type TimelineDay struct {
	Date        Date                   `json:"date"`
	News        []string               `json:"news"`
	Instruments map[string]DaySnapshot `json:"instruments"`
}

// Snapshot returns the snapshot of the instrument stored under key.
func (d TimelineDay) Snapshot(key string) (DaySnapshot, bool) {
	s, ok := d.Instruments[key]
	return s, ok
}

// Timeline is the ordered sequence of trading days handed to the simulator.
// Days are strictly ascending by date. A Timeline is read-only once built.
type Timeline struct {
	Days []TimelineDay `json:"days"`
}

// Len returns the number of trading days.
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Days)
}

// Empty reports whether the timeline has no trading days.
func (t *Timeline) Empty() bool { return t.Len() == 0 }

// Day returns the i-th trading day.
func (t *Timeline) Day(i int) TimelineDay { return t.Days[i] }

// First returns the first trading day.
func (t *Timeline) First() (TimelineDay, bool) {
	if t.Empty() {
		return TimelineDay{}, false
	}
	return t.Days[0], true
}

// Last returns the last trading day.
func (t *Timeline) Last() (TimelineDay, bool) {
	if t.Empty() {
		return TimelineDay{}, false
	}
	return t.Days[len(t.Days)-1], true
}

// Find returns the index of the trading day dated on d.
func (t *Timeline) Find(d Date) (int, bool) {
	if t.Empty() {
		return 0, false
	}
	i := t.search(d)
	if i < len(t.Days) && t.Days[i].Date == d {
		return i, true
	}
	return i, false
}

// Between returns the trading days within [from, to]. A zero bound is open.
func (t *Timeline) Between(from, to Date) []TimelineDay {
	if t.Empty() {
		return nil
	}
	lo := 0
	if !from.IsZero() {
		lo = t.search(from)
	}
	hi := len(t.Days)
	if !to.IsZero() {
		hi = t.search(to.AddDays(1))
	}
	if lo >= hi {
		return nil
	}
	return t.Days[lo:hi]
}

// Dates returns the trading day dates in order.
func (t *Timeline) Dates() []Date {
	dates := make([]Date, 0, t.Len())
	if t == nil {
		return dates
	}
	for _, d := range t.Days {
		dates = append(dates, d.Date)
	}
	return dates
}

func (t *Timeline) search(d Date) int {
	return sort.Search(len(t.Days), func(i int) bool {
		return !t.Days[i].Date.Before(d)
	})
}
