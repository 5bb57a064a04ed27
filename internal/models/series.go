package models

import "sort"

// InstrumentClass distinguishes tradable funds from informational indices.
type InstrumentClass string

const (
	ClassFund  InstrumentClass = "FUND"
	ClassIndex InstrumentClass = "INDEX"
)

// DayRecord is one dated row of an instrument series.
// For funds Primary is the unit NAV and Secondary the accumulated NAV; for
// indices Primary is the close and Secondary the open.
type DayRecord struct {
	Date           Date     `json:"date"`
	Primary        *float64 `json:"primary_value"`
	Secondary      *float64 `json:"secondary_value"`
	ChangePct      float64  `json:"change_pct"`
	High           *float64 `json:"high,omitempty"`
	Low            *float64 `json:"low,omitempty"`
	Volume         string   `json:"volume,omitempty"`
	PurchaseStatus string   `json:"status_purchase,omitempty"`
	RedeemStatus   string   `json:"status_redeem,omitempty"`
}

// InstrumentSeries is the dated history of one fund or index.
// Records are strictly ascending by date with no duplicates.
type InstrumentSeries struct {
	Code    string          `json:"code"`
	Key     string          `json:"key"`
	Name    string          `json:"name"`
	Class   InstrumentClass `json:"class"`
	Records []DayRecord     `json:"records"`
}

// Len returns the number of records.
func (s *InstrumentSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Empty reports whether the series has no records.
func (s *InstrumentSeries) Empty() bool { return s.Len() == 0 }

// At returns the record dated on d.
func (s *InstrumentSeries) At(d Date) (DayRecord, bool) {
	if s.Empty() {
		return DayRecord{}, false
	}
	i := sort.Search(len(s.Records), func(i int) bool {
		return !s.Records[i].Date.Before(d)
	})
	if i < len(s.Records) && s.Records[i].Date == d {
		return s.Records[i], true
	}
	return DayRecord{}, false
}

// Has reports whether the series has a record dated on d.
func (s *InstrumentSeries) Has(d Date) bool {
	_, ok := s.At(d)
	return ok
}

// First returns the earliest record.
func (s *InstrumentSeries) First() (DayRecord, bool) {
	if s.Empty() {
		return DayRecord{}, false
	}
	return s.Records[0], true
}

// Last returns the latest record.
func (s *InstrumentSeries) Last() (DayRecord, bool) {
	if s.Empty() {
		return DayRecord{}, false
	}
	return s.Records[len(s.Records)-1], true
}

// Dates returns the record dates in ascending order.
func (s *InstrumentSeries) Dates() []Date {
	dates := make([]Date, 0, s.Len())
	if s == nil {
		return dates
	}
	for _, r := range s.Records {
		dates = append(dates, r.Date)
	}
	return dates
}

// NewsItem is one dated piece of free-text news.
type NewsItem struct {
	Date    Date   `json:"date"`
	Content string `json:"content"`
}
