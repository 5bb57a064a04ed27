// Package timeline reconciles fund, index and news data into the ordered
// sequence of trading days consumed by the simulator.
//
// A date becomes a trading day only when every active fund (a fund with at
// least one record) has a record on that exact date. Index and news dates
// never create trading days on their own; they only enrich days that pass
// the fund completeness gate. A scenario-wide floor discards earlier dates
// before the gate is applied.
package timeline

import (
	"sort"

	"github.com/rs/zerolog"

	"crisis-replay/internal/logging"
	"crisis-replay/internal/models"
)

// IndexKeyPrefix marks an index snapshot whose key collides with a fund code.
const IndexKeyPrefix = "index:"

// Input is everything the reconciler consumes.
type Input struct {
	Funds   map[string]*models.InstrumentSeries
	Indices map[string]*models.InstrumentSeries
	News    []models.NewsItem
	// Floor is the earliest admissible date. Nil disables the floor.
	Floor *models.Date
}

// RejectedDay is a candidate date that failed the completeness gate.
type RejectedDay struct {
	Date         models.Date `json:"date"`
	MissingFunds []string    `json:"missing_funds"`
}

// Report summarises one reconciliation.
type Report struct {
	CandidateDates int           `json:"candidate_dates"`
	FlooredDates   int           `json:"floored_dates"`
	ActiveFunds    []string      `json:"active_funds"`
	TradingDays    int           `json:"trading_days"`
	Rejected       []RejectedDay `json:"rejected"`
}

// Builder builds timelines.
type Builder struct {
	logger zerolog.Logger
}

// NewBuilder creates a timeline builder.
func NewBuilder(logger zerolog.Logger) *Builder {
	return &Builder{logger: logging.WithOperation(logger, "build_timeline")}
}

// Build reconciles in into a Timeline. It never fails: an empty active fund
// set or data without a single complete day yields an empty Timeline.
func (b *Builder) Build(in Input) (*models.Timeline, Report) {
	var report Report

	// Union of every fund, index and news date, ascending.
	seen := make(map[models.Date]struct{})
	for _, s := range in.Funds {
		for _, r := range s.Records {
			seen[r.Date] = struct{}{}
		}
	}
	for _, s := range in.Indices {
		for _, r := range s.Records {
			seen[r.Date] = struct{}{}
		}
	}
	for _, n := range in.News {
		seen[n.Date] = struct{}{}
	}
	dates := make([]models.Date, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	report.CandidateDates = len(dates)

	if in.Floor != nil {
		floor := *in.Floor
		cut := sort.Search(len(dates), func(i int) bool { return !dates[i].Before(floor) })
		report.FlooredDates = cut
		dates = dates[cut:]
	}

	report.ActiveFunds = activeFunds(in.Funds)
	b.logger.Debug().Int("active_funds", len(report.ActiveFunds)).Msg("Active fund set determined")

	timeline := &models.Timeline{}
	if len(report.ActiveFunds) == 0 {
		logging.LogTimelineBuilt(b.logger, 0, report.CandidateDates, 0, "", "")
		return timeline, report
	}

	news := groupNews(in.News)
	fundKeys := sortedKeys(in.Funds)
	indexKeys := sortedKeys(in.Indices)

	for _, d := range dates {
		var missing []string
		for _, code := range report.ActiveFunds {
			if !in.Funds[code].Has(d) {
				missing = append(missing, code)
			}
		}
		if len(missing) > 0 {
			report.Rejected = append(report.Rejected, RejectedDay{Date: d, MissingFunds: missing})
			continue
		}

		day := models.TimelineDay{
			Date:        d,
			News:        append([]string{}, news[d]...),
			Instruments: make(map[string]models.DaySnapshot),
		}
		for _, key := range fundKeys {
			if r, ok := in.Funds[key].At(d); ok {
				day.Instruments[key] = snapshot(r)
			}
		}
		for _, key := range indexKeys {
			if r, ok := in.Indices[key].At(d); ok {
				day.Instruments[indexSnapshotKey(key, in.Funds)] = snapshot(r)
			}
		}
		timeline.Days = append(timeline.Days, day)
	}
	report.TradingDays = timeline.Len()

	first, last := "", ""
	if d, ok := timeline.First(); ok {
		first = d.Date.String()
	}
	if d, ok := timeline.Last(); ok {
		last = d.Date.String()
	}
	logging.LogTimelineBuilt(b.logger, len(report.ActiveFunds), report.CandidateDates, report.TradingDays, first, last)
	if timeline.Empty() {
		b.logger.Warn().Msg("No date has data for every active fund")
	}

	return timeline, report
}

// Build reconciles in with a silent builder.
func Build(in Input) *models.Timeline {
	t, _ := NewBuilder(zerolog.Nop()).Build(in)
	return t
}

// activeFunds returns the codes of non-empty fund series in sorted order.
func activeFunds(funds map[string]*models.InstrumentSeries) []string {
	var codes []string
	for code, s := range funds {
		if !s.Empty() {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

func groupNews(items []models.NewsItem) map[models.Date][]string {
	byDate := make(map[models.Date][]string)
	for _, n := range items {
		byDate[n.Date] = append(byDate[n.Date], n.Content)
	}
	return byDate
}

func sortedKeys(m map[string]*models.InstrumentSeries) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func snapshot(r models.DayRecord) models.DaySnapshot {
	return models.DaySnapshot{Primary: r.Primary, ChangePct: r.ChangePct}
}

func indexSnapshotKey(key string, funds map[string]*models.InstrumentSeries) string {
	if _, clash := funds[key]; clash {
		return IndexKeyPrefix + key
	}
	return key
}
