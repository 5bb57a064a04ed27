// Package scenario loads a historical crisis scenario and hands the
// reconciled timeline, its inputs and its description to the simulator.
package scenario

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"crisis-replay/internal/config"
	"crisis-replay/internal/loader"
	"crisis-replay/internal/logging"
	"crisis-replay/internal/models"
	"crisis-replay/internal/store"
	"crisis-replay/internal/timeline"
)

// Scenario is the read-only handoff object consumed by the simulator.
type Scenario struct {
	ID          string                              `json:"id"`
	Name        string                              `json:"name"`
	Dir         string                              `json:"dir"`
	Timeline    *models.Timeline                    `json:"timeline"`
	StartDate   *models.Date                        `json:"simulation_start_date"`
	Funds       map[string]*models.InstrumentSeries `json:"funds"`
	Indices     map[string]*models.InstrumentSeries `json:"indices"`
	News        []models.NewsItem                   `json:"news"`
	Description string                              `json:"description"`
	Diagnostics []loader.Diagnostic                 `json:"diagnostics"`
	Report      timeline.Report                     `json:"report"`
}

// Series returns the fund or index series stored under key. Funds win when
// a key exists in both classes.
func (s *Scenario) Series(key string) (*models.InstrumentSeries, bool) {
	if series, ok := s.Funds[key]; ok {
		return series, true
	}
	series, ok := s.Indices[key]
	return series, ok
}

// FundCodes returns the loaded fund codes in sorted order.
func (s *Scenario) FundCodes() []string {
	return sortedKeys(s.Funds)
}

// IndexKeys returns the loaded index keys in sorted order.
func (s *Scenario) IndexKeys() []string {
	return sortedKeys(s.Indices)
}

// HasErrors reports whether any diagnostic is an error.
func (s *Scenario) HasErrors() bool {
	for _, d := range s.Diagnostics {
		if d.Severity == loader.SeverityError {
			return true
		}
	}
	return false
}

// StoreOpener opens a scenario store. It is replaced in tests.
type StoreOpener func(ctx context.Context, path string) (store.ScenarioStore, error)

// OpenSQLite opens the SQLite store at path.
func OpenSQLite(ctx context.Context, path string) (store.ScenarioStore, error) {
	s, err := store.OpenSQLiteStore(ctx, path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Loader assembles scenarios from their directories.
type Loader struct {
	data     config.DataConfig
	registry *loader.Registry
	open     StoreOpener
	logger   zerolog.Logger
}

// NewLoader creates a scenario loader from configuration.
func NewLoader(cfg *config.Config, logger zerolog.Logger) *Loader {
	return &Loader{
		data:     cfg.Data,
		registry: loader.NewRegistry(cfg.Benchmarks),
		open:     OpenSQLite,
		logger:   logger,
	}
}

// WithStoreOpener returns a copy of l using open to reach the store.
func (l *Loader) WithStoreOpener(open StoreOpener) *Loader {
	c := *l
	c.open = open
	return &c
}

// Option customises one load.
type Option func(*loadOptions)

type loadOptions struct {
	name  string
	floor *models.Date
}

// WithFloor replaces the derived start date as the timeline floor.
func WithFloor(d models.Date) Option {
	return func(o *loadOptions) {
		o.floor = &d
	}
}

// WithName labels the scenario; the directory name is used otherwise.
func WithName(name string) Option {
	return func(o *loadOptions) {
		o.name = name
	}
}

// Load reads the scenario in dir. Missing or partial data never fails the
// load: it degrades to empty series, feeds or placeholders and is reported
// in Diagnostics. The returned error is non-nil only when ctx is done.
//
// The store is opened read-only, queried, and closed before the timeline is
// reconciled.
func (l *Loader) Load(ctx context.Context, dir string, opts ...Option) (*Scenario, error) {
	o := loadOptions{name: filepath.Base(dir)}
	for _, opt := range opts {
		opt(&o)
	}

	sc := &Scenario{
		ID:      uuid.NewString(),
		Name:    o.name,
		Dir:     dir,
		Funds:   make(map[string]*models.InstrumentSeries),
		Indices: make(map[string]*models.InstrumentSeries),
	}
	logger := logging.WithLoadID(logging.WithScenario(l.loggerFor(ctx), sc.Name), sc.ID)
	logger.Info().Str("dir", dir).Msg("Loading scenario")

	l.loadSeries(ctx, logger, sc)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	news := loader.NewNewsLoader(logger).Load(filepath.Join(dir, l.data.NewsFile))
	sc.News = news.Value
	sc.Diagnostics = append(sc.Diagnostics, news.Diagnostics...)

	desc := loader.NewSceneDescriptor(logger).Load(dir, l.data.IntroPattern)
	sc.Description = desc.Value
	sc.Diagnostics = append(sc.Diagnostics, desc.Diagnostics...)

	floor := sc.StartDate
	if o.floor != nil {
		floor = o.floor
		logger.Info().Str("floor", floor.String()).Msg("Using explicit timeline floor")
	}

	sc.Timeline, sc.Report = timeline.NewBuilder(logger).Build(timeline.Input{
		Funds:   sc.Funds,
		Indices: sc.Indices,
		News:    sc.News,
		Floor:   floor,
	})

	logger.Info().
		Int("funds", len(sc.Funds)).
		Int("indices", len(sc.Indices)).
		Int("news", len(sc.News)).
		Int("trading_days", sc.Timeline.Len()).
		Int("diagnostics", len(sc.Diagnostics)).
		Msg("Scenario loaded")

	return sc, nil
}

// loggerFor prefers a logger attached to ctx over the loader's own.
func (l *Loader) loggerFor(ctx context.Context) zerolog.Logger {
	if _, ok := ctx.Value(logging.LoggerKey).(zerolog.Logger); ok {
		return logging.FromContext(ctx)
	}
	return l.logger
}

// loadSeries fills the fund and index series and derives the start date
// from the parsed fund records. The store connection does not outlive this
// call.
func (l *Loader) loadSeries(ctx context.Context, logger zerolog.Logger, sc *Scenario) {
	dbPath := l.data.DBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(sc.Dir, dbPath)
	}

	st, err := l.open(ctx, dbPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dbPath).Msg("Scenario store unavailable, continuing without series")
		sc.Diagnostics = append(sc.Diagnostics, loader.Diagnostic{
			Source: "store", Severity: loader.SeverityError, Message: "store unavailable", Err: err,
		})
		return
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close scenario store")
		}
	}()

	series := loader.NewSeriesLoader(st, l.registry, logger)
	funds := series.LoadFunds(ctx)
	indices := series.LoadIndices(ctx)

	sc.Funds = funds.Series
	sc.Indices = indices.Series
	sc.Diagnostics = append(sc.Diagnostics, funds.Diagnostics()...)
	sc.Diagnostics = append(sc.Diagnostics, indices.Diagnostics()...)

	sc.StartDate = earliestValidDate(sc.Funds)
	if sc.StartDate == nil {
		logger.Warn().Msg("No fund data found, timeline floor disabled")
		return
	}
	logger.Info().Str("start_date", sc.StartDate.String()).Msg("Simulation start date determined")
}

// earliestValidDate returns the earliest parsed NAV date across all funds,
// or nil when no fund has a record.
func earliestValidDate(funds map[string]*models.InstrumentSeries) *models.Date {
	var earliest *models.Date
	for _, s := range funds {
		r, ok := s.First()
		if !ok {
			continue
		}
		if earliest == nil || r.Date.Before(*earliest) {
			d := r.Date
			earliest = &d
		}
	}
	return earliest
}

func sortedKeys(m map[string]*models.InstrumentSeries) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
