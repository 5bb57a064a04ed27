package loader

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	apperrors "crisis-replay/internal/errors"
	"crisis-replay/internal/logging"
	"crisis-replay/internal/models"
	"crisis-replay/internal/numeric"
	"crisis-replay/internal/store"
)

// SeriesSource is the part of the store the series loader reads.
type SeriesSource interface {
	ListFunds(ctx context.Context) ([]store.Instrument, error)
	ListIndices(ctx context.Context) ([]store.Instrument, error)
	FundNAV(ctx context.Context, code string) ([]store.NAVRow, error)
	IndexData(ctx context.Context, code string) ([]store.IndexRow, error)
}

// SeriesLoader loads fund and index series into per-instrument models.
type SeriesLoader struct {
	src        SeriesSource
	registry   *Registry
	normalizer *numeric.Normalizer
	logger     zerolog.Logger
}

// NewSeriesLoader creates a loader reading from src. registry may be nil, in
// which case every index keeps its raw code as key.
func NewSeriesLoader(src SeriesSource, registry *Registry, logger zerolog.Logger) *SeriesLoader {
	return &SeriesLoader{
		src:        src,
		registry:   registry,
		normalizer: numeric.NewNormalizer(logger),
		logger:     logger,
	}
}

// LoadFunds loads every fund's NAV history. Each fund is keyed by its code.
func (l *SeriesLoader) LoadFunds(ctx context.Context) BatchResult {
	batch := newBatch(models.ClassFund)
	logger := logging.WithOperation(l.logger, "load_funds")

	funds, err := l.src.ListFunds(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to enumerate funds")
		batch.Err = err
		return batch
	}

	for _, f := range funds {
		outcome := l.loadFund(ctx, f)
		batch.Outcomes = append(batch.Outcomes, outcome)
		batch.Series[outcome.Value.Key] = outcome.Value
	}

	logger.Info().Int("funds", len(batch.Series)).Int("records", batch.Records()).Int("failed", len(batch.Failed())).Msg("Fund data loaded")
	return batch
}

// LoadIndices loads every index's history. Recognised benchmarks are keyed by
// their canonical key, other indices by their code.
func (l *SeriesLoader) LoadIndices(ctx context.Context) BatchResult {
	batch := newBatch(models.ClassIndex)
	logger := logging.WithOperation(l.logger, "load_indices")

	indices, err := l.src.ListIndices(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to enumerate indices")
		batch.Err = err
		return batch
	}

	for _, idx := range indices {
		key := l.registry.KeyFor(idx.Code, idx.Name)
		var collision *Diagnostic
		if _, taken := batch.Series[key]; taken && key != idx.Code {
			collision = &Diagnostic{
				Source:     "index_data",
				Instrument: idx.Code,
				Severity:   SeverityWarning,
				Message:    fmt.Sprintf("benchmark key %q already assigned, keeping raw code", key),
			}
			key = idx.Code
		}
		if _, taken := batch.Series[key]; taken {
			d := Diagnostic{
				Source:     "index_data",
				Instrument: idx.Code,
				Severity:   SeverityError,
				Message:    fmt.Sprintf("lookup key %q already assigned, index skipped", key),
			}
			logger.Error().Str("instrument", idx.Code).Str("key", key).Msg("Index key collision")
			batch.Outcomes = append(batch.Outcomes, SeriesOutcome{
				Code:        idx.Code,
				Value:       &models.InstrumentSeries{Code: idx.Code, Key: key, Name: idx.Name, Class: models.ClassIndex},
				Diagnostics: []Diagnostic{d},
				Err:         fmt.Errorf("%w: duplicate key %q", apperrors.ErrMalformedRecord, key),
			})
			continue
		}

		outcome := l.loadIndex(ctx, idx, key)
		if collision != nil {
			outcome.Diagnostics = append([]Diagnostic{*collision}, outcome.Diagnostics...)
		}
		batch.Outcomes = append(batch.Outcomes, outcome)
		batch.Series[key] = outcome.Value
	}

	logger.Info().Int("indices", len(batch.Series)).Int("records", batch.Records()).Int("failed", len(batch.Failed())).Msg("Index data loaded")
	return batch
}

func (l *SeriesLoader) loadFund(ctx context.Context, f store.Instrument) SeriesOutcome {
	logger := logging.WithInstrument(l.logger, string(models.ClassFund), f.Code)
	series := &models.InstrumentSeries{Code: f.Code, Key: f.Code, Name: f.Name, Class: models.ClassFund}
	outcome := SeriesOutcome{Code: f.Code, Value: series}

	rows, err := l.src.FundNAV(ctx, f.Code)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load fund data, continuing with an empty series")
		outcome.Err = apperrors.NewDataError("fund_nav", f.Code, "query failed", err)
		outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
			Source: "fund_nav", Instrument: f.Code, Severity: SeverityError, Message: "query failed", Err: err,
		})
		return outcome
	}

	for _, row := range rows {
		date, err := models.ParseDate(row.Date)
		if err != nil {
			logger.Warn().Err(err).Str("date", row.Date).Msg("Skipping record with unparseable date")
			outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
				Source: "fund_nav", Instrument: f.Code, Date: row.Date, Severity: SeverityWarning,
				Message: "record skipped: unparseable date", Err: err,
			})
			continue
		}

		n := l.fieldNormalizer(logger, &outcome, "fund_nav", f.Code, row.Date)
		series.Records = append(series.Records, models.DayRecord{
			Date:           date,
			Primary:        n.Value("unit_nav", row.UnitNAV),
			Secondary:      n.Value("acc_nav", row.AccNAV),
			ChangePct:      n.Percent("daily_growth", row.DailyGrowth),
			PurchaseStatus: row.StatusPurchase.String,
			RedeemStatus:   row.StatusRedeem.String,
		})
	}

	outcome.Diagnostics = append(outcome.Diagnostics, normalizeOrder(series, "fund_nav")...)
	logging.LogSeriesLoaded(logger, string(models.ClassFund), f.Code, series.Key, series.Len())
	return outcome
}

func (l *SeriesLoader) loadIndex(ctx context.Context, idx store.Instrument, key string) SeriesOutcome {
	logger := logging.WithInstrument(l.logger, string(models.ClassIndex), idx.Code)
	series := &models.InstrumentSeries{Code: idx.Code, Key: key, Name: idx.Name, Class: models.ClassIndex}
	outcome := SeriesOutcome{Code: idx.Code, Value: series}

	rows, err := l.src.IndexData(ctx, idx.Code)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load index data, continuing with an empty series")
		outcome.Err = apperrors.NewDataError("index_data", idx.Code, "query failed", err)
		outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
			Source: "index_data", Instrument: idx.Code, Severity: SeverityError, Message: "query failed", Err: err,
		})
		return outcome
	}

	for _, row := range rows {
		date, err := models.ParseDate(row.Date)
		if err != nil {
			logger.Warn().Err(err).Str("date", row.Date).Msg("Skipping record with unparseable date")
			outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
				Source: "index_data", Instrument: idx.Code, Date: row.Date, Severity: SeverityWarning,
				Message: "record skipped: unparseable date", Err: err,
			})
			continue
		}

		n := l.fieldNormalizer(logger, &outcome, "index_data", idx.Code, row.Date)
		series.Records = append(series.Records, models.DayRecord{
			Date:      date,
			Primary:   n.Value("close", row.Close),
			Secondary: n.Value("open", row.Open),
			High:      n.Value("high", row.High),
			Low:       n.Value("low", row.Low),
			Volume:    volumeText(row.Volume),
			ChangePct: n.Percent("change_pct", row.ChangePct),
		})
	}

	outcome.Diagnostics = append(outcome.Diagnostics, normalizeOrder(series, "index_data")...)
	logging.LogSeriesLoaded(logger, string(models.ClassIndex), idx.Code, series.Key, series.Len())
	return outcome
}

// fieldNormalizer returns a normalizer that records its warnings as
// diagnostics on outcome.
func (l *SeriesLoader) fieldNormalizer(logger zerolog.Logger, outcome *SeriesOutcome, source, code, date string) *numeric.Normalizer {
	return l.normalizer.
		WithLogger(logger.With().Str("date", date).Logger()).
		OnWarning(func(w numeric.Warning) {
			outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
				Source:     source,
				Instrument: code,
				Date:       date,
				Severity:   SeverityWarning,
				Message:    fmt.Sprintf("field %s defaulted", w.Field),
				Err:        w.Err,
			})
		})
}

// normalizeOrder sorts records by date and drops later duplicates so the
// series is strictly ascending. Text dates such as "2015-6-1" do not sort
// lexically, hence the sort after parsing.
func normalizeOrder(series *models.InstrumentSeries, source string) []Diagnostic {
	sort.SliceStable(series.Records, func(i, j int) bool {
		return series.Records[i].Date.Before(series.Records[j].Date)
	})

	var diags []Diagnostic
	out := series.Records[:0]
	for i, r := range series.Records {
		if i > 0 && r.Date == out[len(out)-1].Date {
			diags = append(diags, Diagnostic{
				Source:     source,
				Instrument: series.Code,
				Date:       r.Date.String(),
				Severity:   SeverityWarning,
				Message:    "duplicate date, record dropped",
			})
			continue
		}
		out = append(out, r)
	}
	series.Records = out
	return diags
}

func volumeText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
