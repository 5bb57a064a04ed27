// Package loader reads scenario inputs (fund and index series, news, the
// scenario description) into domain models. Loading is fail-soft: failures
// are reported as diagnostics on per-item outcomes instead of aborting.
package loader

import (
	"fmt"
	"strings"

	apperrors "crisis-replay/internal/errors"
	"crisis-replay/internal/models"
)

// Severity grades a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "WARN"
	SeverityError   Severity = "ERROR"
)

// Diagnostic records one non-fatal problem met while loading.
type Diagnostic struct {
	Source     string   `json:"source"`
	Instrument string   `json:"instrument,omitempty"`
	Date       string   `json:"date,omitempty"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Err        error    `json:"-"`
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", d.Severity, d.Source)
	if d.Instrument != "" {
		fmt.Fprintf(&b, " %s", d.Instrument)
	}
	if d.Date != "" {
		fmt.Fprintf(&b, " @%s", d.Date)
	}
	fmt.Fprintf(&b, ": %s", d.Message)
	if d.Err != nil {
		fmt.Fprintf(&b, ": %v", d.Err)
	}
	return b.String()
}

// Outcome is the result of loading one item. Value is always usable: on
// failure it is the empty value and Err explains why.
type Outcome[T any] struct {
	Code        string
	Value       T
	Diagnostics []Diagnostic
	Err         error
}

// OK reports whether the item loaded without error. Diagnostics may still be
// present for skipped or coerced fields.
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// SeriesOutcome is the outcome of one instrument load.
type SeriesOutcome = Outcome[*models.InstrumentSeries]

// BatchResult aggregates the loads of one instrument class.
// Err is set only when the class could not be enumerated at all (store
// unavailable, table missing); an empty Series with a nil Err means the
// store simply holds no instruments.
type BatchResult struct {
	Class    models.InstrumentClass
	Series   map[string]*models.InstrumentSeries
	Outcomes []SeriesOutcome
	Err      error
}

func newBatch(class models.InstrumentClass) BatchResult {
	return BatchResult{
		Class:  class,
		Series: make(map[string]*models.InstrumentSeries),
	}
}

// Failed returns the outcomes of instruments whose load failed.
func (b BatchResult) Failed() []SeriesOutcome {
	var failed []SeriesOutcome
	for _, o := range b.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Diagnostics returns every diagnostic of the batch, including a batch-level
// entry when the class could not be loaded.
func (b BatchResult) Diagnostics() []Diagnostic {
	var diags []Diagnostic
	if b.Err != nil {
		diags = append(diags, Diagnostic{
			Source:   sourceFor(b.Class),
			Severity: SeverityError,
			Message:  "instrument class not loaded",
			Err:      b.Err,
		})
	}
	for _, o := range b.Outcomes {
		diags = append(diags, o.Diagnostics...)
	}
	return diags
}

// Unavailable reports whether the store or its tables could not be reached.
func (b BatchResult) Unavailable() bool {
	return apperrors.Is(b.Err, apperrors.ErrStoreUnavailable) || apperrors.Is(b.Err, apperrors.ErrTableMissing)
}

// Records returns the total number of records loaded across the batch.
func (b BatchResult) Records() int {
	n := 0
	for _, s := range b.Series {
		n += s.Len()
	}
	return n
}

func sourceFor(class models.InstrumentClass) string {
	if class == models.ClassIndex {
		return "index_data"
	}
	return "fund_nav"
}
