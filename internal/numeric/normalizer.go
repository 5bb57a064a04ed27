package numeric

import (
	"github.com/rs/zerolog"
)

// Warning describes a field that could not be converted.
type Warning struct {
	Field string
	Raw   any
	Err   error
}

// Normalizer applies Parse to record fields and reports the failures through
// the logger and an optional callback. Conversion failures are never fatal.
type Normalizer struct {
	logger zerolog.Logger
	onWarn func(Warning)
}

// NewNormalizer creates a Normalizer logging to logger.
func NewNormalizer(logger zerolog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// WithLogger returns a copy of n logging to logger.
func (n *Normalizer) WithLogger(logger zerolog.Logger) *Normalizer {
	c := *n
	c.logger = logger
	return &c
}

// OnWarning returns a copy of n that also hands every warning to fn.
func (n *Normalizer) OnWarning(fn func(Warning)) *Normalizer {
	c := *n
	c.onWarn = fn
	return &c
}

// Percent converts a signed percentage field. Missing or unparseable input
// yields 0.0 and a warning.
func (n *Normalizer) Percent(field string, v any) float64 {
	f, err := Parse(v)
	if err != nil {
		n.warn(field, v, err, "Percentage defaulted to 0.0")
		return 0
	}
	return f
}

// Value converts a nullable value field. Missing input is a silent nil;
// unparseable input is nil with a warning.
func (n *Normalizer) Value(field string, v any) *float64 {
	if v == nil {
		return nil
	}
	f, err := Parse(v)
	if err != nil {
		n.warn(field, v, err, "Value coerced to null")
		return nil
	}
	return &f
}

func (n *Normalizer) warn(field string, raw any, err error, msg string) {
	n.logger.Warn().
		Err(err).
		Str("field", field).
		Interface("raw", raw).
		Msg(msg)
	if n.onWarn != nil {
		n.onWarn(Warning{Field: field, Raw: raw, Err: err})
	}
}
