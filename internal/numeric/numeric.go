// Package numeric converts heterogeneous textual and native numeric fields
// into canonical float64 values.
package numeric

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	apperrors "crisis-replay/internal/errors"
)

var (
	// ErrMissing is returned for nil input.
	ErrMissing = errors.New("missing value")
	// ErrUnparseable is returned for input that is not a number.
	ErrUnparseable = fmt.Errorf("%w: unparseable number", apperrors.ErrMalformedRecord)
)

// separators are stripped before parsing: thousands separators and the
// spacing characters locales use for grouping.
var separators = strings.NewReplacer(",", "", "_", "", "'", "", " ", "", "\u00a0", "", "\u202f", "")

// Parse converts v to a float64. Strings may carry a trailing '%' and
// thousands separators. Parse never panics.
func Parse(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, ErrMissing
	case string:
		return parseText(x)
	case []byte:
		return parseText(string(x))
	case bool:
		return 0, fmt.Errorf("%w: %v", ErrUnparseable, x)
	case *float64:
		if x == nil {
			return 0, ErrMissing
		}
		return *x, nil
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return f, nil
}

func parseText(s string) (float64, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimSpace(strings.TrimSuffix(t, "%"))
	t = separators.Replace(t)
	if t == "" {
		return 0, fmt.Errorf("%w: empty string %q", ErrUnparseable, s)
	}

	d, err := decimal.NewFromString(t)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparseable, s)
	}
	// Magnitude outside float64 range.
	if m := int64(d.Exponent()) + int64(d.NumDigits()); !d.IsZero() && (m > 310 || m < -400) {
		return 0, fmt.Errorf("%w: %q out of range", ErrUnparseable, s)
	}
	f, _ := d.Float64()
	return f, nil
}

// Percent returns the float value of a percentage field, or 0.0 when it is
// missing or unparseable.
func Percent(v any) float64 {
	f, err := Parse(v)
	if err != nil {
		return 0
	}
	return f
}

// Coerce returns the float value of a nullable numeric column. Missing and
// unparseable values become nil.
func Coerce(v any) *float64 {
	f, err := Parse(v)
	if err != nil {
		return nil
	}
	return &f
}

// FormatPercent renders x as a percentage string that Parse reads back as x.
func FormatPercent(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64) + "%"
}
