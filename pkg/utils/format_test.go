package utils

import (
	"math"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestFormatNullable(t *testing.T) {
	v := 1.50
	assert.Equal(t, "1.5", FormatNullable(&v, 4))
	assert.Equal(t, "2", FormatNullable(&v, 0))
	nan := math.NaN()
	assert.Equal(t, "-", FormatNullable(&nan, 2))
	assert.Equal(t, "-", FormatNullable(nil, 2))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "上证指数", Truncate("上证指数", 4))
	assert.Equal(t, "上证…", Truncate("上证指数", 3))
	assert.Equal(t, "…", Truncate("上证指数", 1))
	assert.Equal(t, "上证指数", Truncate("上证指数", 0))
}

// Property: formatted values read back as the rounded input and truncated
// strings never exceed the requested rune count.
func TestProperty_Formatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatNullable round-trips at its precision", prop.ForAll(
		func(v float64) bool {
			back, err := strconv.ParseFloat(FormatNullable(&v, 4), 64)
			if err != nil {
				return false
			}
			return math.Abs(back-v) <= 0.00005+1e-9*math.Abs(v)
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.Property("FormatPercent carries the sign", prop.ForAll(
		func(v float64) bool {
			s := FormatPercent(v)
			if !strings.HasSuffix(s, "%") {
				return false
			}
			switch {
			case v > 0:
				return strings.HasPrefix(s, "+")
			case v < 0:
				return strings.HasPrefix(s, "-")
			}
			return s == "0.00%"
		},
		gen.Float64Range(-100, 100),
	))

	properties.Property("Truncate respects the limit", prop.ForAll(
		func(s string, n int) bool {
			out := Truncate(s, n)
			if utf8.RuneCountInString(s) <= n {
				return out == s
			}
			return utf8.RuneCountInString(out) == n && strings.HasSuffix(out, "…")
		},
		gen.AnyString(),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}
