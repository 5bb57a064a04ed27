// Package utils provides shared formatting helpers.
package utils

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// FormatPercent formats a percentage with sign and two decimals.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatNullable formats an optional number with the given precision,
// trimming trailing zeros. Nil, NaN and infinities print as "-".
func FormatNullable(v *float64, precision int) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return "-"
	}
	s := strconv.FormatFloat(*v, 'f', precision, 64)
	if precision > 0 {
		for s[len(s)-1] == '0' {
			s = s[:len(s)-1]
		}
		if s[len(s)-1] == '.' {
			s = s[:len(s)-1]
		}
	}
	return s
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
