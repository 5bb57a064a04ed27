// Package models provides domain models for scenario replay: calendar dates,
// instrument series, news and the reconciled timeline.
package models

// Float returns a pointer to v, for optional price fields.
func Float(v float64) *float64 {
	return &v
}

// FloatValue returns the value behind p, or 0 when p is nil.
func FloatValue(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
