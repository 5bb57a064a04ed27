package cli

import (
	"fmt"
	"strings"

	"crisis-replay/internal/models"
	"crisis-replay/pkg/utils"
)

// FormatChange formats a daily change percentage with sign.
func FormatChange(pct float64) string {
	return utils.FormatPercent(pct)
}

// FormatValue formats a nullable NAV or index level.
func FormatValue(v *float64) string {
	return utils.FormatNullable(v, 4)
}

// FormatDateRange formats the span of a series or timeline.
func FormatDateRange(first, last models.Date) string {
	if first.IsZero() {
		return "-"
	}
	if first == last {
		return first.String()
	}
	return fmt.Sprintf("%s → %s", first, last)
}

// FormatSeriesRange formats the first and last dates of a series.
func FormatSeriesRange(s *models.InstrumentSeries) string {
	first, ok := s.First()
	if !ok {
		return "-"
	}
	last, _ := s.Last()
	return FormatDateRange(first.Date, last.Date)
}

// FormatNews joins a day's headlines for a single table cell.
func FormatNews(news []string, width int) string {
	if len(news) == 0 {
		return ""
	}
	head := utils.Truncate(news[0], width)
	if len(news) > 1 {
		head += fmt.Sprintf(" (+%d)", len(news)-1)
	}
	return head
}

// FormatFundList formats a list of fund codes, eliding long lists.
func FormatFundList(codes []string, limit int) string {
	if len(codes) <= limit {
		return strings.Join(codes, ", ")
	}
	return fmt.Sprintf("%s, … (+%d)", strings.Join(codes[:limit], ", "), len(codes)-limit)
}
