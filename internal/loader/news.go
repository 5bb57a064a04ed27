package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"

	apperrors "crisis-replay/internal/errors"
	"crisis-replay/internal/logging"
	"crisis-replay/internal/models"
)

// NewsLoader reads a scenario's dated news feed: a JSON array of
// {"date": "YYYY-MM-DD", "content": "..."} objects.
type NewsLoader struct {
	logger zerolog.Logger
}

// NewNewsLoader creates a news loader.
func NewNewsLoader(logger zerolog.Logger) *NewsLoader {
	return &NewsLoader{logger: logging.WithOperation(logger, "load_news")}
}

type newsEntry struct {
	Date    *string `json:"date"`
	Content *string `json:"content"`
}

// Load reads the feed at path. A missing file yields an empty feed with a
// warning; entries without a date or content, or with an unparseable date,
// are skipped. Items are ordered by date, keeping file order within a day.
func (l *NewsLoader) Load(path string) Outcome[[]models.NewsItem] {
	outcome := Outcome[[]models.NewsItem]{Code: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn().Str("path", path).Msg("News file not found")
			outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
				Source: "news", Severity: SeverityWarning, Message: "news file not found", Err: err,
			})
			return outcome
		}
		l.logger.Error().Err(err).Str("path", path).Msg("Failed to read news file")
		outcome.Err = apperrors.NewDataError("news", path, "read failed", err)
		outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
			Source: "news", Severity: SeverityError, Message: "read failed", Err: err,
		})
		return outcome
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), &raw); err != nil {
		l.logger.Error().Err(err).Str("path", path).Msg("News file is not a JSON array")
		outcome.Err = apperrors.NewDataError("news", path, "malformed feed", fmt.Errorf("%w: %v", apperrors.ErrMalformedRecord, err))
		outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
			Source: "news", Severity: SeverityError, Message: "malformed feed", Err: err,
		})
		return outcome
	}

	items := make([]models.NewsItem, 0, len(raw))
	for i, msg := range raw {
		var entry newsEntry
		if err := json.Unmarshal(msg, &entry); err != nil || entry.Date == nil || entry.Content == nil {
			l.logger.Warn().Err(err).Int("item", i).Msg("Skipping news item without date or content")
			outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
				Source: "news", Severity: SeverityWarning,
				Message: fmt.Sprintf("item %d skipped: missing date or content", i), Err: err,
			})
			continue
		}

		date, err := models.ParseDate(*entry.Date)
		if err != nil {
			l.logger.Warn().Err(err).Str("date", *entry.Date).Msg("Skipping news item with unparseable date")
			outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
				Source: "news", Date: *entry.Date, Severity: SeverityWarning,
				Message: fmt.Sprintf("item %d skipped: unparseable date", i), Err: err,
			})
			continue
		}

		items = append(items, models.NewsItem{Date: date, Content: *entry.Content})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.Before(items[j].Date)
	})

	l.logger.Info().Int("items", len(items)).Int("skipped", len(raw)-len(items)).Msg("News data loaded")
	outcome.Value = items
	return outcome
}
