package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	apperrors "crisis-replay/internal/errors"
	"crisis-replay/internal/logging"
)

// Placeholder descriptions returned when no usable description exists.
const (
	NoDescription     = "No scenario description available."
	FailedDescription = "Failed to load the scenario description."
)

// SceneDescriptor loads the free-text scenario description.
type SceneDescriptor struct {
	logger zerolog.Logger
}

// NewSceneDescriptor creates a scene descriptor.
func NewSceneDescriptor(logger zerolog.Logger) *SceneDescriptor {
	return &SceneDescriptor{logger: logging.WithOperation(logger, "load_description")}
}

// Load returns the description from the first file in dir matching pattern
// (in name order). JSON files provide a "description" field or an array of
// lines; .docx files and other formats yield a placeholder naming the file.
func (s *SceneDescriptor) Load(dir, pattern string) Outcome[string] {
	outcome := Outcome[string]{Code: dir, Value: NoDescription}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		outcome.Value = FailedDescription
		outcome.Err = apperrors.NewDataError("description", dir, "bad pattern", err)
		outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
			Source: "description", Severity: SeverityError, Message: "bad description pattern", Err: err,
		})
		return outcome
	}
	if len(matches) == 0 {
		s.logger.Warn().Str("dir", dir).Str("pattern", pattern).Msg("Scenario description file not found")
		outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
			Source: "description", Severity: SeverityWarning, Message: "description file not found",
		})
		return outcome
	}

	sort.Strings(matches)
	path := matches[0]
	name := filepath.Base(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		text, err := readJSONDescription(path)
		if err != nil {
			s.logger.Error().Err(err).Str("path", path).Msg("Failed to load scenario description")
			outcome.Value = FailedDescription
			outcome.Err = apperrors.NewDataError("description", path, "read failed", err)
			outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
				Source: "description", Severity: SeverityError, Message: "read failed", Err: err,
			})
			return outcome
		}
		outcome.Value = text
	case ".docx":
		outcome.Value = fmt.Sprintf("See %s for the detailed introduction.", name)
	default:
		outcome.Value = fmt.Sprintf("Unsupported description format: %s", name)
		outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{
			Source: "description", Severity: SeverityWarning, Message: "unsupported format " + name,
		})
	}

	s.logger.Info().Str("file", name).Msg("Scenario description loaded")
	return outcome
}

func readJSONDescription(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	data = []byte(strings.TrimPrefix(string(data), "\ufeff"))

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrMalformedRecord, err)
	}

	switch x := v.(type) {
	case map[string]any:
		if d, ok := x["description"]; ok {
			return stringify(d), nil
		}
	case []any:
		lines := make([]string, 0, len(x))
		for _, item := range x {
			lines = append(lines, stringify(item))
		}
		return strings.Join(lines, "\n"), nil
	case string:
		return x, nil
	}
	return strings.TrimSpace(string(data)), nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
