package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "crisis-replay/internal/errors"
)

func TestLoad_WritesTemplateAndUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, statErr, "template should be written")

	assert.Equal(t, filepath.Join("converted", "fund_crisis.db"), cfg.Data.DBPath)
	assert.Equal(t, "新闻.json", cfg.Data.NewsFile)
	assert.Equal(t, "*介绍.*", cfg.Data.IntroPattern)
	assert.Equal(t, DefaultScenes(), cfg.Scenes)
	assert.Len(t, cfg.Benchmarks, 2)

	// The written template must load back to the same values.
	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Scenes, again.Scenes)
	assert.Equal(t, "sh_index", again.Benchmarks[0].Key)
	assert.Equal(t, []string{"上证"}, again.Benchmarks[0].NameContains)
}

func TestLoad_CustomFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[data]
scenes_root = "/srv/scenes"
news_file = "news.json"

[scenes]
dotcom = "2000-dotcom"

[[benchmarks]]
key = "spx"
codes = [".INX"]

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/srv/scenes", cfg.Data.ScenesRoot)
	assert.Equal(t, "news.json", cfg.Data.NewsFile)
	assert.Equal(t, filepath.Join("converted", "fund_crisis.db"), cfg.Data.DBPath)
	assert.Equal(t, map[string]string{"dotcom": "2000-dotcom"}, cfg.Scenes)
	require.Len(t, cfg.Benchmarks, 1)
	assert.Equal(t, []string{".INX"}, cfg.Benchmarks[0].Codes)
	assert.Equal(t, "debug", cfg.Logging.Level)

	sceneDir, err := cfg.SceneDir("dotcom")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/scenes", "2000-dotcom"), sceneDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REPLAY_SCENES_ROOT", "/data/scenes")
	t.Setenv("REPLAY_LOG_LEVEL", "warn")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/data/scenes", cfg.Data.ScenesRoot)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.Data.DBPath = "" }},
		{"empty news file", func(c *Config) { c.Data.NewsFile = "" }},
		{"bad glob", func(c *Config) { c.Data.IntroPattern = "[" }},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"empty benchmark key", func(c *Config) { c.Benchmarks = []Benchmark{{NameContains: []string{"x"}}} }},
		{"benchmark without matcher", func(c *Config) { c.Benchmarks = []Benchmark{{Key: "x"}} }},
		{"duplicate benchmark", func(c *Config) {
			c.Benchmarks = []Benchmark{{Key: "x", Codes: []string{"1"}}, {Key: "x", Codes: []string{"2"}}}
		}},
	}

	assert.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
		})
	}
}

func TestSceneDir(t *testing.T) {
	cfg := Default()
	cfg.Data.ScenesRoot = "root"

	dir, err := cfg.SceneDir("2015")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("root", "2015年中国股灾"), dir)

	existing := t.TempDir()
	dir, err = cfg.SceneDir(existing)
	require.NoError(t, err)
	assert.Equal(t, existing, dir)

	_, err = cfg.SceneDir("1929")
	assert.ErrorIs(t, err, apperrors.ErrScenarioNotFound)

	assert.Equal(t, []string{"2008", "2015", "2020"}, cfg.SceneNames())
}
