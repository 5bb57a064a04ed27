// Package config provides configuration management for the replay application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	apperrors "crisis-replay/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Data       DataConfig        `mapstructure:"data"`
	Scenes     map[string]string `mapstructure:"scenes"`
	Benchmarks []Benchmark       `mapstructure:"benchmarks"`
	Logging    LoggingConfig     `mapstructure:"logging"`
	UI         UIConfig          `mapstructure:"ui"`
}

// DataConfig locates scenario data on disk. Paths other than ScenesRoot are
// relative to a scenario directory.
type DataConfig struct {
	ScenesRoot   string `mapstructure:"scenes_root"`
	DBPath       string `mapstructure:"db_path"`
	NewsFile     string `mapstructure:"news_file"`
	IntroPattern string `mapstructure:"intro_pattern"`
}

// Benchmark maps a well-known index onto a canonical lookup key. An index
// matches when its code is listed or its name contains one of the fragments.
type Benchmark struct {
	Key          string   `mapstructure:"key"`
	Codes        []string `mapstructure:"codes"`
	NameContains []string `mapstructure:"name_contains"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// UIConfig holds terminal output configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/crisis-replay"
	}
	return filepath.Join(home, ".config", "crisis-replay")
}

// DefaultScenes returns the built-in scenario codes.
func DefaultScenes() map[string]string {
	return map[string]string{
		"2008": "2008金融危机",
		"2015": "2015年中国股灾",
		"2020": "2020年疫情冲击",
	}
}

// DefaultBenchmarks returns the built-in benchmark registry.
func DefaultBenchmarks() []Benchmark {
	return []Benchmark{
		{Key: "sh_index", NameContains: []string{"上证"}},
		{Key: "dj_index", NameContains: []string{"道琼斯"}},
	}
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	v := viper.New()
	setDefaults(v, DefaultConfigDir())
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	fillCollections(cfg)
	return cfg
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("data.scenes_root", filepath.Join("database", "scene"))
	v.SetDefault("data.db_path", filepath.Join("converted", "fund_crisis.db"))
	v.SetDefault("data.news_file", "新闻.json")
	v.SetDefault("data.intro_pattern", "*介绍.*")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "replay.log"))
	v.SetDefault("logging.max_size", 20)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02")
}

func fillCollections(cfg *Config) {
	if len(cfg.Scenes) == 0 {
		cfg.Scenes = DefaultScenes()
	}
	if len(cfg.Benchmarks) == 0 {
		cfg.Benchmarks = DefaultBenchmarks()
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config file is replaced by a template and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperrors.Wrap(err, "loading config.toml")
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.Wrap(err, "decoding config.toml")
	}
	fillCollections(cfg)

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Wrap(err, "validating config")
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPLAY_SCENES_ROOT"); v != "" {
		cfg.Data.ScenesRoot = v
	}
	if v := os.Getenv("REPLAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Data.DBPath == "" {
		return apperrors.NewValidationError("data.db_path", c.Data.DBPath, "must not be empty")
	}
	if c.Data.NewsFile == "" {
		return apperrors.NewValidationError("data.news_file", c.Data.NewsFile, "must not be empty")
	}
	if _, err := filepath.Match(c.Data.IntroPattern, ""); err != nil || c.Data.IntroPattern == "" {
		return apperrors.NewValidationError("data.intro_pattern", c.Data.IntroPattern, "must be a valid glob pattern")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return apperrors.NewValidationError("logging.level", c.Logging.Level, "must be debug, info, warn or error")
	}

	keys := make(map[string]bool)
	for i, b := range c.Benchmarks {
		if strings.TrimSpace(b.Key) == "" {
			return apperrors.NewValidationError(fmt.Sprintf("benchmarks[%d].key", i), b.Key, "must not be empty")
		}
		if len(b.Codes) == 0 && len(b.NameContains) == 0 {
			return apperrors.NewValidationError(fmt.Sprintf("benchmarks[%d]", i), b.Key, "needs codes or name_contains")
		}
		if keys[b.Key] {
			return apperrors.NewValidationError(fmt.Sprintf("benchmarks[%d].key", i), b.Key, "duplicate benchmark key")
		}
		keys[b.Key] = true
	}

	return nil
}

// SceneDir resolves a scenario name to its directory. Configured codes are
// resolved under ScenesRoot; anything else must be an existing directory.
func (c *Config) SceneDir(name string) (string, error) {
	if dir, ok := c.Scenes[name]; ok {
		if filepath.IsAbs(dir) {
			return dir, nil
		}
		return filepath.Join(c.Data.ScenesRoot, dir), nil
	}
	if info, err := os.Stat(name); err == nil && info.IsDir() {
		return name, nil
	}
	return "", fmt.Errorf("%w: %q (known: %s)", apperrors.ErrScenarioNotFound, name, strings.Join(c.SceneNames(), ", "))
}

// SceneNames returns the configured scenario codes in sorted order.
func (c *Config) SceneNames() []string {
	names := make([]string, 0, len(c.Scenes))
	for name := range c.Scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
