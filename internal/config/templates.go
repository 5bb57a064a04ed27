package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Crisis Replay Configuration

[data]
# Directory holding one sub-directory per scenario
scenes_root = "database/scene"
# SQLite store, relative to the scenario directory
db_path = "converted/fund_crisis.db"
# News feed, relative to the scenario directory
news_file = "新闻.json"
# Glob for the scenario description file
intro_pattern = "*介绍.*"

# Scenario code -> directory under scenes_root
[scenes]
2008 = "2008金融危机"
2015 = "2015年中国股灾"
2020 = "2020年疫情冲击"

# Well-known indices get a canonical key instead of their raw code
[[benchmarks]]
key = "sh_index"
name_contains = ["上证"]

[[benchmarks]]
key = "dj_index"
name_contains = ["道琼斯"]

[logging]
# Level: debug, info, warn, error
level = "info"
console = true
file = true
max_size = 20
max_backups = 5
max_age = 30

[ui]
color_enabled = true
date_format = "2006-01-02"
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
