// Package integration provides end-to-end tests that load scenarios from a
// configured scenes root.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisis-replay/internal/config"
	"crisis-replay/internal/models"
	"crisis-replay/internal/scenario"
	"crisis-replay/internal/store"
	"crisis-replay/internal/store/storetest"
)

// scenesRoot writes a config directory and a scenes root holding the 2008
// and 2015 scenarios. The 2020 scenario is configured but absent.
func scenesRoot(t *testing.T) (configDir string) {
	t.Helper()
	root := t.TempDir()
	configDir = t.TempDir()

	mkScene := func(name string) string {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "converted"), 0755))
		return dir
	}

	dir2008 := mkScene("2008金融危机")
	storetest.NewAt(t, filepath.Join(dir2008, "converted", "fund_crisis.db"), store.Schema).
		Fund("040008", "华安策略优选").
		Fund("160105", "南方积极配置").
		// text dates in mixed formats and an out-of-order row
		NAV("040008", "2008-9-16", 0.8123, 1.9123, "-4.01%").
		NAV("040008", "2008-09-15", 0.8462, 1.9462, "-3.50%").
		NAV("040008", "2008-09-17", "0.8012", 1.9012, "-1.37").
		NAV("160105", "2008-09-15", 1.0210, 1.5210, nil).
		NAV("160105", "2008-09-17", 1.0010, 1.5010, "-1.96%").
		Index("DJI", "道琼斯工业平均指数").
		IndexRow("DJI", "2008-09-15", 10917.51, 11416.37, "", "-4.42%").
		IndexRow("DJI", "2008-09-16", 11059.02, 10904.25, "", "1.30%").
		Index("000001", "上证综指").
		IndexRow("000001", "2008-09-16", 1986.64, 2043.66, "", "-4.47%").
		Close()
	require.NoError(t, os.WriteFile(filepath.Join(dir2008, "新闻.json"), []byte(`[
		{"date": "2008-09-15", "content": "雷曼兄弟申请破产保护"},
		{"date": "2008-09-16", "content": "美联储向AIG提供850亿美元贷款"},
		{"date": "2008-09-17", "content": "全球股市继续下挫"}
	]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir2008, "2008金融危机介绍.docx"), []byte("PK"), 0644))

	dir2015 := mkScene("2015年中国股灾")
	storetest.NewAt(t, filepath.Join(dir2015, "converted", "fund_crisis.db"), store.Schema).
		Fund("000001", "华夏成长").
		NAVDays("000001", 1.2, "2015-06-12", "2015-06-15", "2015-06-16").
		Close()

	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(`
[data]
scenes_root = "`+filepath.ToSlash(root)+`"

[logging]
level = "warn"
file = false
`), 0644))
	return configDir
}

func TestEndToEnd_LoadConfiguredScenarios(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load(scenesRoot(t))
	require.NoError(t, err)
	require.Equal(t, []string{"2008", "2015", "2020"}, cfg.SceneNames())

	l := scenario.NewLoader(cfg, zerolog.Nop())

	t.Run("2008", func(t *testing.T) {
		dir, err := cfg.SceneDir("2008")
		require.NoError(t, err)
		sc, err := l.Load(ctx, dir, scenario.WithName("2008"))
		require.NoError(t, err)

		assert.Equal(t, "2008-09-15", sc.StartDate.String())
		assert.Equal(t, []string{"dj_index", "sh_index"}, sc.IndexKeys())

		// 09-16 lacks 160105.
		require.Equal(t, []models.Date{
			models.MustParseDate("2008-09-15"),
			models.MustParseDate("2008-09-17"),
		}, sc.Timeline.Dates())

		first := sc.Timeline.Day(0)
		assert.Equal(t, []string{"雷曼兄弟申请破产保护"}, first.News)
		snap, ok := first.Snapshot("160105")
		require.True(t, ok)
		assert.Equal(t, 0.0, snap.ChangePct, "null growth defaults to zero")
		_, ok = first.Snapshot("sh_index")
		assert.False(t, ok)

		last := sc.Timeline.Day(1)
		snap, _ = last.Snapshot("040008")
		assert.Equal(t, 0.8012, *snap.Primary)
		assert.Equal(t, -1.37, snap.ChangePct)

		fund := sc.Funds["040008"]
		require.Equal(t, 3, fund.Len())
		assert.Equal(t, "2008-09-16", fund.Records[1].Date.String(), "records are date-ordered after parsing")

		assert.Equal(t, "See 2008金融危机介绍.docx for the detailed introduction.", sc.Description)
		assert.False(t, sc.HasErrors())
	})

	t.Run("2015", func(t *testing.T) {
		dir, err := cfg.SceneDir("2015")
		require.NoError(t, err)
		sc, err := l.Load(ctx, dir)
		require.NoError(t, err)

		assert.Equal(t, 3, sc.Timeline.Len())
		assert.Empty(t, sc.Indices)
		assert.Empty(t, sc.News, "missing news feed degrades to no news")
		for _, d := range sc.Timeline.Days {
			assert.NotNil(t, d.News)
		}
	})

	t.Run("2020 absent", func(t *testing.T) {
		dir, err := cfg.SceneDir("2020")
		require.NoError(t, err)
		sc, err := l.Load(ctx, dir)
		require.NoError(t, err)

		assert.True(t, sc.Timeline.Empty())
		assert.Nil(t, sc.StartDate)
		assert.True(t, sc.HasErrors())
	})
}
