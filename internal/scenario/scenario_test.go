package scenario

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisis-replay/internal/config"
	apperrors "crisis-replay/internal/errors"
	"crisis-replay/internal/loader"
	"crisis-replay/internal/logging"
	"crisis-replay/internal/models"
	"crisis-replay/internal/store"
	"crisis-replay/internal/store/storetest"
)

// sceneDir lays out a scenario directory with a database, a news feed and a
// description file.
func sceneDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "2015年中国股灾")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "converted"), 0755))

	storetest.NewAt(t, filepath.Join(dir, "converted", "fund_crisis.db"), store.Schema).
		Fund("000001", "华夏新经济").
		Fund("000003", "易方达瑞惠").
		NAVDays("000001", 1.0, "2015-06-01", "2015-06-02", "2015-06-03", "2015-06-04").
		NAVDays("000003", 2.0, "2015-06-02", "2015-06-03", "2015-06-04").
		Index("000001.SH", "上证指数").
		IndexRow("000001.SH", "2015-05-29", 4611.74, 4633.10, "4.1亿", "-6.50%").
		IndexRow("000001.SH", "2015-06-02", 4910.53, 4844.70, "5.2亿", "0.76%").
		Close()

	writeFile(t, dir, "新闻.json", `[
		{"date": "2015-05-28", "content": "沪指暴跌6.5%"},
		{"date": "2015-06-03", "content": "证监会严查场外配资"}
	]`)
	writeFile(t, dir, "2015年中国股灾介绍.json", `{"description": "2015年6月中旬A股市场出现大幅下跌。"}`)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func newLoader() *Loader {
	return NewLoader(config.Default(), zerolog.Nop())
}

func TestLoad_FullScenario(t *testing.T) {
	dir := sceneDir(t)

	sc, err := newLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	_, err = uuid.Parse(sc.ID)
	assert.NoError(t, err, "load id is a uuid")
	assert.Equal(t, "2015年中国股灾", sc.Name)
	require.NotNil(t, sc.StartDate)
	assert.Equal(t, "2015-06-01", sc.StartDate.String(), "start date is the earliest NAV date")

	assert.Equal(t, []string{"000001", "000003"}, sc.FundCodes())
	assert.Equal(t, []string{"sh_index"}, sc.IndexKeys())
	assert.Len(t, sc.News, 2)
	assert.Equal(t, "2015年6月中旬A股市场出现大幅下跌。", sc.Description)

	// 06-01 lacks 000003; index and news dates before the floor never count.
	assert.Equal(t, []models.Date{
		models.MustParseDate("2015-06-02"),
		models.MustParseDate("2015-06-03"),
		models.MustParseDate("2015-06-04"),
	}, sc.Timeline.Dates())
	assert.Equal(t, 2, sc.Report.FlooredDates)

	first := sc.Timeline.Day(0)
	snap, ok := first.Snapshot("sh_index")
	require.True(t, ok)
	assert.Equal(t, 4910.53, *snap.Primary)
	assert.Equal(t, 0.76, snap.ChangePct)
	assert.Equal(t, []string{"证监会严查场外配资"}, sc.Timeline.Day(1).News)

	series, ok := sc.Series("sh_index")
	require.True(t, ok)
	assert.Equal(t, models.ClassIndex, series.Class)
	assert.False(t, sc.HasErrors())
}

func TestLoad_ExplicitFloor(t *testing.T) {
	dir := sceneDir(t)

	sc, err := newLoader().Load(context.Background(), dir, WithFloor(models.MustParseDate("2015-06-03")), WithName("2015"))
	require.NoError(t, err)

	assert.Equal(t, "2015", sc.Name)
	assert.Equal(t, "2015-06-01", sc.StartDate.String(), "the store-derived start date is still reported")
	assert.Equal(t, []models.Date{
		models.MustParseDate("2015-06-03"),
		models.MustParseDate("2015-06-04"),
	}, sc.Timeline.Dates())
}

func TestLoad_MissingStoreDegrades(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "新闻.json", `[{"date": "2020-03-09", "content": "美股熔断"}]`)

	sc, err := newLoader().Load(context.Background(), dir)
	require.NoError(t, err, "missing data never fails the load")

	assert.Nil(t, sc.StartDate)
	assert.Empty(t, sc.Funds)
	assert.Empty(t, sc.Indices)
	assert.Len(t, sc.News, 1)
	assert.True(t, sc.Timeline.Empty())
	assert.Equal(t, loader.NoDescription, sc.Description)
	assert.True(t, sc.HasErrors())

	var storeDiag *loader.Diagnostic
	for i := range sc.Diagnostics {
		if sc.Diagnostics[i].Source == "store" {
			storeDiag = &sc.Diagnostics[i]
		}
	}
	require.NotNil(t, storeDiag)
	assert.ErrorIs(t, storeDiag.Err, apperrors.ErrStoreUnavailable)
}

func TestLoad_EmptyStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "converted"), 0755))
	storetest.NewAt(t, filepath.Join(dir, "converted", "fund_crisis.db"), store.Schema).Close()

	sc, err := newLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Nil(t, sc.StartDate, "no fund data disables the floor")
	assert.True(t, sc.Timeline.Empty())
	assert.False(t, sc.HasErrors())
}

// fundScene lays out a scenario directory holding only fund NAV rows.
func fundScene(t *testing.T, navs map[string][]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "converted"), 0755))
	db := storetest.NewAt(t, filepath.Join(dir, "converted", "fund_crisis.db"), store.Schema)
	for code, dates := range navs {
		db.Fund(code, "基金"+code)
		for _, d := range dates {
			db.NAV(code, d, 1.0, 1.0, "0.00%")
		}
	}
	db.Close()
	return dir
}

func TestLoad_StartDateFromParsedDates(t *testing.T) {
	// Text order would put 2008-10-06 before 2008-9-16.
	dir := fundScene(t, map[string][]string{
		"040008": {"2008-9-16", "2008-10-06"},
		"160105": {"2008-9-16", "2008-10-06"},
	})

	sc, err := newLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, sc.StartDate)
	assert.Equal(t, "2008-09-16", sc.StartDate.String())
	assert.Equal(t, []models.Date{
		models.MustParseDate("2008-09-16"),
		models.MustParseDate("2008-10-06"),
	}, sc.Timeline.Dates())
	assert.Zero(t, sc.Report.FlooredDates)
}

func TestLoad_StartDateSkipsBadDates(t *testing.T) {
	dir := fundScene(t, map[string][]string{
		"040008": {"", "2008-10-06"},
	})

	sc, err := newLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, sc.StartDate, "an unparseable row does not disable the floor")
	assert.Equal(t, "2008-10-06", sc.StartDate.String())
	assert.Equal(t, []models.Date{models.MustParseDate("2008-10-06")}, sc.Timeline.Dates())
	assert.NotEmpty(t, sc.Diagnostics, "the bad row is reported")
}

func TestLoad_ContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), zerolog.New(&buf))

	sc, err := newLoader().Load(ctx, sceneDir(t), WithName("2015"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Scenario loaded")
	assert.Contains(t, buf.String(), `"load_id":"`+sc.ID+`"`)
	assert.Contains(t, buf.String(), `"start_date":"2015-06-01"`)
}

func TestLoad_ClosesStore(t *testing.T) {
	dir := sceneDir(t)

	var opened *closeTracker
	l := newLoader().WithStoreOpener(func(ctx context.Context, path string) (store.ScenarioStore, error) {
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		opened = &closeTracker{ScenarioStore: s}
		return opened, nil
	})

	sc, err := l.Load(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, opened)
	assert.True(t, opened.closed)
	assert.Equal(t, 3, sc.Timeline.Len())
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newLoader().Load(ctx, sceneDir(t))
	assert.ErrorIs(t, err, context.Canceled)
}

type closeTracker struct {
	store.ScenarioStore
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return c.ScenarioStore.Close()
}
