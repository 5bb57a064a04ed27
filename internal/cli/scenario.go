package cli

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "crisis-replay/internal/errors"
	"crisis-replay/internal/loader"
	"crisis-replay/internal/models"
	"crisis-replay/internal/scenario"
	"crisis-replay/internal/timeline"
)

const loadTimeout = 60 * time.Second

// addScenarioCommands adds the scenario inspection commands.
func addScenarioCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newScenesCmd(app))
	rootCmd.AddCommand(newInspectCmd(app))
	rootCmd.AddCommand(newTimelineCmd(app))
	rootCmd.AddCommand(newDayCmd(app))
	rootCmd.AddCommand(newDescribeCmd(app))
}

// SceneEntry is one configured scenario.
type SceneEntry struct {
	Code   string `json:"code"`
	Dir    string `json:"dir"`
	Exists bool   `json:"exists"`
}

func newScenesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "scenes",
		Short: "List configured scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			var entries []SceneEntry
			for _, code := range app.Config.SceneNames() {
				dir, err := app.Config.SceneDir(code)
				if err != nil {
					return err
				}
				info, err := os.Stat(dir)
				entries = append(entries, SceneEntry{Code: code, Dir: dir, Exists: err == nil && info.IsDir()})
			}

			if output.IsJSON() {
				return output.JSON(entries)
			}

			table := NewTable(output, "CODE", "DIRECTORY", "STATUS")
			for _, e := range entries {
				status := "ok"
				if !e.Exists {
					status = output.DimText("missing")
				}
				table.AddRow(e.Code, e.Dir, status)
			}
			table.Render()
			return nil
		},
	}
}

// InstrumentSummary describes one loaded series.
type InstrumentSummary struct {
	Key     string `json:"key"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Class   string `json:"class"`
	Records int    `json:"records"`
	Range   string `json:"range"`
}

// ScenarioSummary is the inspect view of a loaded scenario.
type ScenarioSummary struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Dir         string              `json:"dir"`
	StartDate   *models.Date        `json:"simulation_start_date"`
	Funds       []InstrumentSummary `json:"funds"`
	Indices     []InstrumentSummary `json:"indices"`
	News        int                 `json:"news"`
	Report      timeline.Report     `json:"report"`
	Diagnostics []loader.Diagnostic `json:"diagnostics"`
}

func summarize(sc *scenario.Scenario) ScenarioSummary {
	summary := ScenarioSummary{
		ID:          sc.ID,
		Name:        sc.Name,
		Dir:         sc.Dir,
		StartDate:   sc.StartDate,
		News:        len(sc.News),
		Report:      sc.Report,
		Diagnostics: sc.Diagnostics,
	}
	for _, code := range sc.FundCodes() {
		summary.Funds = append(summary.Funds, instrumentSummary(code, sc.Funds[code]))
	}
	for _, key := range sc.IndexKeys() {
		summary.Indices = append(summary.Indices, instrumentSummary(key, sc.Indices[key]))
	}
	return summary
}

func instrumentSummary(key string, s *models.InstrumentSeries) InstrumentSummary {
	return InstrumentSummary{
		Key:     key,
		Code:    s.Code,
		Name:    s.Name,
		Class:   string(s.Class),
		Records: s.Len(),
		Range:   FormatSeriesRange(s),
	}
}

func newInspectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load a scenario and summarise its data",
		Example: `  replay inspect --scene 2015
  replay inspect --scene 2008 --diagnostics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
			defer cancel()

			sc, err := app.loadScenario(ctx, cmd)
			if err != nil {
				return err
			}
			summary := summarize(sc)
			if output.IsJSON() {
				return output.JSON(summary)
			}

			output.Bold("Scenario %s", sc.Name)
			output.Dim("  %s  (load %s)", sc.Dir, sc.ID)
			start := "-"
			if sc.StartDate != nil {
				start = sc.StartDate.String()
			}
			output.Printf("  Start date:    %s\n", start)
			output.Printf("  Trading days:  %d of %d candidate dates\n", sc.Report.TradingDays, sc.Report.CandidateDates)
			if first, ok := sc.Timeline.First(); ok {
				last, _ := sc.Timeline.Last()
				output.Printf("  Span:          %s\n", FormatDateRange(first.Date, last.Date))
			}
			output.Printf("  Active funds:  %s\n", FormatFundList(sc.Report.ActiveFunds, 8))
			output.Printf("  News items:    %d\n", summary.News)
			output.Println()

			renderInstruments(output, "Funds", summary.Funds)
			renderInstruments(output, "Indices", summary.Indices)

			if n := len(sc.Report.Rejected); n > 0 {
				output.Warning("%d candidate dates rejected for missing fund data", n)
			}
			if len(sc.Diagnostics) > 0 {
				output.Warning("%d diagnostics", len(sc.Diagnostics))
				if all, _ := cmd.Flags().GetBool("diagnostics"); all {
					for _, d := range sc.Diagnostics {
						output.Dim("  %s", d)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("diagnostics", false, "list every diagnostic")
	return cmd
}

func renderInstruments(output *Output, title string, items []InstrumentSummary) {
	output.Bold("%s (%d)", title, len(items))
	if len(items) == 0 {
		output.Dim("  none")
		output.Println()
		return
	}
	table := NewTable(output, "KEY", "CODE", "NAME", "RECORDS", "RANGE")
	for _, it := range items {
		table.AddRow(it.Key, it.Code, it.Name, strconv.Itoa(it.Records), it.Range)
	}
	table.Render()
	output.Println()
}

func newTimelineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "List the reconciled trading days",
		Example: `  replay timeline --scene 2015 --from 2015-06-01 --to 2015-07-31
  replay timeline --scene 2020 --floor 2020-02-01 --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
			defer cancel()

			from, err := dateFlag(cmd, "from")
			if err != nil {
				return err
			}
			to, err := dateFlag(cmd, "to")
			if err != nil {
				return err
			}
			floor, err := dateFlag(cmd, "floor")
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			var opts []scenario.Option
			if !floor.IsZero() {
				opts = append(opts, scenario.WithFloor(floor))
			}
			sc, err := app.loadScenario(ctx, cmd, opts...)
			if err != nil {
				return err
			}
			if sc.Timeline.Empty() {
				return apperrors.Wrapf(apperrors.ErrNoTradingDays, "scenario %s", sc.Name)
			}

			days := sc.Timeline.Between(from, to)
			if limit > 0 && len(days) > limit {
				days = days[:limit]
			}
			if output.IsJSON() {
				return output.JSON(days)
			}

			keys := timelineColumns(sc)
			headers := append([]string{"DATE"}, keys...)
			headers = append(headers, "NEWS")
			table := NewTable(output, headers...)
			for _, d := range days {
				row := []string{d.Date.String()}
				for _, key := range keys {
					if snap, ok := d.Snapshot(key); ok {
						row = append(row, output.Change(snap.ChangePct))
					} else {
						row = append(row, "-")
					}
				}
				row = append(row, FormatNews(d.News, 24))
				table.AddRow(row...)
			}
			table.Render()
			output.Dim("%d of %d trading days", len(days), sc.Timeline.Len())
			return nil
		},
	}
	cmd.Flags().String("from", "", "first date to show (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "last date to show (YYYY-MM-DD)")
	cmd.Flags().String("floor", "", "override the simulation start date")
	cmd.Flags().Int("limit", 0, "maximum number of days to show")
	return cmd
}

// timelineColumns picks the index keys followed by the fund codes.
func timelineColumns(sc *scenario.Scenario) []string {
	var keys []string
	for _, key := range sc.IndexKeys() {
		if _, clash := sc.Funds[key]; clash {
			key = timeline.IndexKeyPrefix + key
		}
		keys = append(keys, key)
	}
	return append(keys, sc.Report.ActiveFunds...)
}

func newDayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "day <date>",
		Short: "Show every instrument and headline for one trading day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
			defer cancel()

			date, err := models.ParseDate(args[0])
			if err != nil {
				return err
			}
			sc, err := app.loadScenario(ctx, cmd)
			if err != nil {
				return err
			}
			i, ok := sc.Timeline.Find(date)
			if !ok {
				return apperrors.Wrapf(apperrors.ErrDataNotFound, "%s is not a trading day of scenario %s", date, sc.Name)
			}
			day := sc.Timeline.Day(i)
			if output.IsJSON() {
				return output.JSON(day)
			}

			output.Bold("%s %s  (day %d of %d)", day.Date, day.Date.Weekday(), i+1, sc.Timeline.Len())
			table := NewTable(output, "KEY", "NAME", "VALUE", "CHANGE")
			for _, key := range timelineColumns(sc) {
				snap, ok := day.Snapshot(key)
				if !ok {
					continue
				}
				name := ""
				if raw, prefixed := strings.CutPrefix(key, timeline.IndexKeyPrefix); prefixed {
					if s, found := sc.Indices[raw]; found {
						name = s.Name
					}
				} else if s, found := sc.Series(key); found {
					name = s.Name
				}
				table.AddRow(key, name, FormatValue(snap.Primary), output.Change(snap.ChangePct))
			}
			table.Render()

			if len(day.News) > 0 {
				output.Println()
				output.Bold("News")
				for _, n := range day.News {
					output.Printf("  • %s\n", n)
				}
			}
			return nil
		},
	}
}

func newDescribeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the scenario description",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			name, _ := cmd.Flags().GetString("scene")
			dir, err := app.Config.SceneDir(name)
			if err != nil {
				return err
			}

			outcome := loader.NewSceneDescriptor(app.Logger).Load(dir, app.Config.Data.IntroPattern)
			if output.IsJSON() {
				return output.JSON(map[string]string{"scene": name, "description": outcome.Value})
			}
			output.Box(name, []string{outcome.Value})
			return outcome.Err
		},
	}
}

func dateFlag(cmd *cobra.Command, name string) (models.Date, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return models.Date{}, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, apperrors.Wrapf(err, "--%s", name)
	}
	return d, nil
}
