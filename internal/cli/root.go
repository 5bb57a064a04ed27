// Package cli provides the command-line interface for replaying crisis
// scenarios.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"crisis-replay/internal/config"
	apperrors "crisis-replay/internal/errors"
	"crisis-replay/internal/logging"
	"crisis-replay/internal/scenario"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-18"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Loader *scenario.Loader
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		Loader: scenario.NewLoader(cfg, logger),
	}
	colorWanted = cfg.UI.ColorEnabled

	rootCmd := &cobra.Command{
		Use:   "replay",
		Short: "Crisis Replay - historical market crisis timelines",
		Long: `Crisis Replay loads a historical market crisis scenario (fund NAVs,
benchmark indices, news and a description) and reconciles it into the
ordered sequence of trading days a simulation steps through.

A day is a trading day only when every fund in the scenario has data for it.

Use 'replay scenes' to list the configured scenarios.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir, _ := cmd.Flags().GetString("config"); dir != "" {
				cfg, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = cfg
				app.Logger = NewLogger(cfg.Logging)
				colorWanted = cfg.UI.ColorEnabled
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			app.Loader = scenario.NewLoader(app.Config, app.Logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/crisis-replay)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringP("scene", "s", "2015", "scenario code or directory")

	addCoreCommands(rootCmd, app)
	addScenarioCommands(rootCmd, app)

	return rootCmd
}

// NewLogger builds the application logger from the [logging] section. Unset
// values keep the logging package defaults.
func NewLogger(lc config.LoggingConfig) zerolog.Logger {
	c := logging.DefaultLogConfig()
	if lc.Level != "" {
		c.Level = lc.Level
	}
	if lc.FilePath != "" {
		c.FilePath = lc.FilePath
	}
	if lc.MaxSize > 0 {
		c.MaxSize = lc.MaxSize
	}
	if lc.MaxBackups > 0 {
		c.MaxBackups = lc.MaxBackups
	}
	if lc.MaxAge > 0 {
		c.MaxAge = lc.MaxAge
	}
	c.Console = lc.Console
	c.File = lc.File
	return logging.NewLoggerWithConfig(c)
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Crisis Replay v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir := configDir(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": dir})
			}
			output.Println(dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func configDir(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("config"); dir != "" {
		return dir
	}
	return config.DefaultConfigDir()
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Data")
	output.Printf("  Scenes root:   %s\n", cfg.Data.ScenesRoot)
	output.Printf("  Database:      %s\n", cfg.Data.DBPath)
	output.Printf("  News file:     %s\n", cfg.Data.NewsFile)
	output.Printf("  Description:   %s\n", cfg.Data.IntroPattern)
	output.Println()

	output.Bold("Scenes")
	for _, name := range cfg.SceneNames() {
		output.Printf("  %-6s %s\n", name, cfg.Scenes[name])
	}
	output.Println()

	output.Bold("Benchmarks")
	for _, b := range cfg.Benchmarks {
		output.Printf("  %-10s codes=%v names=%v\n", b.Key, b.Codes, b.NameContains)
	}
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:         %s\n", cfg.Logging.Level)
	output.Printf("  File:          %v (%s)\n", cfg.Logging.File, cfg.Logging.FilePath)
}

// loadScenario resolves the --scene flag and loads the scenario.
func (app *App) loadScenario(ctx context.Context, cmd *cobra.Command, opts ...scenario.Option) (*scenario.Scenario, error) {
	name, _ := cmd.Flags().GetString("scene")
	dir, err := app.Config.SceneDir(name)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithLogger(ctx, logging.WithOperation(app.Logger, cmd.Name()))
	sc, err := app.Loader.Load(ctx, dir, append([]scenario.Option{scenario.WithName(name)}, opts...)...)
	if err != nil {
		return nil, apperrors.Wrapf(err, "loading scenario %s", name)
	}
	return sc, nil
}
