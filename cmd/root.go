package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"magyarkaland/internal/config"
	"magyarkaland/internal/engine"
	"magyarkaland/internal/game"
	"magyarkaland/internal/imagen"
	"magyarkaland/internal/logging"
	"magyarkaland/internal/scenario"
	"magyarkaland/internal/tui"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "magyarkaland",
	Short: "A Hungarian-learning text adventure",
	Long: `Magyarkaland is a turn-based adventure game for practicing Hungarian.
An AI game master narrates each scene in English, speaks to you in
Hungarian, and grades your answers. Hover over Hungarian words to see
their roots and suffixes, and export everything you learned as a CSV
when the mission ends.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer app.Close()

		scenarios, err := scenario.Load(app.cfg.ScenarioFile)
		if err != nil {
			return fmt.Errorf("loading scenarios: %w", err)
		}
		return tui.Run(app.ctrl, scenarios)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// app bundles the wired-up components shared by every subcommand.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	engine *engine.Engine
	ctrl   *game.Controller
}

// buildApp loads configuration and connects the generation clients.
// logToFile routes logs to the session log file so they do not tear
// the TUI; CLI subcommands log to stderr instead.
func buildApp(ctx context.Context, logToFile bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logPath := ""
	if logToFile {
		logPath = cfg.LogFile
	}
	log, err := logging.New(cfg.LogLevel, logPath)
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	eng, err := engine.NewEngine(ctx, cfg.GeminiAPIKey, cfg.TextModel, log)
	if err != nil {
		return nil, fmt.Errorf("connecting to Gemini: %w", err)
	}

	images := imagen.NewClient(cfg.GeminiAPIKey, cfg.ImageModel, log)
	cache := game.NewCache(eng)
	ctrl := game.NewController(eng, images, cache, log)

	return &app{cfg: cfg, log: log, engine: eng, ctrl: ctrl}, nil
}

func (a *app) Close() {
	a.engine.Close()
}
