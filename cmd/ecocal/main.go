package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/ecocal/api/handler"
	"github.com/use-agent/ecocal/calendar"
	"github.com/use-agent/ecocal/config"
	"github.com/use-agent/ecocal/scraper"
)

var (
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ecocal",
		Short: "Scrape the economic calendar into flat event records",
		Long: `ecocal drives a headless browser through the economic calendar page,
filters it to a date range, scrolls until every row has loaded and
extracts the event table.`,
		Version:      handler.Version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file (overrides ECOCAL_CONFIG)")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(newGatherCmd(), newServeCmd())
	return cmd
}

// loadConfig applies the persistent flags on top of config.Load.
func loadConfig() (*config.Config, error) {
	if flagConfig != "" {
		if err := os.Setenv("ECOCAL_CONFIG", flagConfig); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}

// newGatherer launches the browser and wires a Gatherer to it. The caller
// must close the returned browser.
func newGatherer(cfg *config.Config) (*calendar.Gatherer, *scraper.Browser, error) {
	browser, err := scraper.Launch(cfg.Browser)
	if err != nil {
		return nil, nil, err
	}

	g, err := calendar.New(func() (calendar.Page, error) {
		return browser.NewSession()
	}, cfg.Calendar)
	if err != nil {
		browser.Close()
		return nil, nil, err
	}
	return g, browser, nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(h))
}
