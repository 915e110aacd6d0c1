package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/ecocal/extractor"
	"github.com/use-agent/ecocal/sink"
)

// dateLayout is the month/day/year form the calendar's date picker expects.
// Month and day may be zero-padded or not.
const dateLayout = "1/2/2006"

var (
	flagStart      string
	flagEnd        string
	flagSinks      []string
	flagOut        string
	flagHeadful    bool
	flagMaxScrolls int
)

func newGatherCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gather",
		Short: "Gather one date range and persist it to the configured sinks",
		Example: `  ecocal gather --start 09/01/2023 --end 09/07/2023
  ecocal gather --start 09/01/2023 --end 09/07/2023 --sinks csv,sqlite --out ./data`,
		RunE: runGather,
	}

	cmd.Flags().StringVar(&flagStart, "start", "", "Start date, M/D/YYYY (required)")
	cmd.Flags().StringVar(&flagEnd, "end", "", "End date, M/D/YYYY (required)")
	cmd.Flags().StringSliceVar(&flagSinks, "sinks", nil, "Sinks to write to: csv, json, markdown, sqlite, webhook")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output directory for file sinks")
	cmd.Flags().BoolVar(&flagHeadful, "headful", false, "Show the browser window")
	cmd.Flags().IntVar(&flagMaxScrolls, "max-scrolls", -1, "Scroll cap, 0 for unbounded (default from config)")

	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runGather(cmd *cobra.Command, _ []string) error {
	if err := validateRange(flagStart, flagEnd); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if len(flagSinks) > 0 {
		cfg.Sink.Kinds = flagSinks
	}
	if flagOut != "" {
		cfg.Sink.OutputDir = flagOut
	}
	if flagHeadful {
		cfg.Browser.Headless = false
	}
	if flagMaxScrolls >= 0 {
		cfg.Calendar.MaxScrolls = flagMaxScrolls
	}

	initLogger(cfg.Log, os.Stderr)

	sinks, err := sink.FromConfig(cfg.Sink)
	if err != nil {
		return err
	}
	defer sinks.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, browser, err := newGatherer(cfg)
	if err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}
	defer browser.Close()

	res, err := g.GatherEconomicEvents(ctx, flagStart, flagEnd)
	if err != nil {
		if extractor.IsTableNotFound(err) {
			slog.Error("calendar table never appeared; nothing to extract", "error", err)
		}
		return err
	}

	persistStart := time.Now()
	if err := sinks.Persist(ctx, res.Records, flagStart, flagEnd); err != nil {
		return err
	}

	skipped := 0
	for _, s := range res.Steps {
		if !s.Succeeded() {
			skipped++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d events from %s to %s written to %s (%d steps skipped, %s gather, %s persist)\n",
		len(res.Records), flagStart, flagEnd, sinks.Name(), skipped,
		res.Duration.Round(time.Second), time.Since(persistStart).Round(time.Millisecond))
	return nil
}

// validateRange checks both dates are M/D/YYYY and ordered. The calendar
// silently ignores malformed dates, which would gather the wrong week.
func validateRange(start, end string) error {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return fmt.Errorf("invalid --start %q: want M/D/YYYY", start)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return fmt.Errorf("invalid --end %q: want M/D/YYYY", end)
	}
	if e.Before(s) {
		return fmt.Errorf("--end %s is before --start %s", end, start)
	}
	return nil
}
