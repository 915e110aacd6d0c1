// Package calendar runs one complete gather: navigate a fresh browser page,
// read its source once, and extract the event records.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/ecocal/config"
	"github.com/use-agent/ecocal/extractor"
	"github.com/use-agent/ecocal/models"
	"github.com/use-agent/ecocal/navigator"
)

// ErrBusy is wrapped by TryGatherEconomicEvents when another gather holds
// the gatherer.
var ErrBusy = errors.New("gather already in progress")

// Page is a browser tab the navigator can drive and whose source can be
// read. *scraper.Session satisfies it.
type Page interface {
	navigator.Session
	HTML(ctx context.Context) (string, error)
	Close() error
}

// OpenFunc opens the page a single gather will own.
type OpenFunc func() (Page, error)

// Recorder receives gather telemetry. metrics.Collector satisfies it.
type Recorder interface {
	navigator.StepObserver
	ObserveExtraction(stats models.ExtractionStats)
	ObserveGather(d time.Duration, err error)
}

// Result is the output of one gather.
type Result struct {
	Records   []models.EventRecord
	Steps     []models.StepOutcome
	Stats     models.ExtractionStats
	StartedAt time.Time
	Duration  time.Duration
}

// Gatherer serializes gathers against one browser.
type Gatherer struct {
	mu   sync.Mutex
	busy atomic.Bool

	open      OpenFunc
	cfg       config.CalendarConfig
	extractor *extractor.Extractor
	recorder  Recorder
}

// New creates a Gatherer. The table selector in cfg is compiled up front
// so a bad selector fails at startup rather than after a full navigation.
func New(open OpenFunc, cfg config.CalendarConfig) (*Gatherer, error) {
	ext, err := extractor.New(cfg.Selectors.EventTable)
	if err != nil {
		return nil, err
	}
	return &Gatherer{open: open, cfg: cfg, extractor: ext}, nil
}

// SetRecorder attaches telemetry. Call before the first gather.
func (g *Gatherer) SetRecorder(r Recorder) {
	g.recorder = r
}

// Busy reports whether a gather is running.
func (g *Gatherer) Busy() bool {
	return g.busy.Load()
}

// GatherEconomicEvents navigates to the calendar, filters it to the
// startDate..endDate range (month/day/year) and returns the extracted
// events. It waits for any running gather to finish first.
//
// Skipped navigation steps are reported in Result.Steps and never fail the
// call. A missing event table is returned as an error; test for it with
// extractor.IsTableNotFound.
func (g *Gatherer) GatherEconomicEvents(ctx context.Context, startDate, endDate string) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gather(ctx, startDate, endDate)
}

// TryGatherEconomicEvents is GatherEconomicEvents without waiting: if a
// gather is already running it fails with a GATHER_BUSY ScrapeError.
func (g *Gatherer) TryGatherEconomicEvents(ctx context.Context, startDate, endDate string) (*Result, error) {
	if !g.mu.TryLock() {
		return nil, models.NewScrapeError(models.ErrCodeBusy, "another gather is running", ErrBusy)
	}
	defer g.mu.Unlock()
	return g.gather(ctx, startDate, endDate)
}

func (g *Gatherer) gather(ctx context.Context, startDate, endDate string) (res *Result, err error) {
	g.busy.Store(true)
	defer g.busy.Store(false)

	startedAt := time.Now()
	defer func() {
		if g.recorder != nil {
			g.recorder.ObserveGather(time.Since(startedAt), err)
		}
	}()

	slog.Info("gather started", "start", startDate, "end", endDate)

	page, err := g.open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			slog.Warn("failed to close page", "error", cerr)
		}
	}()

	nav := navigator.New(page, g.cfg)
	if g.recorder != nil {
		nav.SetObserver(g.recorder)
	}
	report := nav.Run(ctx, startDate, endDate)

	source, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page source: %w", err)
	}

	ext, err := g.extractor.Extract(source)
	if err != nil {
		return nil, err
	}
	if g.recorder != nil {
		g.recorder.ObserveExtraction(ext.Stats)
	}

	res = &Result{
		Records:   ext.Records,
		Steps:     report.Steps,
		Stats:     ext.Stats,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
	}
	slog.Info("gather finished",
		"records", len(res.Records),
		"skipped_steps", len(report.Skipped()),
		"duration", res.Duration,
	)
	return res, nil
}
