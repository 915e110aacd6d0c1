// Package navigator brings a calendar page into a scrapeable state: loaded,
// free of overlays, filtered to a date range and timezone, and scrolled
// until no more rows lazy-load.
//
// Every step is best-effort. A step that cannot complete is recorded as
// skipped with a reason and the run moves on, because the calendar's markup
// drifts and a partially prepared page is still worth extracting.
package navigator

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/ecocal/config"
	"github.com/use-agent/ecocal/models"
)

// Step names, in execution order.
const (
	StepOpenPage          = "open_page"
	StepAcceptConsent     = "accept_consent"
	StepDismissSignup     = "dismiss_signup"
	StepOpenDatePicker    = "open_date_picker"
	StepWaitDateInputs    = "wait_date_inputs"
	StepSetDates          = "set_dates"
	StepApplyDateFilter   = "apply_date_filter"
	StepOpenTimezoneMenu  = "open_timezone_menu"
	StepWaitTimezonePopup = "wait_timezone_popup"
	StepSelectTimezone    = "select_timezone"
	StepScrollToEnd       = "scroll_to_end"
)

// StepObserver is notified of every finished step. metrics.Collector
// satisfies it.
type StepObserver interface {
	ObserveStep(outcome models.StepOutcome)
}

// Navigator runs the fixed UI step sequence against a Session.
type Navigator struct {
	session  Session
	cfg      config.CalendarConfig
	observer StepObserver

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Navigator for the given session and calendar settings.
func New(session Session, cfg config.CalendarConfig) *Navigator {
	return &Navigator{
		session: session,
		cfg:     cfg,
		sleep:   sleepCtx,
	}
}

// SetObserver attaches an observer that sees every step outcome.
func (n *Navigator) SetObserver(o StepObserver) {
	n.observer = o
}

// Report is the ordered list of step outcomes from one run.
type Report struct {
	Steps []models.StepOutcome
}

// Skipped returns the outcomes that did not succeed.
func (r *Report) Skipped() []models.StepOutcome {
	var out []models.StepOutcome
	for _, s := range r.Steps {
		if !s.Succeeded() {
			out = append(out, s)
		}
	}
	return out
}

// Outcome returns the outcome recorded for step, if any.
func (r *Report) Outcome(step string) (models.StepOutcome, bool) {
	for _, s := range r.Steps {
		if s.Step == step {
			return s, true
		}
	}
	return models.StepOutcome{}, false
}

// Run drives the page through every step in order. startDate and endDate
// are typed into the date picker verbatim (month/day/year). Run never
// fails; inspect the returned Report for degraded steps.
func (n *Navigator) Run(ctx context.Context, startDate, endDate string) *Report {
	r := &Report{}

	n.openPage(ctx, r)
	n.dismissOverlays(ctx, r)
	n.filterDates(ctx, r, startDate, endDate)
	n.adjustTimezone(ctx, r)
	n.exhaustScroll(ctx, r)

	slog.Info("navigation finished",
		"steps", len(r.Steps),
		"skipped", len(r.Skipped()),
	)
	return r
}

// record runs fn as the named step and appends its outcome.
func (n *Navigator) record(r *Report, step string, fn func() error) {
	start := time.Now()
	err := fn()

	outcome := models.StepOutcome{
		Step:     step,
		Status:   models.StepSucceeded,
		Duration: time.Since(start),
	}
	if err != nil {
		outcome.Status = models.StepSkipped
		outcome.Reason = err.Error()
		slog.Warn("navigation step skipped", "step", step, "reason", outcome.Reason)
	} else {
		slog.Info("navigation step succeeded", "step", step)
	}

	r.Steps = append(r.Steps, outcome)
	if n.observer != nil {
		n.observer.ObserveStep(outcome)
	}
}

// settle waits a fixed delay. Cancellation cuts it short and is logged;
// the next step will see the cancelled context on its own.
func (n *Navigator) settle(ctx context.Context, d time.Duration, after string) {
	if d <= 0 {
		return
	}
	if err := n.sleep(ctx, d); err != nil {
		slog.Debug("settle delay interrupted", "after", after, "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
