package navigator

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod/lib/input"
)

func (n *Navigator) openPage(ctx context.Context, r *Report) {
	n.record(r, StepOpenPage, func() error {
		if err := n.session.Navigate(ctx, n.cfg.URL); err != nil {
			return fmt.Errorf("navigate to %s: %w", n.cfg.URL, err)
		}
		return nil
	})
	// Fixed wait: the initial DOM structure is all that is needed here.
	n.settle(ctx, n.cfg.LoadDelay, StepOpenPage)
}

// dismissOverlays clears the consent banner and the signup popup. The two
// attempts are independent.
func (n *Navigator) dismissOverlays(ctx context.Context, r *Report) {
	sel := n.cfg.Selectors

	n.record(r, StepAcceptConsent, func() error {
		return n.clickWhenReady(ctx, sel.ConsentAccept, n.cfg.ConsentTimeout)
	})

	n.record(r, StepDismissSignup, func() error {
		ctx, cancel := context.WithTimeout(ctx, n.cfg.ConsentTimeout)
		defer cancel()

		body, err := n.session.Find(ctx, sel.Body)
		if err != nil {
			return fmt.Errorf("find %q: %w", sel.Body, err)
		}
		if err := body.Type(ctx, input.Escape); err != nil {
			return fmt.Errorf("send escape: %w", err)
		}
		return nil
	})
}

// filterDates opens the date picker, fills in the range and applies it.
// Sub-steps are not gated on each other: the inputs may already be on the
// page even when the toggle could not be clicked.
func (n *Navigator) filterDates(ctx context.Context, r *Report, startDate, endDate string) {
	sel := n.cfg.Selectors
	timeout := n.cfg.DateFilterTimeout

	n.record(r, StepOpenDatePicker, func() error {
		return n.clickWhenReady(ctx, sel.DatePicker, timeout)
	})

	n.record(r, StepWaitDateInputs, func() error {
		for _, s := range []string{sel.StartDate, sel.EndDate} {
			if _, err := n.session.WaitVisible(ctx, s, timeout); err != nil {
				return fmt.Errorf("wait visible %q: %w", s, err)
			}
		}
		return nil
	})

	n.record(r, StepSetDates, func() error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		start, err := n.session.Find(ctx, sel.StartDate)
		if err != nil {
			return fmt.Errorf("find %q: %w", sel.StartDate, err)
		}
		end, err := n.session.Find(ctx, sel.EndDate)
		if err != nil {
			return fmt.Errorf("find %q: %w", sel.EndDate, err)
		}

		if err := start.Clear(ctx); err != nil {
			return fmt.Errorf("clear start date: %w", err)
		}
		if err := end.Clear(ctx); err != nil {
			return fmt.Errorf("clear end date: %w", err)
		}
		if err := start.Input(ctx, startDate); err != nil {
			return fmt.Errorf("type start date %q: %w", startDate, err)
		}
		if err := end.Input(ctx, endDate); err != nil {
			return fmt.Errorf("type end date %q: %w", endDate, err)
		}
		return nil
	})

	n.record(r, StepApplyDateFilter, func() error {
		return n.clickWhenReady(ctx, sel.ApplyDates, timeout)
	})

	n.settle(ctx, n.cfg.FilterDelay, StepApplyDateFilter)
}

// adjustTimezone switches the calendar to the configured timezone option.
func (n *Navigator) adjustTimezone(ctx context.Context, r *Report) {
	sel := n.cfg.Selectors
	timeout := n.cfg.TimezoneTimeout

	n.record(r, StepOpenTimezoneMenu, func() error {
		return n.clickWhenReady(ctx, sel.TimezoneArrow, timeout)
	})

	n.record(r, StepWaitTimezonePopup, func() error {
		if _, err := n.session.WaitVisible(ctx, sel.TimezonePopup, timeout); err != nil {
			return fmt.Errorf("wait visible %q: %w", sel.TimezonePopup, err)
		}
		return nil
	})

	n.record(r, StepSelectTimezone, func() error {
		return n.clickWhenReady(ctx, sel.TimezoneOption, timeout)
	})

	n.settle(ctx, n.cfg.TimezoneDelay, StepSelectTimezone)
}

// clickWhenReady waits for selector and clicks it. The timeout covers the
// wait and the click together.
func (n *Navigator) clickWhenReady(ctx context.Context, selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := n.session.WaitClickable(ctx, selector, timeout)
	if err != nil {
		return fmt.Errorf("wait clickable %q: %w", selector, err)
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}
