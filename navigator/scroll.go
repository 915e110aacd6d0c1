package navigator

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	scrollHeightJS   = `() => document.body.scrollHeight`
	scrollToBottomJS = `() => window.scrollTo(0, document.body.scrollHeight)`
)

// exhaustScroll keeps scrolling to the bottom until the page height stops
// growing between two consecutive measurements. MaxScrolls bounds the loop
// so a page that grows forever cannot hang the run.
func (n *Navigator) exhaustScroll(ctx context.Context, r *Report) {
	n.record(r, StepScrollToEnd, func() error {
		scrolls, err := n.scrollUntilStable(ctx)
		slog.Debug("scroll loop finished", "scrolls", scrolls)
		return err
	})
}

// scrollUntilStable returns the number of scroll commands issued.
func (n *Navigator) scrollUntilStable(ctx context.Context) (int, error) {
	last, err := n.scrollHeight(ctx)
	if err != nil {
		return 0, err
	}

	for scrolls := 0; ; {
		if n.cfg.MaxScrolls > 0 && scrolls >= n.cfg.MaxScrolls {
			return scrolls, fmt.Errorf("height still growing after %d scrolls (last %dpx)", scrolls, last)
		}

		if _, err := n.session.Eval(ctx, scrollToBottomJS); err != nil {
			return scrolls, fmt.Errorf("scroll to bottom: %w", err)
		}
		scrolls++

		if err := n.sleep(ctx, n.cfg.ScrollDelay); err != nil {
			return scrolls, fmt.Errorf("wait after scroll: %w", err)
		}

		height, err := n.scrollHeight(ctx)
		if err != nil {
			return scrolls, err
		}
		if height == last {
			return scrolls, nil
		}
		last = height
	}
}

func (n *Navigator) scrollHeight(ctx context.Context) (int, error) {
	v, err := n.session.Eval(ctx, scrollHeightJS)
	if err != nil {
		return 0, fmt.Errorf("measure scroll height: %w", err)
	}
	return v.Int(), nil
}
