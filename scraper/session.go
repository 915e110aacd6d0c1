package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/ecocal/models"
	"github.com/use-agent/ecocal/navigator"
	"github.com/ysmood/gson"
)

// ErrElementNotFound is returned by Find when nothing matches.
var ErrElementNotFound = errors.New("element not found")

var _ navigator.Session = (*Session)(nil)

// Session is one browser tab driven by the navigator. It is not safe for
// concurrent use; one gather owns it at a time.
type Session struct {
	page   *rod.Page
	router *rod.HijackRouter
}

// NewSession opens a tab with stealth and resource blocking installed.
// Both must be in place before the first navigation to take effect.
func (b *Browser) NewSession() (*Session, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to open browser tab",
			err,
		)
	}

	if b.cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", err,
			)
		}
	}

	return &Session{
		page:   page,
		router: setupHijack(page, b.cfg.BlockedResourceTypes, b.cfg.BlockAds),
	}, nil
}

// Navigate loads url in the tab.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.page.Context(ctx).Navigate(url); err != nil {
		return categorizeError(err, "navigation to calendar failed")
	}
	return nil
}

// WaitClickable waits up to timeout for selector to be visible and enabled.
func (s *Session) WaitClickable(ctx context.Context, selector string, timeout time.Duration) (navigator.Element, error) {
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	el, err := p.Element(selector)
	if err != nil {
		return nil, err
	}
	if err := el.WaitVisible(); err != nil {
		return nil, err
	}
	if err := el.WaitEnabled(); err != nil {
		return nil, err
	}
	return &element{el: el}, nil
}

// WaitVisible waits up to timeout for selector to be visible.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) (navigator.Element, error) {
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	el, err := p.Element(selector)
	if err != nil {
		return nil, err
	}
	if err := el.WaitVisible(); err != nil {
		return nil, err
	}
	return &element{el: el}, nil
}

// Find returns the first match without waiting.
func (s *Session) Find(ctx context.Context, selector string) (navigator.Element, error) {
	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return &element{el: el}, nil
}

// Eval runs a JS function expression in the page and returns its value.
func (s *Session) Eval(ctx context.Context, js string) (gson.JSON, error) {
	res, err := s.page.Context(ctx).Eval(js)
	if err != nil {
		return gson.JSON{}, err
	}
	return res.Value, nil
}

// HTML returns the current rendered markup of the page.
func (s *Session) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", categorizeError(err, "failed to read page source")
	}
	return html, nil
}

// Close stops request interception and closes the tab.
func (s *Session) Close() error {
	if s.router != nil {
		_ = s.router.Stop()
	}
	return s.page.Close()
}

// element adapts *rod.Element to navigator.Element.
type element struct {
	el *rod.Element
}

func (e *element) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// Clear empties an input and fires the input event so date pickers notice.
func (e *element) Clear(ctx context.Context) error {
	_, err := e.el.Context(ctx).Eval(`() => {
		this.value = '';
		this.dispatchEvent(new Event('input', { bubbles: true }));
	}`)
	return err
}

func (e *element) Input(ctx context.Context, text string) error {
	return e.el.Context(ctx).Input(text)
}

func (e *element) Type(ctx context.Context, keys ...input.Key) error {
	return e.el.Context(ctx).Type(keys...)
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
