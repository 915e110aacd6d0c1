// Package extractor turns the rendered economic-calendar markup into flat
// EventRecords.
//
// The event table interleaves day-header rows ("Monday, September 4, 2023")
// with event rows that only carry a time. Rows are folded in document order
// with the most recent header as running state, so every record gets a
// full datetime text.
package extractor

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/ecocal/models"
	"golang.org/x/net/html"
)

// DefaultTableSelector locates the event table on the calendar page.
const DefaultTableSelector = "table#economicCalendarData"

// ErrTableNotFound means the page never reached a scrapeable state. It is
// the only fatal condition of a gather.
var ErrTableNotFound = errors.New("economic calendar table not found")

// IsTableNotFound reports whether err is (or wraps) ErrTableNotFound.
func IsTableNotFound(err error) bool {
	return errors.Is(err, ErrTableNotFound)
}

var (
	tbodyMatcher = cascadia.MustCompile("tbody")
	rowMatcher   = cascadia.MustCompile("tr")
)

// Extractor parses calendar pages. It holds no per-call state and is safe
// for concurrent use.
type Extractor struct {
	table    cascadia.Selector
	tableSel string
}

// New creates an Extractor that looks for the event table with the given
// CSS selector.
func New(tableSelector string) (*Extractor, error) {
	sel, err := cascadia.Compile(tableSelector)
	if err != nil {
		return nil, fmt.Errorf("extractor: invalid table selector %q: %w", tableSelector, err)
	}
	return &Extractor{table: sel, tableSel: tableSelector}, nil
}

// Result is the output of one Extract call.
type Result struct {
	Records []models.EventRecord
	Stats   models.ExtractionStats
}

// Extract parses rawHTML and returns the event records in document order.
// Header rows, rows with fewer than seven cells and rows whose fields
// cannot be read produce no record. A missing event table yields a
// *models.ScrapeError wrapping ErrTableNotFound.
func (x *Extractor) Extract(rawHTML string) (*Result, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to parse page markup", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	table := doc.FindMatcher(x.table).First()
	if table.Length() == 0 {
		slog.Error("calendar table not found", "selector", x.tableSel)
		return nil, models.NewScrapeError(
			models.ErrCodeTableNotFound,
			fmt.Sprintf("no element matches %q", x.tableSel),
			ErrTableNotFound,
		)
	}

	rows := table.FindMatcher(tbodyMatcher).First().FindMatcher(rowMatcher)

	res := &Result{Records: make([]models.EventRecord, 0, rows.Length())}
	state := scanState{}

	rows.Each(func(i int, row *goquery.Selection) {
		next, kind, rec, err := step(state, row)
		state = next

		switch kind {
		case rowHeader:
			res.Stats.HeaderRows++
		case rowShort:
			res.Stats.ShortRows++
		case rowFailed:
			res.Stats.FailedRows++
			slog.Warn("skipping unreadable calendar row", "row", i, "error", err)
		case rowEvent:
			res.Records = append(res.Records, rec)
		}
	})

	res.Stats.Records = len(res.Records)
	slog.Info("calendar table extracted",
		"records", res.Stats.Records,
		"headers", res.Stats.HeaderRows,
		"short", res.Stats.ShortRows,
		"failed", res.Stats.FailedRows,
	)
	return res, nil
}
