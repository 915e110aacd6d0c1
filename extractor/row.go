package extractor

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/ecocal/models"
)

// minCells is the number of cells an event row needs: time, currency,
// importance, event, actual, forecast, previous.
const minCells = 7

var errMissingFlagTitle = errors.New("currency flag has no title attribute")

var (
	dayCellMatcher = cascadia.MustCompile("td.theDay")
	cellMatcher    = cascadia.MustCompile("td")
	flagMatcher    = cascadia.MustCompile("span.flagCur")
	anchorMatcher  = cascadia.MustCompile("a")
)

type rowKind int

const (
	rowEvent rowKind = iota
	rowHeader
	rowShort
	rowFailed
)

// scanState is the accumulator threaded through the row fold.
type scanState struct {
	// day is the text of the most recent day-header row.
	day string
}

// step consumes one row. Only a header row changes the state; short and
// failed rows leave it exactly as it was.
func step(state scanState, row *goquery.Selection) (scanState, rowKind, models.EventRecord, error) {
	if day := row.FindMatcher(dayCellMatcher).First(); day.Length() > 0 {
		return scanState{day: clean(day.Text())}, rowHeader, models.EventRecord{}, nil
	}

	cells := row.FindMatcher(cellMatcher)
	if cells.Length() < minCells {
		return state, rowShort, models.EventRecord{}, nil
	}

	rec, err := parseRow(state, cells)
	if err != nil {
		return state, rowFailed, models.EventRecord{}, err
	}
	return state, rowEvent, rec, nil
}

func parseRow(state scanState, cells *goquery.Selection) (models.EventRecord, error) {
	currency, err := currencyText(cells.Eq(1))
	if err != nil {
		return models.EventRecord{}, err
	}

	return models.EventRecord{
		Datetime:   joinDatetime(state.day, clean(cells.Eq(0).Text())),
		Currency:   currency,
		Importance: clean(cells.Eq(2).Text()),
		Event:      eventText(cells.Eq(3)),
		Actual:     clean(cells.Eq(4).Text()),
		Forecast:   clean(cells.Eq(5).Text()),
		Previous:   clean(cells.Eq(6).Text()),
	}, nil
}

func joinDatetime(day, timeText string) string {
	if day == "" {
		return timeText
	}
	return day + " " + timeText
}

// currencyText prefers the flag's tooltip. A flag without a title makes
// the row unreadable rather than silently falling back.
func currencyText(cell *goquery.Selection) (string, error) {
	flag := cell.FindMatcher(flagMatcher).First()
	if flag.Length() == 0 {
		return clean(cell.Text()), nil
	}
	title, ok := flag.Attr("title")
	if !ok {
		return "", errMissingFlagTitle
	}
	return clean(title), nil
}

func eventText(cell *goquery.Selection) string {
	if a := cell.FindMatcher(anchorMatcher).First(); a.Length() > 0 {
		return clean(a.Text())
	}
	return clean(cell.Text())
}

// clean trims Unicode whitespace, including the &nbsp; the calendar uses
// for empty value cells.
func clean(s string) string {
	return strings.TrimSpace(s)
}
