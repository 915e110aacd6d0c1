package models

// EventRecord is one economic-calendar entry as displayed on the page.
// Values are kept as display text; "1.2%", "215K" and "(0.3)" are not parsed.
type EventRecord struct {
	// Datetime is the day header joined with the row's time text, or the
	// time text alone when no header preceded the row.
	Datetime string `json:"datetime"`

	// Currency prefers the flag marker's title ("United States Dollar")
	// over the cell text ("USD").
	Currency string `json:"currency"`

	// Importance is the raw text of the impact cell.
	Importance string `json:"importance"`

	Event    string `json:"event"`
	Actual   string `json:"actual"`
	Forecast string `json:"forecast"`
	Previous string `json:"previous"`
}

// RecordColumns is the column order used by tabular sinks.
var RecordColumns = []string{
	"Datetime", "Currency", "Importance", "Event", "Actual", "Forecast", "Previous",
}

// Values returns the record's fields in RecordColumns order.
func (r EventRecord) Values() []string {
	return []string{
		r.Datetime, r.Currency, r.Importance, r.Event, r.Actual, r.Forecast, r.Previous,
	}
}
