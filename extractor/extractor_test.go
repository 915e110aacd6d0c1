package extractor

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/ecocal/models"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	x, err := New(DefaultTableSelector)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return x
}

// page wraps tbody rows in the calendar table.
func page(rows ...string) string {
	return `<html><body><table id="economicCalendarData"><tbody>` +
		strings.Join(rows, "\n") +
		`</tbody></table></body></html>`
}

func header(day string) string {
	return fmt.Sprintf(`<tr><td colspan="9" class="theDay">%s</td></tr>`, day)
}

func dataRow(cells ...string) string {
	var b strings.Builder
	b.WriteString("<tr>")
	for _, c := range cells {
		b.WriteString("<td>" + c + "</td>")
	}
	b.WriteString("</tr>")
	return b.String()
}

func plainRow(time string) string {
	return dataRow(time, "USD", "High", "Event "+time, "1", "2", "3")
}

func TestExtract_EndToEndExample(t *testing.T) {
	html := page(
		header("Monday, September 4, 2023"),
		dataRow("8:30am",
			`<span class=flagCur title='United States Dollar'>USD</span>`,
			"High",
			"<a>Factory Orders</a>",
			"1.2%", "1.0%", "0.8%",
		),
	)

	res, err := newTestExtractor(t).Extract(html)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	want := models.EventRecord{
		Datetime:   "Monday, September 4, 2023 8:30am",
		Currency:   "United States Dollar",
		Importance: "High",
		Event:      "Factory Orders",
		Actual:     "1.2%",
		Forecast:   "1.0%",
		Previous:   "0.8%",
	}
	if len(res.Records) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(res.Records), res.Records)
	}
	if res.Records[0] != want {
		t.Errorf("record = %+v\nwant     %+v", res.Records[0], want)
	}
}

func TestExtract_HeaderContext(t *testing.T) {
	tests := []struct {
		name  string
		rows  []string
		want  []string
		heads int
	}{
		{
			name: "no header",
			rows: []string{plainRow("01:00"), plainRow("02:00")},
			want: []string{"01:00", "02:00"},
		},
		{
			name:  "single header",
			rows:  []string{header("Mon"), plainRow("01:00"), plainRow("02:00")},
			want:  []string{"Mon 01:00", "Mon 02:00"},
			heads: 1,
		},
		{
			name:  "rows before first header",
			rows:  []string{plainRow("00:30"), header("Tue"), plainRow("09:00")},
			want:  []string{"00:30", "Tue 09:00"},
			heads: 1,
		},
		{
			name: "header replaced",
			rows: []string{
				header("Mon"), plainRow("01:00"),
				header("Tue"), plainRow("02:00"), plainRow("03:00"),
				header("Wed"), plainRow("04:00"),
			},
			want:  []string{"Mon 01:00", "Tue 02:00", "Tue 03:00", "Wed 04:00"},
			heads: 3,
		},
		{
			name:  "consecutive headers keep the last",
			rows:  []string{header("Sat"), header("Sun"), header("Mon"), plainRow("07:00")},
			want:  []string{"Mon 07:00"},
			heads: 3,
		},
		{
			name:  "empty header text",
			rows:  []string{header("Mon"), plainRow("01:00"), header("  "), plainRow("02:00")},
			want:  []string{"Mon 01:00", "02:00"},
			heads: 2,
		},
	}

	x := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := x.Extract(page(tt.rows...))
			if err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if len(res.Records) != len(tt.want) {
				t.Fatalf("got %d records, want %d", len(res.Records), len(tt.want))
			}
			for i, rec := range res.Records {
				if rec.Datetime != tt.want[i] {
					t.Errorf("record[%d].Datetime = %q, want %q", i, rec.Datetime, tt.want[i])
				}
			}
			if res.Stats.HeaderRows != tt.heads {
				t.Errorf("HeaderRows = %d, want %d", res.Stats.HeaderRows, tt.heads)
			}
		})
	}
}

func TestExtract_PreservesDocumentOrder(t *testing.T) {
	var rows []string
	var want []string
	for d := 0; d < 5; d++ {
		day := fmt.Sprintf("Day %d", d)
		rows = append(rows, header(day))
		for h := 0; h < 4; h++ {
			tm := fmt.Sprintf("%02d:%02d", h, d)
			rows = append(rows, plainRow(tm))
			want = append(want, "Event "+tm)
		}
	}

	res, err := newTestExtractor(t).Extract(page(rows...))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(res.Records) != 20 {
		t.Fatalf("got %d records, want 20", len(res.Records))
	}
	for i, rec := range res.Records {
		if rec.Event != want[i] {
			t.Errorf("record[%d].Event = %q, want %q", i, rec.Event, want[i])
		}
	}
}

func TestExtract_CellCountBoundary(t *testing.T) {
	six := dataRow("01:00", "USD", "High", "Six", "1", "2")
	seven := dataRow("02:00", "USD", "High", "Seven", "1", "2", "3")

	res, err := newTestExtractor(t).Extract(page(header("Mon"), six, seven, six))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].Event != "Seven" {
		t.Fatalf("records = %+v, want only the 7-cell row", res.Records)
	}
	if res.Records[0].Datetime != "Mon 02:00" {
		t.Errorf("Datetime = %q, short rows must not disturb the header", res.Records[0].Datetime)
	}
	if res.Stats.ShortRows != 2 {
		t.Errorf("ShortRows = %d, want 2", res.Stats.ShortRows)
	}
}

func TestExtract_Currency(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want string
	}{
		{"flag title", `<span class="ceFlags flagCur" title="  Euro Zone ">x</span> EUR`, "Euro Zone"},
		{"no flag", ` GBP `, "GBP"},
		{"span without flagCur class", `<span title="Japan">&nbsp;</span> JPY`, "JPY"},
		{"empty flag title", `<span class="flagCur" title="">&nbsp;</span> CHF`, ""},
	}

	x := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := x.Extract(page(dataRow("01:00", tt.cell, "High", "E", "1", "2", "3")))
			if err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if len(res.Records) != 1 {
				t.Fatalf("got %d records, want 1", len(res.Records))
			}
			if got := res.Records[0].Currency; got != tt.want {
				t.Errorf("Currency = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_EventName(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want string
	}{
		{"anchor", `<a href="/x">  CPI (YoY) </a><span class="smallGrayP">(Aug)</span>`, "CPI (YoY)"},
		{"no anchor", `  Bank Holiday  `, "Bank Holiday"},
		{"nested anchor", `<div><b><a>ISM Manufacturing PMI</a></b></div>`, "ISM Manufacturing PMI"},
	}

	x := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := x.Extract(page(dataRow("01:00", "USD", "High", tt.cell, "1", "2", "3")))
			if err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if got := res.Records[0].Event; got != tt.want {
				t.Errorf("Event = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_FailedRowIsIsolated(t *testing.T) {
	bad := dataRow("02:00", `<span class="flagCur">&nbsp;</span> EUR`, "Low", "Broken", "1", "2", "3")

	res, err := newTestExtractor(t).Extract(page(
		header("Mon"),
		plainRow("01:00"),
		bad,
		plainRow("03:00"),
	))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if len(res.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(res.Records))
	}
	if res.Records[1].Datetime != "Mon 03:00" {
		t.Errorf("row after failure: Datetime = %q, want %q", res.Records[1].Datetime, "Mon 03:00")
	}
	if res.Stats.FailedRows != 1 {
		t.Errorf("FailedRows = %d, want 1", res.Stats.FailedRows)
	}
}

func TestExtract_TableNotFound(t *testing.T) {
	html := `<html><body><table id="somethingElse"><tbody>` + plainRow("01:00") + `</tbody></table></body></html>`

	res, err := newTestExtractor(t).Extract(html)
	if err == nil {
		t.Fatal("expected fatal error when the table is missing")
	}
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
	if !IsTableNotFound(err) {
		t.Errorf("IsTableNotFound(%v) = false", err)
	}
	se, ok := err.(*models.ScrapeError)
	if !ok {
		t.Fatalf("error type = %T, want *models.ScrapeError", err)
	}
	if se.Code != models.ErrCodeTableNotFound {
		t.Errorf("Code = %q, want %q", se.Code, models.ErrCodeTableNotFound)
	}
}

func TestExtract_EmptyTable(t *testing.T) {
	res, err := newTestExtractor(t).Extract(`<table id="economicCalendarData"></table>`)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("got %d records, want 0", len(res.Records))
	}
}

func TestExtract_Fixture(t *testing.T) {
	data, err := os.ReadFile("testdata/calendar.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	res, err := newTestExtractor(t).Extract(string(data))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	want := []models.EventRecord{
		{
			Datetime: "Monday, September 4, 2023 03:30", Currency: "AUD", Importance: "",
			Event: "Company Gross Operating Profits (QoQ)", Actual: "11.6%", Forecast: "-2.5%", Previous: "-5.3%",
		},
		{
			Datetime: "Monday, September 4, 2023 16:30", Currency: "United States Dollar", Importance: "High",
			Event: "Factory Orders (MoM)", Actual: "1.2%", Forecast: "1.0%", Previous: "0.8%",
		},
		{
			Datetime: "Tuesday, September 5, 2023 All Day", Currency: "JPY", Importance: "Holiday",
			Event: "Japan - Respect for the Aged Day",
		},
		{
			Datetime: "Tuesday, September 5, 2023 21:00", Currency: "Euro Zone", Importance: "Low",
			Event: "Eurogroup Meetings", Actual: "(0.3)", Forecast: "215K", Previous: "1.2M",
		},
	}

	if len(res.Records) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(res.Records), len(want), res.Records)
	}
	for i := range want {
		if res.Records[i] != want[i] {
			t.Errorf("record[%d] = %+v\nwant        %+v", i, res.Records[i], want[i])
		}
	}

	wantStats := models.ExtractionStats{Records: 4, HeaderRows: 2, ShortRows: 1, FailedRows: 1}
	if res.Stats != wantStats {
		t.Errorf("Stats = %+v, want %+v", res.Stats, wantStats)
	}
}

func TestStep_Fold(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page(
		header("Mon"),
		dataRow("x", "y"),
		plainRow("05:00"),
	)))
	if err != nil {
		t.Fatal(err)
	}
	rows := doc.Find("tbody tr")

	state := scanState{day: "Sun"}

	state, kind, _, _ := step(state, rows.Eq(0))
	if kind != rowHeader || state.day != "Mon" {
		t.Fatalf("header row: kind=%v day=%q", kind, state.day)
	}

	state, kind, _, _ = step(state, rows.Eq(1))
	if kind != rowShort || state.day != "Mon" {
		t.Fatalf("short row: kind=%v day=%q", kind, state.day)
	}

	_, kind, rec, err := step(state, rows.Eq(2))
	if err != nil || kind != rowEvent {
		t.Fatalf("event row: kind=%v err=%v", kind, err)
	}
	if rec.Datetime != "Mon 05:00" {
		t.Errorf("Datetime = %q, want %q", rec.Datetime, "Mon 05:00")
	}
}

func TestNew_InvalidSelector(t *testing.T) {
	if _, err := New("table[["); err == nil {
		t.Error("expected error for invalid selector")
	}
}
