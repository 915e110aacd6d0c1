package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/use-agent/ecocal/config"
	"github.com/use-agent/ecocal/models"
	"github.com/use-agent/ecocal/webhook"
)

var sample = []models.EventRecord{
	{
		Datetime: "Monday, September 4, 2023 03:30", Currency: "Australia", Importance: "Low",
		Event: "Company Gross Operating Profits (QoQ)", Actual: "11.6%", Forecast: "-2.5%", Previous: "-5.3%",
	},
	{
		Datetime: "Monday, September 4, 2023 16:30", Currency: "United States Dollar", Importance: "High",
		Event: `Factory Orders, "core" (MoM)`, Actual: "1.2%", Forecast: "1.0%", Previous: "0.8%",
	},
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		start, end, want string
	}{
		{"09/01/2023", "09/07/2023", "economic_calendar_09-01-2023_to_09-07-2023"},
		{"2023-09-01", "2023-09-07", "economic_calendar_2023-09-01_to_2023-09-07"},
	}
	for _, tt := range tests {
		if got := BaseName(tt.start, tt.end); got != tt.want {
			t.Errorf("BaseName(%q, %q) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestCSV(t *testing.T) {
	dir := t.TempDir()
	if err := NewCSV(dir).Persist(context.Background(), sample, "09/04/2023", "09/04/2023"); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "economic_calendar_09-04-2023_to_09-04-2023.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, utf8BOM) {
		t.Fatal("missing UTF-8 BOM")
	}

	rows, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if !reflect.DeepEqual(rows[0], models.RecordColumns) {
		t.Errorf("header = %v", rows[0])
	}
	if !reflect.DeepEqual(rows[2], sample[1].Values()) {
		t.Errorf("row 2 = %v, want %v", rows[2], sample[1].Values())
	}
}

func TestCSV_EmptyWritesHeader(t *testing.T) {
	dir := t.TempDir()
	if err := NewCSV(dir).Persist(context.Background(), nil, "a", "b"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "economic_calendar_a_to_b.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := string(utf8BOM) + "Datetime,Currency,Importance,Event,Actual,Forecast,Previous\n"
	if string(data) != want {
		t.Errorf("got %q, want %q", data, want)
	}
}

func TestJSON(t *testing.T) {
	dir := t.TempDir()
	if err := NewJSON(dir).Persist(context.Background(), sample, "09/04/2023", "09/05/2023"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "economic_calendar_09-04-2023_to_09-05-2023.json"))
	if err != nil {
		t.Fatal(err)
	}
	var got []models.EventRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, sample) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestJSON_EmptyIsArray(t *testing.T) {
	dir := t.TempDir()
	if err := NewJSON(dir).Persist(context.Background(), nil, "a", "b"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "economic_calendar_a_to_b.json"))
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("got %q, want []", data)
	}
}

func TestRenderMarkdown(t *testing.T) {
	md, err := RenderMarkdown(sample, "09/04/2023", "09/04/2023")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"# Economic calendar 09/04/2023 to 09/04/2023",
		"Datetime",
		"Previous",
		"United States Dollar",
		"Company Gross Operating Profits (QoQ)",
		"|",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "<td>") {
		t.Errorf("markdown still contains HTML:\n%s", md)
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md, err := RenderMarkdown(nil, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "No events.") {
		t.Errorf("got %q", md)
	}
}

func TestMarkdownSink(t *testing.T) {
	dir := t.TempDir()
	if err := NewMarkdown(dir).Persist(context.Background(), sample, "a", "b"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "economic_calendar_a_to_b.md")); err != nil {
		t.Fatal(err)
	}
}

func TestSQLite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Persist(ctx, sample, "09/04/2023", "09/04/2023"); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if err := db.Persist(ctx, sample[:1], "09/05/2023", "09/05/2023"); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	got, err := db.Batch(ctx, "09/04/2023", "09/04/2023")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, sample) {
		t.Errorf("Batch = %+v, want %+v", got, sample)
	}

	got, err = db.Batch(ctx, "09/05/2023", "09/05/2023")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("second batch has %d records, want 1", len(got))
	}
}

func TestWebhookSink(t *testing.T) {
	var got webhook.Event
	var payload GatheredPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw struct {
			webhook.Event
			Data json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode: %v", err)
		}
		got = raw.Event
		_ = json.Unmarshal(raw.Data, &payload)
	}))
	defer srv.Close()

	if err := NewWebhook(srv.URL, "").Persist(context.Background(), sample, "09/04/2023", "09/04/2023"); err != nil {
		t.Fatal(err)
	}
	if got.Type != EventGathered || got.BatchID == "" || got.Timestamp == 0 {
		t.Errorf("event = %+v", got)
	}
	if payload.Count != 2 || payload.StartDate != "09/04/2023" || len(payload.Records) != 2 {
		t.Errorf("payload = %+v", payload)
	}
}

type fakeSink struct {
	name  string
	err   error
	calls int
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Persist(context.Context, []models.EventRecord, string, string) error {
	f.calls++
	return f.err
}

func TestMulti_RunsAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("disk full")
	a := &fakeSink{name: "a", err: boom}
	b := &fakeSink{name: "b"}
	m := Multi{a, b}

	err := m.Persist(context.Background(), sample, "x", "y")
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = %d, %d; want every sink to run", a.calls, b.calls)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error to wrap %v, got %v", boom, err)
	}
	var se *models.ScrapeError
	if !errors.As(err, &se) || se.Code != models.ErrCodeSinkFailed {
		t.Errorf("expected %s, got %v", models.ErrCodeSinkFailed, err)
	}
	if m.Name() != "a,b" {
		t.Errorf("Name = %q", m.Name())
	}

	if err := (Multi{b}).Persist(context.Background(), nil, "x", "y"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	dir := t.TempDir()
	base := config.SinkConfig{
		OutputDir:  dir,
		SQLitePath: filepath.Join(dir, "events.db"),
	}

	tests := []struct {
		name    string
		kinds   []string
		url     string
		want    []string
		wantErr bool
	}{
		{name: "files", kinds: []string{"csv", " JSON ", "md"}, want: []string{"csv", "json", "markdown"}},
		{name: "sqlite", kinds: []string{"sqlite"}, want: []string{"sqlite"}},
		{name: "webhook", kinds: []string{"webhook"}, url: "http://hooks.test/x", want: []string{"webhook"}},
		{name: "webhook without url", kinds: []string{"webhook"}, wantErr: true},
		{name: "unknown", kinds: []string{"csv", "parquet"}, wantErr: true},
		{name: "none", kinds: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.Kinds = tt.kinds
			cfg.WebhookURL = tt.url

			m, err := FromConfig(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			defer m.Close()

			var names []string
			for _, s := range m {
				names = append(names, s.Name())
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("sinks = %v, want %v", names, tt.want)
			}
		})
	}
}
