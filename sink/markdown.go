package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/use-agent/ecocal/models"
	"golang.org/x/net/html"
)

// mdConverter is goroutine-safe and shared by every render.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(
			table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
		),
	),
)

// RenderMarkdown formats records as a titled Markdown table.
func RenderMarkdown(records []models.EventRecord, startDate, endDate string) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "<h1>Economic calendar %s to %s</h1>\n",
		html.EscapeString(startDate), html.EscapeString(endDate))

	if len(records) == 0 {
		b.WriteString("<p>No events.</p>\n")
	} else {
		b.WriteString("<table><thead><tr>")
		for _, col := range models.RecordColumns {
			b.WriteString("<th>" + html.EscapeString(col) + "</th>")
		}
		b.WriteString("</tr></thead><tbody>\n")
		for _, r := range records {
			b.WriteString("<tr>")
			for _, v := range r.Values() {
				b.WriteString("<td>" + html.EscapeString(v) + "</td>")
			}
			b.WriteString("</tr>\n")
		}
		b.WriteString("</tbody></table>\n")
	}

	md, err := mdConverter.ConvertString(b.String())
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return md, nil
}

// Markdown writes economic_calendar_{start}_to_{end}.md.
type Markdown struct {
	dir string
}

func NewMarkdown(dir string) *Markdown { return &Markdown{dir: dir} }

func (m *Markdown) Name() string { return "markdown" }

func (m *Markdown) Persist(_ context.Context, records []models.EventRecord, startDate, endDate string) error {
	md, err := RenderMarkdown(records, startDate, endDate)
	if err != nil {
		return err
	}

	dir, err := prepareDir(m.dir)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, BaseName(startDate, endDate)+".md")
	if err := os.WriteFile(path, []byte(md+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
