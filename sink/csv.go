package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/use-agent/ecocal/models"
)

// utf8BOM lets spreadsheet apps detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV writes economic_calendar_{start}_to_{end}.csv.
type CSV struct {
	dir string
}

func NewCSV(dir string) *CSV { return &CSV{dir: dir} }

func (c *CSV) Name() string { return "csv" }

func (c *CSV) Persist(_ context.Context, records []models.EventRecord, startDate, endDate string) error {
	dir, err := prepareDir(c.dir)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, BaseName(startDate, endDate)+".csv")

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(models.RecordColumns); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, r := range records {
		if err := w.Write(r.Values()); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
