package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/use-agent/ecocal/models"
)

// JSON writes economic_calendar_{start}_to_{end}.json as an indented array.
type JSON struct {
	dir string
}

func NewJSON(dir string) *JSON { return &JSON{dir: dir} }

func (j *JSON) Name() string { return "json" }

func (j *JSON) Persist(_ context.Context, records []models.EventRecord, startDate, endDate string) error {
	dir, err := prepareDir(j.dir)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, BaseName(startDate, endDate)+".json")

	if records == nil {
		records = []models.EventRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
