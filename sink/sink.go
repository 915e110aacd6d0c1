// Package sink persists gathered event records.
package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/use-agent/ecocal/config"
	"github.com/use-agent/ecocal/models"
)

// Sink accepts one gather's records. startDate and endDate are the range
// the records were gathered for, as typed into the calendar.
type Sink interface {
	Name() string
	Persist(ctx context.Context, records []models.EventRecord, startDate, endDate string) error
}

// BaseName is the file name, without extension, shared by the file sinks:
// economic_calendar_{start}_to_{end}. Slashes in the dates become dashes.
func BaseName(startDate, endDate string) string {
	return fmt.Sprintf("economic_calendar_%s_to_%s", fileSafe(startDate), fileSafe(endDate))
}

func fileSafe(date string) string {
	return strings.NewReplacer("/", "-", `\`, "-").Replace(date)
}

// prepareDir expands a leading "~/" and creates dir if needed.
func prepareDir(dir string) (string, error) {
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return dir, nil
}

// Multi fans out to several sinks.
type Multi []Sink

func (m Multi) Name() string {
	names := make([]string, len(m))
	for i, s := range m {
		names[i] = s.Name()
	}
	return strings.Join(names, ",")
}

// Persist runs every sink, even after one fails, and joins their errors.
func (m Multi) Persist(ctx context.Context, records []models.EventRecord, startDate, endDate string) error {
	var errs []error
	for _, s := range m {
		if err := s.Persist(ctx, records, startDate, endDate); err != nil {
			slog.Error("sink failed", "sink", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		slog.Info("records persisted", "sink", s.Name(), "records", len(records))
	}
	if len(errs) > 0 {
		return models.NewScrapeError(models.ErrCodeSinkFailed, "one or more sinks failed", errors.Join(errs...))
	}
	return nil
}

// Close releases resources held by sinks that have any.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the sinks named in cfg.Kinds.
func FromConfig(cfg config.SinkConfig) (Multi, error) {
	var out Multi
	for _, kind := range cfg.Kinds {
		s, err := build(strings.ToLower(strings.TrimSpace(kind)), cfg)
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sink: no sinks configured")
	}
	return out, nil
}

func build(kind string, cfg config.SinkConfig) (Sink, error) {
	switch kind {
	case "csv":
		return NewCSV(cfg.OutputDir), nil
	case "json":
		return NewJSON(cfg.OutputDir), nil
	case "markdown", "md":
		return NewMarkdown(cfg.OutputDir), nil
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("sink: webhook sink needs a webhook URL")
		}
		return NewWebhook(cfg.WebhookURL, cfg.WebhookSecret), nil
	default:
		return nil, fmt.Errorf("sink: unknown kind %q", kind)
	}
}
