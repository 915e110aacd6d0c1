package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/use-agent/ecocal/models"
	_ "modernc.org/sqlite"
)

const createEventsTable = `
CREATE TABLE IF NOT EXISTS economic_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_start TEXT NOT NULL,
	batch_end TEXT NOT NULL,
	position INTEGER NOT NULL,
	datetime TEXT NOT NULL,
	currency TEXT NOT NULL,
	importance TEXT NOT NULL,
	event TEXT NOT NULL,
	actual TEXT NOT NULL,
	forecast TEXT NOT NULL,
	previous TEXT NOT NULL,
	gathered_at TIMESTAMP NOT NULL
)`

const createBatchIndex = `
CREATE INDEX IF NOT EXISTS idx_economic_events_batch ON economic_events(batch_start, batch_end)`

const insertEvent = `
INSERT INTO economic_events
	(batch_start, batch_end, position, datetime, currency, importance, event, actual, forecast, previous, gathered_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLite appends every gather to the economic_events table. Rows keep
// their page order in position; runs are not deduplicated.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	for _, stmt := range []string{createEventsTable, createBatchIndex} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create economic_events schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Name() string { return "sqlite" }

// Persist inserts all records in one transaction.
func (s *SQLite) Persist(ctx context.Context, records []models.EventRecord, startDate, endDate string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertEvent)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, r := range records {
		if _, err := stmt.ExecContext(ctx,
			startDate, endDate, i,
			r.Datetime, r.Currency, r.Importance, r.Event, r.Actual, r.Forecast, r.Previous,
			now,
		); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Batch returns the records stored for a date range in page order. When
// the range was gathered more than once, every run's rows are returned.
func (s *SQLite) Batch(ctx context.Context, startDate, endDate string) ([]models.EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT datetime, currency, importance, event, actual, forecast, previous
		FROM economic_events
		WHERE batch_start = ? AND batch_end = ?
		ORDER BY id`, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("query economic_events: %w", err)
	}
	defer rows.Close()

	var out []models.EventRecord
	for rows.Next() {
		var r models.EventRecord
		if err := rows.Scan(&r.Datetime, &r.Currency, &r.Importance, &r.Event, &r.Actual, &r.Forecast, &r.Previous); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
