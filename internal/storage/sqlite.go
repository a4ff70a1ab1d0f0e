// Package storage persists computed SWE series to a SQLite database so runs
// can be compared and re-exported later.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/joaschauer/deltasnow/pkg/deltasnow"
)

// Client holds the connection to the run database
type Client struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Run describes one stored computation
type Run struct {
	ID        string
	Station   string
	CreatedAt time.Time
	HSUnit    string
	SWEUnit   string
	Samples   int
}

// Sample is one stored observation/result pair. HS and SWE are NaN where the
// stored value was missing.
type Sample struct {
	Time time.Time
	HS   float64
	SWE  float64
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	station TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	hs_unit TEXT NOT NULL,
	swe_unit TEXT NOT NULL,
	samples INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS swe_series (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	time TIMESTAMP NOT NULL,
	hs REAL,
	swe REAL
);
CREATE INDEX IF NOT EXISTS swe_series_run_idx ON swe_series(run_id, time);
`

// NewClient opens (and if necessary creates) the run database
func NewClient(path string, logger *zap.SugaredLogger) (*Client, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Client{db: db, logger: logger}, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// SaveRun stores one computation atomically and returns the new run ID.
// readings and results must be aligned, as returned by the model.
func (c *Client) SaveRun(ctx context.Context, station string, hsUnit, sweUnit string, readings []deltasnow.Reading, results []deltasnow.Result) (string, error) {
	if len(readings) != len(results) {
		return "", fmt.Errorf("readings and results length mismatch: %d vs %d", len(readings), len(results))
	}

	id := uuid.New().String()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, station, created_at, hs_unit, swe_unit, samples)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, station, time.Now().UTC(), hsUnit, sweUnit, len(results),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO swe_series (run_id, time, hs, swe) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		_, err = stmt.ExecContext(ctx, id, r.Time.UTC(), nullable(readings[i].Depth), nullable(r.SWE))
		if err != nil {
			return "", fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	if c.logger != nil {
		c.logger.Debugf("Stored run %s with %d samples for %s", id, len(results), station)
	}
	return id, nil
}

// ListRuns returns all stored runs, newest first
func (c *Client) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, station, created_at, hs_unit, swe_unit, samples
		 FROM runs ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Station, &r.CreatedAt, &r.HSUnit, &r.SWEUnit, &r.Samples); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadRun returns one stored run together with its samples in time order
func (c *Client) LoadRun(ctx context.Context, id string) (Run, []Sample, error) {
	var run Run
	err := c.db.QueryRowContext(ctx,
		`SELECT id, station, created_at, hs_unit, swe_unit, samples
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Station, &run.CreatedAt, &run.HSUnit, &run.SWEUnit, &run.Samples)
	if err == sql.ErrNoRows {
		return Run{}, nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("failed to load run: %w", err)
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT time, hs, swe FROM swe_series WHERE run_id = ? ORDER BY time`, id,
	)
	if err != nil {
		return Run{}, nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var (
			s       Sample
			hs, swe sql.NullFloat64
		)
		if err := rows.Scan(&s.Time, &hs, &swe); err != nil {
			return Run{}, nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		s.HS = fromNullable(hs)
		s.SWE = fromNullable(swe)
		samples = append(samples, s)
	}
	return run, samples, rows.Err()
}

// nullable maps NaN to SQL NULL so missing values survive a round trip
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
