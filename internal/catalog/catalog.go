// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package catalog keeps a SQLite manifest of generation runs and the hour
// files they wrote.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/OpenPSG/halolog/internal/generator"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id      TEXT PRIMARY KEY,
    started_at  INTEGER NOT NULL,
    seed        INTEGER NOT NULL,
    mode        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS hour_files (
    run_id            TEXT NOT NULL REFERENCES runs(run_id),
    date              TEXT NOT NULL,
    hour              INTEGER NOT NULL,
    seed              INTEGER NOT NULL,
    raw_path          TEXT NOT NULL,
    detections_path   TEXT NOT NULL,
    records           INTEGER NOT NULL,
    events            INTEGER NOT NULL,
    raw_bytes         INTEGER NOT NULL,
    detections_bytes  INTEGER NOT NULL,
    created_at        INTEGER NOT NULL,
    PRIMARY KEY (run_id, date, hour)
);

CREATE INDEX IF NOT EXISTS idx_hour_files_date ON hour_files(date, hour);
`

// ErrNoRun is returned when hour files are recorded before BeginRun.
var ErrNoRun = errors.New("no run in progress")

// Run is one generator invocation.
type Run struct {
	ID        string
	StartedAt time.Time
	Seed      int64
	Mode      string
}

// HourFile is one generated hour file pair.
type HourFile struct {
	RunID           string
	Date            string
	Hour            int
	Seed            int64
	RawPath         string
	DetectionsPath  string
	Records         int
	Events          int
	RawBytes        int64
	DetectionsBytes int64
	CreatedAt       time.Time
}

// Catalog is the SQLite manifest. It records hour files as a
// generator.Observer.
type Catalog struct {
	db     *sql.DB
	logger *zap.Logger
	runID  string
	now    func() time.Time
}

var _ generator.Observer = (*Catalog)(nil)

// Open opens or creates the catalog database at path.
func Open(path string, logger *zap.Logger) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Catalog{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// BeginRun records a new run and makes it current. It must be called before
// any hour is recorded.
func (c *Catalog) BeginRun(ctx context.Context, seed int64, mode string) (string, error) {
	id := uuid.NewString()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, seed, mode) VALUES (?, ?, ?, ?)`,
		id, c.now().UnixNano(), seed, mode)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	c.runID = id
	c.logger.Info("Cataloging run", zap.String("run_id", id), zap.String("mode", mode))

	return id, nil
}

// HourGenerated records a generated hour under the current run.
func (c *Catalog) HourGenerated(ctx context.Context, res *generator.HourResult) error {
	if c.runID == "" {
		return ErrNoRun
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO hour_files (run_id, date, hour, seed, raw_path, detections_path, records, events, raw_bytes, detections_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.runID, res.Day.Format(generator.DateLayout), res.Hour, res.Seed, res.RawPath, res.DetectionsPath,
		res.Records, len(res.Events), res.RawBytes, res.DetectionsBytes, c.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert hour file: %w", err)
	}

	return nil
}

// Runs lists every run, oldest first.
func (c *Catalog) Runs(ctx context.Context) ([]Run, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT run_id, started_at, seed, mode FROM runs ORDER BY started_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			startedAt int64
		)
		if err := rows.Scan(&r.ID, &startedAt, &r.Seed, &r.Mode); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, startedAt)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// HourFiles lists the hour files of a run ordered by date and hour.
func (c *Catalog) HourFiles(ctx context.Context, runID string) ([]HourFile, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT run_id, date, hour, seed, raw_path, detections_path, records, events, raw_bytes, detections_bytes, created_at
		FROM hour_files WHERE run_id = ? ORDER BY date DESC, hour`, runID)
	if err != nil {
		return nil, fmt.Errorf("query hour files: %w", err)
	}
	defer rows.Close()

	var files []HourFile
	for rows.Next() {
		var (
			f         HourFile
			createdAt int64
		)
		if err := rows.Scan(&f.RunID, &f.Date, &f.Hour, &f.Seed, &f.RawPath, &f.DetectionsPath,
			&f.Records, &f.Events, &f.RawBytes, &f.DetectionsBytes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan hour file: %w", err)
		}
		f.CreatedAt = time.Unix(0, createdAt)
		files = append(files, f)
	}

	return files, rows.Err()
}
