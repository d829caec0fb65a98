// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Observer is notified after each hour job completes. With more than one
// worker, observers are called concurrently.
type Observer interface {
	HourGenerated(ctx context.Context, res *HourResult) error
}

// RunOptions selects the hour jobs of a run.
type RunOptions struct {
	// Today is the most recent day generated. Defaults to the current date.
	Today       time.Time
	Days        int
	Hours       []int
	DurationSec int
	Seed        int64
	Workers     int
}

// Jobs expands days back from today times hours into jobs. The seed of a job
// is seed + day*100 + hour, where day counts back from today.
func Jobs(opts RunOptions) []HourJob {
	var jobs []HourJob
	for dayIdx, day := range DaysBack(opts.Today, opts.Days) {
		for _, hour := range opts.Hours {
			jobs = append(jobs, HourJob{
				Day:         day,
				Hour:        hour,
				DurationSec: opts.DurationSec,
				Seed:        opts.Seed + int64(dayIdx*100+hour),
			})
		}
	}
	return jobs
}

// Runner generates the hour jobs of a run and fans results out to observers.
type Runner struct {
	gen       *Generator
	logger    *zap.Logger
	observers []Observer
}

// NewRunner creates a runner.
func NewRunner(gen *Generator, logger *zap.Logger, observers ...Observer) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{gen: gen, logger: logger, observers: observers}
}

// Run generates every job. Results are returned in job order. The first
// failure cancels the jobs that have not started yet.
func (r *Runner) Run(ctx context.Context, opts RunOptions) ([]*HourResult, error) {
	if opts.Today.IsZero() {
		opts.Today = r.gen.now()
	}
	workers := max(opts.Workers, 1)

	jobs := Jobs(opts)
	r.logger.Info("Starting run",
		zap.Int("jobs", len(jobs)),
		zap.Int64("seed", opts.Seed),
		zap.Int("workers", workers))

	results := make([]*HourResult, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			res, err := r.gen.GenerateHour(ctx, job)
			if err != nil {
				return fmt.Errorf("hour %02d of %s: %w", job.Hour, job.Day.Format(DateLayout), err)
			}
			for _, obs := range r.observers {
				if err := obs.HourGenerated(ctx, res); err != nil {
					return err
				}
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int64
	for _, res := range results {
		total += res.RawBytes + res.DetectionsBytes
	}
	r.logger.Info("Run complete",
		zap.Int("files", 2*len(results)),
		zap.String("size", humanize.Bytes(uint64(total))))

	return results, nil
}
