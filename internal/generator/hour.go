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
	"io"
	"math"
	"os"
	"time"

	"github.com/OpenPSG/halolog"
	"github.com/OpenPSG/halolog/detection"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// HourJob is one simulated hour file pair.
type HourJob struct {
	Day         time.Time
	Hour        int
	DurationSec int
	Seed        int64
}

// Start returns the wall-clock time of the first sample.
func (j HourJob) Start() time.Time {
	return Day(j.Day).Add(time.Duration(j.Hour) * time.Hour)
}

// HourResult describes a generated hour.
type HourResult struct {
	HourJob
	RawPath         string
	DetectionsPath  string
	Records         int
	Intervals       int
	Overlaps        int
	Events          []detection.Event
	RawBytes        int64
	DetectionsBytes int64
}

// GenerateHour simulates one hour job and writes its waveform log and
// detection event file under the base directory. Nothing is written if ctx
// is already done.
func (g *Generator) GenerateHour(ctx context.Context, job HourJob) (*HourResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rawPath := RawLogPath(g.baseDir, job.Day, job.Hour)
	detPath := DetectionsPath(g.baseDir, job.Day, job.Hour)

	res, err := g.writeHour(ctx, job, rawPath, detPath)
	if err != nil {
		return nil, err
	}

	res.RawPath = rawPath
	res.DetectionsPath = detPath

	g.logger.Info("Generated hour",
		zap.String("raw", rawPath),
		zap.String("detections", detPath),
		zap.Int64("seed", job.Seed),
		zap.String("records", humanize.Comma(int64(res.Records))),
		zap.String("raw_size", humanize.Bytes(uint64(res.RawBytes))),
		zap.Int("events", len(res.Events)),
		zap.Int("overlaps", res.Overlaps))

	return res, nil
}

func (g *Generator) writeHour(ctx context.Context, job HourJob, rawPath, detPath string) (res *HourResult, err error) {
	if err := os.MkdirAll(DayDir(g.baseDir, job.Day), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	rawFile, err := os.Create(rawPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create raw log: %w", err)
	}
	defer closeFile(rawFile, "raw log", &err)

	detFile, err := os.Create(detPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create detection file: %w", err)
	}
	defer closeFile(detFile, "detection file", &err)

	return g.Simulate(ctx, job, rawFile, detFile)
}

// Simulate runs one hour job, writing the waveform log to raw while the
// channels advance and the clipped detection events to det at the end.
func (g *Generator) Simulate(ctx context.Context, job HourJob, raw, det io.Writer) (*HourResult, error) {
	if g.factory == nil {
		return nil, ErrNoSourceFactory
	}

	hdr := g.header
	channels := int(hdr.ChannelCount)
	spr := int(hdr.SamplesPerRecord)

	lw, err := halolog.Create(raw, hdr)
	if err != nil {
		return nil, err
	}

	sources := make([]Source, channels)
	states := make([]detection.SeizureState, channels)
	for c := range sources {
		sources[c] = g.factory(c, job.Seed+int64(c))
		states[c] = sources[c]
	}
	tracker := detection.NewTracker(channels, 0)

	records := g.recordCount(job.DurationSec)
	periodNs := int64(math.Round(1e9 / g.sampleRateHz))
	startNs := job.Start().UnixNano()

	g.logger.Debug("Simulating hour",
		zap.Time("start", job.Start()),
		zap.Int64("seed", job.Seed),
		zap.Int("records", records))

	timestamps := make([]uint32, spr)
	waveform := make([]uint16, channels*spr)
	for rec := 0; rec < records; rec++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := 0; i < spr; i++ {
			for c, s := range sources {
				waveform[c*spr+i] = halolog.ADCCode(s.NextSample())
			}
			tracker.Update(states)
			timestamps[i] = uint32(rec*spr + i)
		}

		unixTimeNs := uint64(startNs + int64(rec*spr)*periodNs)
		if err := lw.WriteRecord(unixTimeNs, timestamps, waveform); err != nil {
			return nil, err
		}
	}

	if err := lw.Close(); err != nil {
		return nil, err
	}

	events := detection.Clip(tracker.Intervals(), int64(job.DurationSec)*1000)

	dw := detection.NewWriter(det)
	for _, e := range events {
		if err := dw.WriteEvent(e); err != nil {
			return nil, err
		}
	}
	if err := dw.Flush(); err != nil {
		return nil, err
	}

	return &HourResult{
		HourJob:         job,
		Records:         records,
		Intervals:       len(tracker.Intervals()),
		Overlaps:        tracker.Overlaps(),
		Events:          events,
		RawBytes:        hdr.FileSize(records),
		DetectionsBytes: int64(len(events) * detection.WordSize),
	}, nil
}

// recordCount is the number of whole records covering durationSec.
func (g *Generator) recordCount(durationSec int) int {
	samples := int(math.Round(float64(durationSec) * g.sampleRateHz))
	if samples <= 0 {
		return 0
	}
	spr := int(g.header.SamplesPerRecord)
	return (samples + spr - 1) / spr
}
