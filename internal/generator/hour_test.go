// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package generator_test

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/OpenPSG/halolog"
	"github.com/OpenPSG/halolog/detection"
	"github.com/OpenPSG/halolog/internal/generator"
	"github.com/OpenPSG/halolog/internal/neuralsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepSource is a flat channel with at most one scripted seizure.
type stepSource struct {
	t        float64
	onset    float64
	duration float64
	hasOnset bool
	value    float64
}

func (s *stepSource) NextSample() float64 {
	s.t++
	if s.onset > 0 && s.t == s.onset {
		s.hasOnset = true
	}
	return s.value
}

func (s *stepSource) SimTimeMs() float64 { return s.t }
func (s *stepSource) SeizureOnsetMs() (float64, bool) { return s.onset, s.hasOnset }
func (s *stepSource) SeizureDurationMs() float64 { return s.duration }

func scriptedFactory(seeds map[int]int64) generator.SourceFactory {
	return func(channel int, seed int64) generator.Source {
		if seeds != nil {
			seeds[channel] = seed
		}
		switch channel {
		case 1:
			return &stepSource{onset: 100, duration: 200}
		case 3:
			return &stepSource{onset: 950, duration: 250}
		default:
			return &stepSource{value: float64(channel) * 10}
		}
	}
}

func simFactory(channel int, seed int64) generator.Source {
	return neuralsim.New(neuralsim.DefaultConfig(), seed)
}

var testDay = time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

func TestSimulate(t *testing.T) {
	seeds := map[int]int64{}
	gen := generator.New(generator.Options{Factory: scriptedFactory(seeds)})

	job := generator.HourJob{Day: testDay, Hour: 6, DurationSec: 1, Seed: 500}

	var raw, det bytes.Buffer
	res, err := gen.Simulate(context.Background(), job, &raw, &det)
	require.NoError(t, err)

	hdr := halolog.DefaultHeader()

	// ceil(1000 / 128) whole records.
	assert.Equal(t, 8, res.Records)
	assert.Equal(t, hdr.FileSize(8), int64(raw.Len()))
	assert.Equal(t, int64(raw.Len()), res.RawBytes)

	assert.Len(t, seeds, 32)
	assert.Equal(t, int64(500), seeds[0])
	assert.Equal(t, int64(531), seeds[31])

	// Channel 3 runs past the one second window so only its start survives.
	assert.Equal(t, []detection.Event{
		{Timestamp: 100, Channel: 1, Type: detection.TypeStart},
		{Timestamp: 300, Channel: 1, Type: detection.TypeEnd},
		{Timestamp: 950, Channel: 3, Type: detection.TypeStart},
	}, res.Events)
	assert.Equal(t, 2, res.Intervals)
	assert.Zero(t, res.Overlaps)

	assert.Equal(t, 3*detection.WordSize, det.Len())
	assert.Equal(t, int64(det.Len()), res.DetectionsBytes)

	events, err := detection.ReadAll(bytes.NewReader(det.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, res.Events, events)

	lr, err := halolog.Open(bytes.NewReader(raw.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 8, lr.Records())

	start := uint64(job.Start().UnixNano())
	for i := 0; i < lr.Records(); i++ {
		rec, err := lr.Record(i)
		require.NoError(t, err)

		assert.Equal(t, uint32(i), rec.SequenceIndex)
		assert.Equal(t, start+uint64(i)*128*uint64(time.Millisecond), rec.UnixTimeNs)
		assert.Equal(t, uint32(i*128), rec.Timestamps[0])
		assert.Equal(t, uint32(i*128+127), rec.Timestamps[127])
	}

	rec, err := lr.Record(0)
	require.NoError(t, err)
	assert.Equal(t, halolog.ADCCode(0), rec.Sample(0, 0))
	assert.Equal(t, halolog.ADCCode(50), rec.Sample(5, 17))
}

func TestSimulateZeroDuration(t *testing.T) {
	gen := generator.New(generator.Options{Factory: scriptedFactory(nil)})

	var raw, det bytes.Buffer
	res, err := gen.Simulate(context.Background(), generator.HourJob{Day: testDay}, &raw, &det)
	require.NoError(t, err)

	assert.Zero(t, res.Records)
	assert.Equal(t, halolog.HeaderSize, raw.Len())
	assert.Zero(t, det.Len())
}

func TestSimulateDeterministic(t *testing.T) {
	gen := generator.New(generator.Options{Factory: simFactory})
	job := generator.HourJob{Day: testDay, Hour: 12, DurationSec: 2, Seed: 123}

	var rawA, detA, rawB, detB bytes.Buffer
	_, err := gen.Simulate(context.Background(), job, &rawA, &detA)
	require.NoError(t, err)
	_, err = gen.Simulate(context.Background(), job, &rawB, &detB)
	require.NoError(t, err)

	assert.Equal(t, rawA.Bytes(), rawB.Bytes())
	assert.Equal(t, detA.Bytes(), detB.Bytes())

	var rawC, detC bytes.Buffer
	job.Seed++
	_, err = gen.Simulate(context.Background(), job, &rawC, &detC)
	require.NoError(t, err)
	assert.NotEqual(t, rawA.Bytes(), rawC.Bytes())
}

func TestSimulateWithSeizures(t *testing.T) {
	factory := func(channel int, seed int64) generator.Source {
		cfg := neuralsim.DefaultConfig()
		cfg.SeizureProbability = 2 // per second
		cfg.SeizureDurationMs = 300
		return neuralsim.New(cfg, seed)
	}
	gen := generator.New(generator.Options{Factory: factory})

	var raw, det bytes.Buffer
	res, err := gen.Simulate(context.Background(),
		generator.HourJob{Day: testDay, DurationSec: 5, Seed: 9}, &raw, &det)
	require.NoError(t, err)
	require.NotEmpty(t, res.Events)

	// Per channel, starts and ends alternate and stay inside the window.
	open := map[uint8]bool{}
	for _, e := range res.Events {
		assert.Less(t, e.Timestamp, uint32(5000))
		assert.Less(t, e.Channel, uint8(32))
		switch e.Type {
		case detection.TypeStart:
			assert.False(t, open[e.Channel], "double start on channel %d", e.Channel)
			open[e.Channel] = true
		case detection.TypeEnd:
			open[e.Channel] = false
		default:
			t.Fatalf("unexpected event type %v", e.Type)
		}
	}
}

func TestSimulateCancelled(t *testing.T) {
	gen := generator.New(generator.Options{Factory: scriptedFactory(nil)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var raw, det bytes.Buffer
	_, err := gen.Simulate(ctx, generator.HourJob{Day: testDay, DurationSec: 1}, &raw, &det)
	require.ErrorIs(t, err, context.Canceled)
}

func TestGenerateHour(t *testing.T) {
	base := t.TempDir()
	gen := generator.New(generator.Options{BaseDir: base, Factory: scriptedFactory(nil)})

	res, err := gen.GenerateHour(context.Background(),
		generator.HourJob{Day: testDay, Hour: 18, DurationSec: 1, Seed: 1})
	require.NoError(t, err)

	assert.Equal(t, generator.RawLogPath(base, testDay, 18), res.RawPath)
	assert.Equal(t, generator.DetectionsPath(base, testDay, 18), res.DetectionsPath)

	info, err := os.Stat(res.RawPath)
	require.NoError(t, err)
	assert.Equal(t, res.RawBytes, info.Size())

	info, err = os.Stat(res.DetectionsPath)
	require.NoError(t, err)
	assert.Equal(t, res.DetectionsBytes, info.Size())
	assert.Zero(t, info.Size()%detection.WordSize)
}

func TestSimulateBackToBackSeizures(t *testing.T) {
	factory := func(channel int, seed int64) generator.Source {
		cfg := neuralsim.DefaultConfig()
		// Every channel starts a new seizure as soon as it is allowed to.
		cfg.SeizureProbability = 1e6
		cfg.SeizureDurationMs = 100
		return neuralsim.New(cfg, seed)
	}
	gen := generator.New(generator.Options{Factory: factory})

	var raw, det bytes.Buffer
	res, err := gen.Simulate(context.Background(),
		generator.HourJob{Day: testDay, DurationSec: 1, Seed: 3}, &raw, &det)
	require.NoError(t, err)

	// Onsets at 1, 102, ..., 1011 over 1024 simulated samples.
	assert.Zero(t, res.Overlaps)
	assert.Equal(t, 32*11, res.Intervals)

	// Per channel, ten starts (onset < 1000) and nine ends (onset+100 < 1000).
	assert.Len(t, res.Events, 32*19)

	starts := map[uint8][]uint32{}
	for _, e := range res.Events {
		if e.Type == detection.TypeStart {
			starts[e.Channel] = append(starts[e.Channel], e.Timestamp)
		}
	}
	assert.Equal(t, []uint32{1, 102, 203, 304, 405, 506, 607, 708, 809, 910}, starts[0])
}

func TestSimulateWithoutFactory(t *testing.T) {
	gen := generator.New(generator.Options{})

	var raw, det bytes.Buffer
	_, err := gen.Simulate(context.Background(), generator.HourJob{Day: testDay, DurationSec: 1}, &raw, &det)
	require.ErrorIs(t, err, generator.ErrNoSourceFactory)
}

func TestGenerateHourCancelledWritesNothing(t *testing.T) {
	base := t.TempDir()
	gen := generator.New(generator.Options{BaseDir: base, Factory: scriptedFactory(nil)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.GenerateHour(ctx, generator.HourJob{Day: testDay, Hour: 3, DurationSec: 1})
	require.ErrorIs(t, err, context.Canceled)

	assert.NoDirExists(t, generator.DayDir(base, testDay))
	assert.NoFileExists(t, generator.RawLogPath(base, testDay, 3))
	assert.NoFileExists(t, generator.DetectionsPath(base, testDay, 3))
}
