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
	"math/rand"
	"sort"

	"github.com/OpenPSG/halolog/detection"
	"go.uber.org/zap"
)

const (
	minPairDurationMs  = 1200
	pairDurationSpread = 800
	minPairGapMs       = 300
	pairGapSpread      = 600
	maxPairChannel     = 32
)

// PairOptions configures fake detection pairs.
type PairOptions struct {
	Pairs int
	// Channel forces every pair onto one channel when in [1, 32].
	Channel int
	// DurationMs forces the seizure duration when positive.
	DurationMs int
}

// PairFile describes a written fake detection file.
type PairFile struct {
	Path   string
	Events []detection.Event
	// Wraps counts events on channel 32, which encodes as 0.
	Wraps int
}

// GeneratePairs produces back to back start/end pairs beginning at t=0.
// Channels are drawn from 1..32 and may wrap in the 5-bit channel field; the
// number of wrapped events is returned alongside.
func GeneratePairs(rng *rand.Rand, opts PairOptions) ([]detection.Event, int) {
	var (
		events []detection.Event
		wraps  int
		ts     int64
	)

	for p := 0; p < opts.Pairs; p++ {
		channel := opts.Channel
		if channel < 1 || channel > maxPairChannel {
			channel = 1 + rng.Intn(maxPairChannel)
		}

		duration := opts.DurationMs
		if duration <= 0 {
			duration = minPairDurationMs + rng.Intn(pairDurationSpread+1)
		}

		events = append(events, detection.Event{Timestamp: uint32(ts), Channel: uint8(channel), Type: detection.TypeStart})
		ts += int64(duration)
		events = append(events, detection.Event{Timestamp: uint32(ts), Channel: uint8(channel), Type: detection.TypeEnd})
		ts += int64(minPairGapMs + rng.Intn(pairGapSpread+1))

		if detection.ChannelWraps(channel) {
			wraps += 2
		}
	}

	return events, wraps
}

// PairsFile writes a single fake detection file seeded with seed.
func (g *Generator) PairsFile(path string, seed int64, opts PairOptions) (*PairFile, error) {
	rng := rand.New(rand.NewSource(seed))
	return g.writePairs(path, rng, opts)
}

// PairsDays writes filesPerDay fake detection files for each of the last
// days days. The hours of a day are distinct and drawn at random.
func (g *Generator) PairsDays(days, filesPerDay int, seed int64, opts PairOptions) ([]*PairFile, error) {
	rng := rand.New(rand.NewSource(seed))

	var files []*PairFile
	for _, day := range DaysBack(g.now(), days) {
		for _, hour := range pickHours(rng, filesPerDay) {
			pf, err := g.writePairs(DetectionsPath(g.baseDir, day, hour), rng, opts)
			if err != nil {
				return files, err
			}
			files = append(files, pf)
		}
	}

	return files, nil
}

// pickHours returns n distinct sorted hours of the day, n clamped to [1, 24].
func pickHours(rng *rand.Rand, n int) []int {
	n = max(1, min(n, 24))
	hours := rng.Perm(24)[:n]
	sort.Ints(hours)
	return hours
}

func (g *Generator) writePairs(path string, rng *rand.Rand, opts PairOptions) (*PairFile, error) {
	events, wraps := GeneratePairs(rng, opts)
	if err := writeEventsFile(path, events); err != nil {
		return nil, err
	}

	g.logger.Info("Wrote detection events", zap.String("path", path), zap.Int("events", len(events)))
	if wraps > 0 {
		g.logger.Warn("Channel 32 does not fit the 5-bit channel field and was written as 0",
			zap.String("path", path), zap.Int("events", wraps))
	}

	return &PairFile{Path: path, Events: events, Wraps: wraps}, nil
}
