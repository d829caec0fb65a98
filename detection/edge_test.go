// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package detection_test

import (
	"testing"

	"github.com/OpenPSG/halolog/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedState replays onsets at fixed simulated times.
type scriptedState struct {
	now      float64
	onset    float64
	hasOnset bool
	duration float64
}

func (s *scriptedState) SimTimeMs() float64 { return s.now }

func (s *scriptedState) SeizureOnsetMs() (float64, bool) { return s.onset, s.hasOnset }

func (s *scriptedState) SeizureDurationMs() float64 { return s.duration }

func (s *scriptedState) arm(onset float64) {
	s.onset = onset
	s.hasOnset = true
}

func TestEdgeDetectorRisingEdgeOnly(t *testing.T) {
	s := &scriptedState{duration: 5}
	d := detection.NewEdgeDetector(4)

	var intervals []detection.Interval
	for ms := 1; ms <= 30; ms++ {
		s.now = float64(ms)
		if ms == 10 {
			s.arm(10)
		}
		if iv, ok := d.Observe(s); ok {
			intervals = append(intervals, iv)
		}
	}

	require.Len(t, intervals, 1)
	assert.Equal(t, detection.Interval{StartMs: 10, EndMs: 15, Channel: 4}, intervals[0])
	assert.False(t, d.InSeizure())
}

func TestEdgeDetectorStateWindow(t *testing.T) {
	s := &scriptedState{duration: 3}
	s.arm(5)
	d := detection.NewEdgeDetector(0)

	var states []bool
	for ms := 4; ms <= 9; ms++ {
		s.now = float64(ms)
		d.Observe(s)
		states = append(states, d.InSeizure())
	}

	// In seizure for 0 <= now-onset < duration only.
	assert.Equal(t, []bool{false, true, true, true, false, false}, states)
}

func TestEdgeDetectorTruncatesFractionalBounds(t *testing.T) {
	s := &scriptedState{now: 12.75, duration: 5000.5}
	s.arm(12.75)
	d := detection.NewEdgeDetector(2)

	iv, ok := d.Observe(s)
	require.True(t, ok)
	assert.Equal(t, int64(12), iv.StartMs)
	assert.Equal(t, int64(5013), iv.EndMs)
}

func TestEdgeDetectorRearmsAfterFalse(t *testing.T) {
	s := &scriptedState{duration: 2}
	d := detection.NewEdgeDetector(9)

	var starts []int64
	for ms := 1; ms <= 20; ms++ {
		s.now = float64(ms)
		if ms == 3 || ms == 10 {
			s.arm(float64(ms))
		}
		if iv, ok := d.Observe(s); ok {
			starts = append(starts, iv.StartMs)
		}
	}

	assert.Equal(t, []int64{3, 10}, starts)
	assert.Equal(t, 0, d.Overlaps())
}

func TestEdgeDetectorOverlappingRearm(t *testing.T) {
	s := &scriptedState{duration: 10}
	d := detection.NewEdgeDetector(1)

	var emitted int
	for ms := 1; ms <= 40; ms++ {
		s.now = float64(ms)
		switch ms {
		case 5:
			s.arm(5)
		case 8:
			// New onset before the previous seizure is over.
			s.arm(8)
		}
		if _, ok := d.Observe(s); ok {
			emitted++
		}
	}

	assert.Equal(t, 1, emitted)
	assert.Equal(t, 1, d.Overlaps())
}

func TestTrackerNeverDoubleStarts(t *testing.T) {
	states := []*scriptedState{
		{duration: 4},
		{duration: 7},
		{duration: 1},
	}
	views := make([]detection.SeizureState, len(states))
	for i, s := range states {
		views[i] = s
	}

	tr := detection.NewTracker(len(states), 0)

	onsets := map[int][]int{
		0: {2, 20, 40},
		1: {5, 6, 30},
		2: {1, 3, 5, 50},
	}

	inSeizure := make([]bool, len(states))
	starts := make([]int, len(states))
	for ms := 1; ms <= 60; ms++ {
		for ch, s := range states {
			s.now = float64(ms)
			for _, o := range onsets[ch] {
				if o == ms {
					s.arm(float64(ms))
				}
			}
		}

		before := len(tr.Intervals())
		tr.Update(views)
		for _, iv := range tr.Intervals()[before:] {
			require.False(t, inSeizure[iv.Channel], "double start on channel %d", iv.Channel)
			starts[iv.Channel]++
		}
		for ch, s := range states {
			elapsed := s.now - s.onset
			inSeizure[ch] = s.hasOnset && elapsed >= 0 && elapsed < s.duration
		}
	}

	assert.Equal(t, []int{3, 2, 4}, starts)
	assert.Equal(t, 1, tr.Overlaps())

	// Discovery order is chronological.
	var last int64 = -1
	for _, iv := range tr.Intervals() {
		assert.GreaterOrEqual(t, iv.StartMs, last)
		last = iv.StartMs
	}
}

func TestTrackerChannelBase(t *testing.T) {
	s := &scriptedState{now: 1, duration: 5}
	s.arm(1)

	tr := detection.NewTracker(2, 1)
	tr.Update([]detection.SeizureState{&scriptedState{now: 1}, s})

	require.Len(t, tr.Intervals(), 1)
	assert.Equal(t, uint8(2), tr.Intervals()[0].Channel)
}
