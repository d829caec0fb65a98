// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package detection

// SeizureState is the read-only view of a simulated channel that the edge
// detector samples once per tick.
type SeizureState interface {
	// SimTimeMs is the current simulated time in milliseconds.
	SimTimeMs() float64
	// SeizureOnsetMs is the onset marker of the most recent seizure, if any.
	SeizureOnsetMs() (float64, bool)
	// SeizureDurationMs is the duration of a seizure once started.
	SeizureDurationMs() float64
}

// Interval is one detected seizure on one channel.
type Interval struct {
	StartMs int64
	EndMs   int64
	Channel uint8
}

// EdgeDetector turns the continuous seizure state of one channel into
// intervals. It fires on the rising edge only; the end of an interval is
// fixed at the moment it starts.
type EdgeDetector struct {
	channel   uint8
	inSeizure bool
	onset     float64 // Onset marker of the interval in progress.
	overlaps  int
}

// NewEdgeDetector creates a detector for the given channel identifier.
func NewEdgeDetector(channel uint8) *EdgeDetector {
	return &EdgeDetector{channel: channel}
}

// Channel returns the channel identifier stamped on emitted intervals.
func (d *EdgeDetector) Channel() uint8 {
	return d.channel
}

// InSeizure reports the state observed at the last call to Observe.
func (d *EdgeDetector) InSeizure() bool {
	return d.inSeizure
}

// Overlaps returns how many times the onset marker moved while a seizure was
// still in progress. Such re-arms are not emitted.
func (d *EdgeDetector) Overlaps() int {
	return d.overlaps
}

// Observe samples the channel state and returns an interval on a
// false to true transition.
func (d *EdgeDetector) Observe(s SeizureState) (Interval, bool) {
	onset, ok := s.SeizureOnsetMs()
	duration := s.SeizureDurationMs()

	inSeizure := false
	if ok {
		elapsed := s.SimTimeMs() - onset
		inSeizure = elapsed >= 0 && elapsed < duration
	}

	wasInSeizure := d.inSeizure
	d.inSeizure = inSeizure

	switch {
	case inSeizure && !wasInSeizure:
		d.onset = onset
		return Interval{
			StartMs: int64(onset),
			EndMs:   int64(onset + duration),
			Channel: d.channel,
		}, true
	case inSeizure && onset != d.onset:
		d.overlaps++
		d.onset = onset
	}

	return Interval{}, false
}

// Tracker runs one EdgeDetector per channel and accumulates intervals in
// discovery order.
type Tracker struct {
	detectors []*EdgeDetector
	intervals []Interval
}

// NewTracker creates a tracker whose channel identifiers are
// base, base+1, ..., base+channels-1.
func NewTracker(channels int, base uint8) *Tracker {
	t := &Tracker{detectors: make([]*EdgeDetector, channels)}
	for i := range t.detectors {
		t.detectors[i] = NewEdgeDetector(base + uint8(i))
	}
	return t
}

// Update observes every channel once. states must be ordered by channel.
func (t *Tracker) Update(states []SeizureState) {
	for i, d := range t.detectors {
		if iv, ok := d.Observe(states[i]); ok {
			t.intervals = append(t.intervals, iv)
		}
	}
}

// Intervals returns every interval detected so far.
func (t *Tracker) Intervals() []Interval {
	return t.intervals
}

// Overlaps returns the total re-arm count across channels.
func (t *Tracker) Overlaps() int {
	var n int
	for _, d := range t.detectors {
		n += d.Overlaps()
	}
	return n
}
