// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package detection

// Clip converts intervals into start and end events for a window of
// windowMs milliseconds. Each boundary is kept only if it lies in
// [0, windowMs); the start and end of an interval are clipped independently,
// so an interval straddling the window edge yields a single unpaired event.
func Clip(intervals []Interval, windowMs int64) []Event {
	events := make([]Event, 0, 2*len(intervals))
	for _, iv := range intervals {
		if inWindow(iv.StartMs, windowMs) {
			events = append(events, Event{Timestamp: uint32(iv.StartMs), Channel: iv.Channel, Type: TypeStart})
		}
		if inWindow(iv.EndMs, windowMs) {
			events = append(events, Event{Timestamp: uint32(iv.EndMs), Channel: iv.Channel, Type: TypeEnd})
		}
	}
	return events
}

func inWindow(ms, windowMs int64) bool {
	return ms >= 0 && ms < windowMs
}
