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
	"fmt"
	"path/filepath"
	"time"
)

// DateLayout is the format of the per-day directory names.
const DateLayout = "2006-01-02"

// SineLogName is the file name of the synthetic sine log.
const SineLogName = "intan_fake.log"

// DayDir returns <base>/<YYYY-MM-DD> for the UTC date of day.
func DayDir(base string, day time.Time) string {
	return filepath.Join(base, day.UTC().Format(DateLayout))
}

// RawLogPath returns the waveform log path of one hour.
func RawLogPath(base string, day time.Time, hour int) string {
	return filepath.Join(DayDir(base, day), fmt.Sprintf("hour_%02d_raw.log", hour))
}

// DetectionsPath returns the detection event file path of one hour.
func DetectionsPath(base string, day time.Time, hour int) string {
	return filepath.Join(DayDir(base, day), fmt.Sprintf("hour_%02d_detections.bin", hour))
}

// SineLogPath returns the default location of the synthetic sine log.
func SineLogPath(base string, day time.Time) string {
	return filepath.Join(DayDir(base, day), SineLogName)
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBack returns n dates ending at today, most recent first.
func DaysBack(today time.Time, n int) []time.Time {
	today = Day(today)
	var days []time.Time
	for i := 0; i < n; i++ {
		days = append(days, today.AddDate(0, 0, -i))
	}
	return days
}
