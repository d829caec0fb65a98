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
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenPSG/halolog/internal/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	// 01:00 in UTC+2 is still the previous day in UTC.
	day := time.Date(2024, 3, 10, 1, 0, 0, 0, time.FixedZone("EET", 2*60*60))

	assert.Equal(t, filepath.Join("logs", "2024-03-09"), generator.DayDir("logs", day))
	assert.Equal(t, filepath.Join("logs", "2024-03-09", "hour_06_raw.log"), generator.RawLogPath("logs", day, 6))
	assert.Equal(t, filepath.Join("logs", "2024-03-09", "hour_18_detections.bin"), generator.DetectionsPath("logs", day, 18))
	assert.Equal(t, filepath.Join("logs", "2024-03-09", "intan_fake.log"), generator.SineLogPath("logs", day))
}

func TestDaysBack(t *testing.T) {
	days := generator.DaysBack(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), 3)
	require.Len(t, days, 3)

	assert.Equal(t, "2024-03-01", days[0].Format(generator.DateLayout))
	assert.Equal(t, "2024-02-29", days[1].Format(generator.DateLayout))
	assert.Equal(t, "2024-02-28", days[2].Format(generator.DateLayout))
	assert.Zero(t, days[0].Hour())

	assert.Empty(t, generator.DaysBack(time.Now(), -1))
}

func TestHourJobStart(t *testing.T) {
	job := generator.HourJob{Day: time.Date(2024, 3, 9, 17, 45, 0, 0, time.UTC), Hour: 6}
	assert.Equal(t, time.Date(2024, 3, 9, 6, 0, 0, 0, time.UTC), job.Start())
}
