// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package generator produces HALO waveform logs and detection event files
// from simulated channels.
package generator

import "github.com/OpenPSG/halolog/detection"

// Source is one simulated channel.
type Source interface {
	detection.SeizureState
	// NextSample advances the channel by one sample period and returns the
	// voltage in microvolts.
	NextSample() float64
}

// SourceFactory creates the source for a channel from its seed.
type SourceFactory func(channel int, seed int64) Source
