// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package halolog

import "math"

const (
	// SineMaxCode is the largest code produced by SineCode (12-bit range).
	SineMaxCode = 4095
	// ADCMaxCode is the largest code produced by ADCCode.
	ADCMaxCode = math.MaxUint16

	// ADCMicrovoltsPerBit is the gain of the emulated Intan ADC.
	ADCMicrovoltsPerBit = 0.195
	// ADCOffset is the code of a 0 uV input.
	ADCOffset = 32768
)

// SineCode returns the deterministic smoke-test code for a channel and a
// sample index within a record of samplesPerRecord samples.
func SineCode(channel, sample, samplesPerRecord int) uint16 {
	s := math.Sin(2 * math.Pi * float64(sample) / float64(samplesPerRecord))
	code := 1024 + int64(math.Round(200*s)) + 4*int64(channel)
	return clampCode(code, SineMaxCode)
}

// ADCCode converts a voltage in microvolts into a 16-bit ADC code.
// Inputs outside the converter range saturate.
func ADCCode(microvolts float64) uint16 {
	if math.IsNaN(microvolts) {
		return ADCOffset
	}
	scaled := math.Round(microvolts / ADCMicrovoltsPerBit)
	// Keep the float within int64 range before converting.
	scaled = math.Max(-ADCOffset-1, math.Min(ADCMaxCode, scaled))
	return clampCode(int64(scaled)+ADCOffset, ADCMaxCode)
}

// ADCMicrovolts is the inverse of ADCCode, up to quantization.
func ADCMicrovolts(code uint16) float64 {
	return float64(int(code)-ADCOffset) * ADCMicrovoltsPerBit
}

func clampCode(code, max int64) uint16 {
	if code < 0 {
		return 0
	}
	if code > max {
		return uint16(max)
	}
	return uint16(code)
}
