// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package neuralsim synthesizes one channel of extracellular neural signal:
// background noise, a few spiking units and seizures that start at random
// and last a fixed time.
package neuralsim

import (
	"math"
	"math/rand"
)

// Config describes one simulated channel.
type Config struct {
	SampleRateHz float64 // Samples per second
	Units        int     // Number of spiking units near the electrode
	// NoiseMicrovolts is the standard deviation of the background noise.
	NoiseMicrovolts float64

	EnableSeizures bool
	// SeizureProbability is the onset hazard per second while not seizing.
	SeizureProbability float64
	SeizureDurationMs  float64
}

// DefaultConfig matches the 1 kHz, two unit channel of the HALO test bench.
func DefaultConfig() Config {
	return Config{
		SampleRateHz:       1000,
		Units:              2,
		NoiseMicrovolts:    8,
		EnableSeizures:     true,
		SeizureProbability: 0.001,
		SeizureDurationMs:  5000,
	}
}

const (
	seizureRateScale  = 8   // Firing rate multiplier while seizing
	seizureWaveUV     = 150 // Spike-and-wave discharge amplitude
	seizureWaveHz     = 4
	spikeLifetimeMs   = 2.5
	minUnitRateHz     = 2
	unitRateSpreadHz  = 18
	minUnitAmpUV      = 60
	unitAmpSpreadUV   = 140
	minSpikeWidthMs   = 0.15
	spikeWidthSpreadM = 0.15
)

type unit struct {
	amplitude float64 // Trough depth in microvolts
	rateHz    float64 // Baseline firing rate
	widthMs   float64 // Trough width
	sinceMs   float64 // Time since the last spike, negative when idle
}

// Source is one simulated channel. It is not safe for concurrent use.
type Source struct {
	cfg   Config
	rng   *rand.Rand
	dtMs  float64
	tMs   float64
	units []unit

	onsetMs  float64
	hasOnset bool
}

// New creates a channel whose randomness is fully determined by seed.
func New(cfg Config, seed int64) *Source {
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = DefaultConfig().SampleRateHz
	}

	s := &Source{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(seed)),
		dtMs: 1000 / cfg.SampleRateHz,
	}

	s.units = make([]unit, cfg.Units)
	for i := range s.units {
		s.units[i] = unit{
			amplitude: minUnitAmpUV + unitAmpSpreadUV*s.rng.Float64(),
			rateHz:    minUnitRateHz + unitRateSpreadHz*s.rng.Float64(),
			widthMs:   minSpikeWidthMs + spikeWidthSpreadM*s.rng.Float64(),
			sinceMs:   -1,
		}
	}

	return s
}

// NextSample advances simulated time by one sample period and returns the
// electrode voltage in microvolts. A new seizure can only start once a
// sample has been reported outside the previous one.
func (s *Source) NextSample() float64 {
	seizing := s.InSeizure()
	s.tMs += s.dtMs

	if s.cfg.EnableSeizures && !seizing {
		if s.rng.Float64() < s.cfg.SeizureProbability*s.dtMs/1000 {
			s.onsetMs = s.tMs
			s.hasOnset = true
		}
	}

	v := s.rng.NormFloat64() * s.cfg.NoiseMicrovolts

	rateScale := 1.0
	if s.InSeizure() {
		rateScale = seizureRateScale
		phase := 2 * math.Pi * seizureWaveHz * (s.tMs - s.onsetMs) / 1000
		v += seizureWaveUV * math.Sin(phase)
	}

	for i := range s.units {
		u := &s.units[i]
		if s.rng.Float64() < u.rateHz*rateScale*s.dtMs/1000 {
			u.sinceMs = 0
		}
		if u.sinceMs < 0 {
			continue
		}
		v += spike(u.sinceMs, u.amplitude, u.widthMs)
		u.sinceMs += s.dtMs
		if u.sinceMs > spikeLifetimeMs {
			u.sinceMs = -1
		}
	}

	return v
}

// SimTimeMs returns the time of the last sample.
func (s *Source) SimTimeMs() float64 {
	return s.tMs
}

// SeizureOnsetMs returns the onset of the most recent seizure.
func (s *Source) SeizureOnsetMs() (float64, bool) {
	return s.onsetMs, s.hasOnset
}

// SeizureDurationMs returns the fixed seizure duration.
func (s *Source) SeizureDurationMs() float64 {
	return s.cfg.SeizureDurationMs
}

// InSeizure reports whether the last sample fell inside a seizure.
func (s *Source) InSeizure() bool {
	if !s.hasOnset {
		return false
	}
	elapsed := s.tMs - s.onsetMs
	return elapsed >= 0 && elapsed < s.cfg.SeizureDurationMs
}

// spike is a biphasic action potential: a sharp trough followed by a
// shallower, wider repolarization bump.
func spike(tMs, amplitude, widthMs float64) float64 {
	return -amplitude*gauss(tMs, 0.3, widthMs) + 0.35*amplitude*gauss(tMs, 0.9, 2.5*widthMs)
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}
