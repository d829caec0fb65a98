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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/OpenPSG/halolog"
	"github.com/OpenPSG/halolog/detection"
	"go.uber.org/zap"
)

// ErrNoSourceFactory is returned when an hour is simulated by a generator
// created without a SourceFactory.
var ErrNoSourceFactory = errors.New("generator has no source factory")

// Options configures a Generator.
type Options struct {
	// BaseDir is the root of the <date>/hour_HH_* tree.
	BaseDir string
	// Header describes the emulated device. Defaults to halolog.DefaultHeader.
	Header       halolog.FileHeader
	SampleRateHz float64
	// Factory creates the simulated channels of an hour job. Only the hour
	// generator needs one.
	Factory SourceFactory
	Logger  *zap.Logger
	// Now stamps the records of the sine log. Defaults to time.Now.
	Now func() time.Time
}

// Generator writes waveform logs and detection event files.
type Generator struct {
	baseDir      string
	header       halolog.FileHeader
	sampleRateHz float64
	factory      SourceFactory
	logger       *zap.Logger
	now          func() time.Time
}

// New creates a generator.
func New(opts Options) *Generator {
	g := &Generator{
		baseDir:      opts.BaseDir,
		header:       opts.Header,
		sampleRateHz: opts.SampleRateHz,
		factory:      opts.Factory,
		logger:       opts.Logger,
		now:          opts.Now,
	}

	if g.header.ChannelCount == 0 || g.header.SamplesPerRecord == 0 {
		g.header = halolog.DefaultHeader()
	}
	if g.sampleRateHz <= 0 {
		g.sampleRateHz = 1000
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.now == nil {
		g.now = time.Now
	}

	return g
}

// BaseDir returns the output root.
func (g *Generator) BaseDir() string {
	return g.baseDir
}

// Header returns the file header written to every waveform log.
func (g *Generator) Header() halolog.FileHeader {
	return g.header
}

func writeEventsFile(path string, events []detection.Event) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create detection file: %w", err)
	}
	defer closeFile(f, "detection file", &err)

	dw := detection.NewWriter(f)
	for _, e := range events {
		if err := dw.WriteEvent(e); err != nil {
			return err
		}
	}

	return dw.Flush()
}

// closeFile closes f, reporting the close error through err unless an
// earlier error is already set.
func closeFile(f *os.File, what string, err *error) {
	if closeErr := f.Close(); closeErr != nil && *err == nil {
		*err = fmt.Errorf("failed to close %s: %w", what, closeErr)
	}
}
