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
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/OpenPSG/halolog"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// WriteSineLog writes a waveform log of records deterministic sine records.
// Each record is stamped with the time returned by now. A negative record
// count writes the header only.
func WriteSineLog(w io.Writer, hdr halolog.FileHeader, records int, now func() time.Time) (int, error) {
	lw, err := halolog.Create(w, hdr)
	if err != nil {
		return 0, err
	}

	channels := int(hdr.ChannelCount)
	spr := int(hdr.SamplesPerRecord)

	timestamps := make([]uint32, spr)
	waveform := make([]uint16, channels*spr)
	for rec := 0; rec < records; rec++ {
		for i := range timestamps {
			timestamps[i] = uint32(rec*spr + i)
		}
		for c := 0; c < channels; c++ {
			for i := 0; i < spr; i++ {
				waveform[c*spr+i] = halolog.SineCode(c, i, spr)
			}
		}

		if err := lw.WriteRecord(uint64(now().UnixNano()), timestamps, waveform); err != nil {
			return lw.Records(), err
		}
	}

	return lw.Records(), lw.Close()
}

// SineLog writes the synthetic sine log to path. An empty path writes
// <base>/<today>/intan_fake.log.
func (g *Generator) SineLog(path string, records int) (string, error) {
	if path == "" {
		path = SineLogPath(g.baseDir, g.now())
	}

	written, err := g.writeSineFile(path, records)
	if err != nil {
		return "", err
	}

	g.logger.Info("Wrote synthetic raw log",
		zap.String("path", path),
		zap.Int("records", written),
		zap.String("size", humanize.Bytes(uint64(g.header.FileSize(written)))))

	return path, nil
}

func (g *Generator) writeSineFile(path string, records int) (written int, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create raw log: %w", err)
	}
	defer closeFile(f, "raw log", &err)

	return WriteSineLog(f, g.header, records, g.now)
}
