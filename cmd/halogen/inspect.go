// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/OpenPSG/halolog"
	"github.com/OpenPSG/halolog/detection"
	"github.com/OpenPSG/halolog/internal/config"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

func cmdInspect(_ context.Context, _ *config.Config, _ *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	limit := fs.Int("limit", 20, "maximum detection events listed per file (negative lists all)")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return errors.New("usage: halogen inspect [-limit N] FILE [FILE ...]")
	}

	for _, path := range fs.Args() {
		if err := inspectFile(os.Stdout, path, *limit); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	return nil
}

// inspectFile prints a summary of a raw waveform log or a detection event
// file, telling them apart by the log magic.
func inspectFile(w io.Writer, path string, limit int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var magic [len(halolog.Magic)]byte
	n, err := io.ReadFull(f, magic[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if n == len(magic) && bytes.Equal(magic[:], halolog.Magic[:]) {
		return inspectRawLog(w, path, f)
	}
	return inspectDetections(w, path, f, limit)
}

func inspectRawLog(w io.Writer, path string, r io.ReadSeeker) error {
	lr, err := halolog.Open(r)
	if err != nil {
		return err
	}

	hdr := lr.Header()
	fmt.Fprintf(w, "%s: raw waveform log v%d\n", path, hdr.Version)
	fmt.Fprintf(w, "  channels=%d samples_per_record=%d sample_bits=%d timestamp_bits=%d\n",
		hdr.ChannelCount, hdr.SamplesPerRecord, hdr.SampleBits, hdr.TimestampBits)
	fmt.Fprintf(w, "  records=%s size=%s\n",
		humanize.Comma(int64(lr.Records())), humanize.Bytes(uint64(hdr.FileSize(lr.Records()))))

	if lr.Records() == 0 {
		return nil
	}

	first, err := lr.Record(0)
	if err != nil {
		return err
	}
	last, err := lr.Record(lr.Records() - 1)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "  first: seq=%d time=%s ticks=%d\n",
		first.SequenceIndex, formatNs(first.UnixTimeNs), first.Timestamps[0])
	fmt.Fprintf(w, "  last:  seq=%d time=%s ticks=%d\n",
		last.SequenceIndex, formatNs(last.UnixTimeNs), last.Timestamps[len(last.Timestamps)-1])

	return nil
}

func inspectDetections(w io.Writer, path string, r io.Reader, limit int) error {
	events, err := detection.ReadAll(r)
	if err != nil {
		return err
	}

	var starts, ends int
	for _, e := range events {
		switch e.Type {
		case detection.TypeStart:
			starts++
		case detection.TypeEnd:
			ends++
		}
	}

	fmt.Fprintf(w, "%s: %d detection events (%d start, %d end)\n", path, len(events), starts, ends)
	for i, e := range events {
		if limit >= 0 && i >= limit {
			fmt.Fprintf(w, "  ... %d more\n", len(events)-i)
			break
		}
		fmt.Fprintf(w, "  %s\n", e)
	}

	return nil
}

func formatNs(ns uint64) string {
	return time.Unix(0, int64(ns)).UTC().Format(time.RFC3339Nano)
}
