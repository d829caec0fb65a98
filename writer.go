// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package halolog

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Writer writes HALO raw waveform logs.
type Writer struct {
	w        *bufio.Writer
	hdr      FileHeader
	buf      []byte // Scratch space for one encoded record.
	sequence uint32 // Sequence index of the next record.
}

// Create creates a new log writer and writes the file header to w.
func Create(w io.Writer, hdr FileHeader) (*Writer, error) {
	if hdr.ChannelCount == 0 || hdr.SamplesPerRecord == 0 {
		return nil, fmt.Errorf("invalid header: %d channels, %d samples per record", hdr.ChannelCount, hdr.SamplesPerRecord)
	}

	lw := &Writer{
		w:   bufio.NewWriter(w),
		hdr: hdr,
		buf: make([]byte, hdr.RecordSize()),
	}

	if err := lw.writeHeader(); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	return lw, nil
}

// Header returns the header the log was created with.
func (lw *Writer) Header() FileHeader {
	return lw.hdr
}

// Records returns the number of records written so far.
func (lw *Writer) Records() int {
	return int(lw.sequence)
}

// WriteRecord appends one record. timestamps must hold one tick per sample and
// waveform one code per channel per sample, channel-major.
func (lw *Writer) WriteRecord(unixTimeNs uint64, timestamps []uint32, waveform []uint16) error {
	spr := int(lw.hdr.SamplesPerRecord)
	if len(timestamps) != spr {
		return fmt.Errorf("expected %d timestamps, got %d", spr, len(timestamps))
	}
	if want := int(lw.hdr.ChannelCount) * spr; len(waveform) != want {
		return fmt.Errorf("expected %d waveform samples, got %d", want, len(waveform))
	}

	b := lw.buf
	binary.LittleEndian.PutUint64(b[0:8], unixTimeNs)
	binary.LittleEndian.PutUint32(b[8:12], lw.sequence)
	binary.LittleEndian.PutUint32(b[12:16], uint32(lw.hdr.PayloadBytes()))

	off := RecordHeaderSize
	for _, ts := range timestamps {
		binary.LittleEndian.PutUint32(b[off:], ts)
		off += 4
	}
	for _, sample := range waveform {
		binary.LittleEndian.PutUint16(b[off:], sample)
		off += 2
	}

	if _, err := lw.w.Write(b); err != nil {
		return fmt.Errorf("error writing record %d: %w", lw.sequence, err)
	}

	lw.sequence++
	return nil
}

// Close flushes any buffered records. It does not close the underlying writer.
func (lw *Writer) Close() error {
	return lw.w.Flush()
}

func (lw *Writer) writeHeader() error {
	b := make([]byte, HeaderSize)
	copy(b[0:8], lw.hdr.Magic[:])
	binary.LittleEndian.PutUint16(b[8:10], lw.hdr.Version)
	binary.LittleEndian.PutUint16(b[10:12], lw.hdr.Reserved)
	binary.LittleEndian.PutUint32(b[12:16], lw.hdr.ChannelCount)
	binary.LittleEndian.PutUint32(b[16:20], lw.hdr.SamplesPerRecord)
	binary.LittleEndian.PutUint32(b[20:24], lw.hdr.SampleBits)
	binary.LittleEndian.PutUint32(b[24:28], lw.hdr.TimestampBits)

	if _, err := lw.w.Write(b); err != nil {
		return err
	}

	// Make the header visible even if no record is ever written.
	return lw.w.Flush()
}
