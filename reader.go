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
	"encoding/binary"
	"fmt"
	"io"
)

// Reader reads HALO raw waveform logs.
type Reader struct {
	r       io.ReadSeeker
	hdr     FileHeader
	records int
}

// Open parses the file header and sizes the log.
func Open(r io.ReadSeeker) (*Reader, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking to header: %w", err)
	}

	b := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	var hdr FileHeader
	copy(hdr.Magic[:], b[0:8])
	if hdr.Magic != Magic {
		return nil, ErrBadMagic
	}
	hdr.Version = binary.LittleEndian.Uint16(b[8:10])
	if hdr.Version != Version1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr.Version)
	}
	hdr.Reserved = binary.LittleEndian.Uint16(b[10:12])
	hdr.ChannelCount = binary.LittleEndian.Uint32(b[12:16])
	hdr.SamplesPerRecord = binary.LittleEndian.Uint32(b[16:20])
	hdr.SampleBits = binary.LittleEndian.Uint32(b[20:24])
	hdr.TimestampBits = binary.LittleEndian.Uint32(b[24:28])

	if hdr.ChannelCount == 0 || hdr.SamplesPerRecord == 0 {
		return nil, fmt.Errorf("invalid header: %d channels, %d samples per record", hdr.ChannelCount, hdr.SamplesPerRecord)
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("error seeking to end: %w", err)
	}

	body := size - HeaderSize
	recordSize := int64(hdr.RecordSize())
	if body%recordSize != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrTruncatedRecord, body%recordSize)
	}

	return &Reader{
		r:       r,
		hdr:     hdr,
		records: int(body / recordSize),
	}, nil
}

// Header returns the parsed file header.
func (lr *Reader) Header() FileHeader {
	return lr.hdr
}

// Records returns the number of complete records in the log.
func (lr *Reader) Records() int {
	return lr.records
}

// Record reads and decodes the record at the given index.
func (lr *Reader) Record(index int) (*Record, error) {
	if index < 0 || index >= lr.records {
		return nil, fmt.Errorf("record index out of range")
	}

	pos := int64(HeaderSize) + int64(index)*int64(lr.hdr.RecordSize())
	if _, err := lr.r.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking to record %d: %w", index, err)
	}

	b := make([]byte, lr.hdr.RecordSize())
	if _, err := io.ReadFull(lr.r, b); err != nil {
		return nil, fmt.Errorf("error reading record %d: %w", index, err)
	}

	spr := int(lr.hdr.SamplesPerRecord)
	rec := &Record{
		RecordHeader: RecordHeader{
			UnixTimeNs:    binary.LittleEndian.Uint64(b[0:8]),
			SequenceIndex: binary.LittleEndian.Uint32(b[8:12]),
			PayloadBytes:  binary.LittleEndian.Uint32(b[12:16]),
		},
		Timestamps: make([]uint32, spr),
		Waveform:   make([]uint16, int(lr.hdr.ChannelCount)*spr),
	}

	off := RecordHeaderSize
	for i := range rec.Timestamps {
		rec.Timestamps[i] = binary.LittleEndian.Uint32(b[off:])
		off += 4
	}
	for i := range rec.Waveform {
		rec.Waveform[i] = binary.LittleEndian.Uint16(b[off:])
		off += 2
	}

	return rec, nil
}

// ChannelReader reads the continuous sample codes of one channel.
type ChannelReader struct {
	r             io.ReadSeeker
	hdr           FileHeader
	records       int
	channel       int
	currentRecord int // Current record being processed
	currentSample int // Current sample in the record
}

// Channel creates a new ChannelReader for the given channel index.
func (lr *Reader) Channel(channel int) (*ChannelReader, error) {
	if channel < 0 || channel >= int(lr.hdr.ChannelCount) {
		return nil, fmt.Errorf("channel index out of range")
	}

	return &ChannelReader{
		r:       lr.r,
		hdr:     lr.hdr,
		records: lr.records,
		channel: channel,
	}, nil
}

// Read fills codes with consecutive samples of the channel, crossing record
// boundaries as needed. It returns io.EOF once every record has been read.
func (cr *ChannelReader) Read(codes []uint16) (int, error) {
	spr := int(cr.hdr.SamplesPerRecord)
	recordSize := int64(cr.hdr.RecordSize())
	// The channel's samples are contiguous within a record.
	waveformOffset := int64(RecordHeaderSize + 4*spr + 2*cr.channel*spr)

	n := 0
	for n < len(codes) {
		if cr.currentRecord >= cr.records {
			return n, io.EOF
		}

		run := spr - cr.currentSample
		if run > len(codes)-n {
			run = len(codes) - n
		}

		pos := int64(HeaderSize) + int64(cr.currentRecord)*recordSize + waveformOffset + int64(cr.currentSample*2)
		if _, err := cr.r.Seek(pos, io.SeekStart); err != nil {
			return n, fmt.Errorf("error seeking to position: %w", err)
		}

		buf := make([]byte, 2*run)
		if _, err := io.ReadFull(cr.r, buf); err != nil {
			return n, fmt.Errorf("error reading sample data: %w", err)
		}
		for i := 0; i < run; i++ {
			codes[n+i] = binary.LittleEndian.Uint16(buf[2*i:])
		}

		n += run
		cr.currentSample += run
		if cr.currentSample >= spr {
			cr.currentSample = 0
			cr.currentRecord++
		}
	}

	return n, nil
}
