// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package halolog reads and writes HALO raw waveform logs.
//
// A log is a 28 byte file header followed by fixed-size records. Each record
// carries a capture timestamp, a sequence index, one tick per sample and a
// channel-major block of 16-bit sample codes. All integers are little-endian.
package halolog

import "errors"

// Magic identifies a HALO raw waveform log.
var Magic = [8]byte{'H', 'A', 'L', 'O', 'L', 'O', 'G', 0}

const (
	// Version1 is the only supported layout version.
	Version1 uint16 = 1

	// HeaderSize is the encoded size of FileHeader in bytes.
	HeaderSize = 28
	// RecordHeaderSize is the encoded size of RecordHeader in bytes.
	RecordHeaderSize = 16

	DefaultChannels         = 32
	DefaultSamplesPerRecord = 128
	DefaultSampleBits       = 16
	DefaultTimestampBits    = 32
)

var (
	ErrBadMagic           = errors.New("not a HALO raw log")
	ErrUnsupportedVersion = errors.New("unsupported HALO raw log version")
	ErrTruncatedRecord    = errors.New("truncated record")
)

// FileHeader is written once at the start of every log.
type FileHeader struct {
	Magic            [8]byte // Format identifier, always Magic
	Version          uint16  // Layout version (1)
	Reserved         uint16  // Always zero
	ChannelCount     uint32  // Number of channels per record
	SamplesPerRecord uint32  // Number of samples per channel per record
	SampleBits       uint32  // Waveform sample width in bits
	TimestampBits    uint32  // Per-sample timestamp width in bits
}

// DefaultHeader returns the header of a 32 channel, 128 samples per record log.
func DefaultHeader() FileHeader {
	return FileHeader{
		Magic:            Magic,
		Version:          Version1,
		ChannelCount:     DefaultChannels,
		SamplesPerRecord: DefaultSamplesPerRecord,
		SampleBits:       DefaultSampleBits,
		TimestampBits:    DefaultTimestampBits,
	}
}

// PayloadBytes is the size of the timestamp and waveform blocks of one record.
func (h FileHeader) PayloadBytes() int {
	spr := int(h.SamplesPerRecord)
	return 4*spr + 2*int(h.ChannelCount)*spr
}

// RecordSize is the full encoded size of one record.
func (h FileHeader) RecordSize() int {
	return RecordHeaderSize + h.PayloadBytes()
}

// FileSize is the size of a log holding the given number of records.
func (h FileHeader) FileSize(records int) int64 {
	return int64(HeaderSize) + int64(records)*int64(h.RecordSize())
}

// RecordHeader prefixes every record.
type RecordHeader struct {
	UnixTimeNs    uint64 // Capture time of the first sample
	SequenceIndex uint32 // Starts at 0, increments by one per record
	PayloadBytes  uint32 // Constant per file
}

// Record is one decoded record.
type Record struct {
	RecordHeader
	Timestamps []uint32 // One tick per sample
	Waveform   []uint16 // Channel-major: Waveform[channel*samplesPerRecord+sample]
}

// Sample returns the code of the given channel and sample index.
func (r *Record) Sample(channel, sample int) uint16 {
	spr := len(r.Timestamps)
	return r.Waveform[channel*spr+sample]
}
