// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package detection

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// WordSize is the size of one encoded event in bytes.
const WordSize = 4

// ErrTruncatedWord is returned when an event file ends inside a word.
var ErrTruncatedWord = errors.New("truncated detection word")

// Writer writes a flat stream of detection words.
type Writer struct {
	w      *bufio.Writer
	buf    [WordSize]byte
	events int
}

// NewWriter creates a new detection event writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteEvent appends one event.
func (dw *Writer) WriteEvent(e Event) error {
	return dw.WriteWord(e.Word())
}

// WriteWord appends one already encoded word.
func (dw *Writer) WriteWord(word uint32) error {
	binary.LittleEndian.PutUint32(dw.buf[:], word)
	if _, err := dw.w.Write(dw.buf[:]); err != nil {
		return fmt.Errorf("error writing event %d: %w", dw.events, err)
	}
	dw.events++
	return nil
}

// Events returns the number of events written so far.
func (dw *Writer) Events() int {
	return dw.events
}

// Flush writes any buffered events to the underlying writer.
func (dw *Writer) Flush() error {
	return dw.w.Flush()
}

// Reader reads a flat stream of detection words.
type Reader struct {
	r   io.Reader
	buf [WordSize]byte
}

// NewReader creates a new detection event reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next decodes the next event. It returns io.EOF at a clean end of stream
// and ErrTruncatedWord if the stream ends inside a word.
func (dr *Reader) Next() (Event, error) {
	word, err := dr.NextWord()
	if err != nil {
		return Event{}, err
	}
	return Decode(word), nil
}

// NextWord returns the next raw word.
func (dr *Reader) NextWord() (uint32, error) {
	if _, err := io.ReadFull(dr.r, dr.buf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrTruncatedWord
		}
		return 0, err
	}
	return binary.LittleEndian.Uint32(dr.buf[:]), nil
}

// ReadAll decodes every event in r.
func ReadAll(r io.Reader) ([]Event, error) {
	dr := NewReader(r)

	var events []Event
	for {
		e, err := dr.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, e)
	}
}
