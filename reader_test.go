// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package halolog_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/OpenPSG/halolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSineLog(t *testing.T, records int) []byte {
	t.Helper()

	var buf bytes.Buffer
	hdr := halolog.DefaultHeader()

	lw, err := halolog.Create(&buf, hdr)
	require.NoError(t, err)

	for i := 0; i < records; i++ {
		timestamps, waveform := sineRecord(hdr, i)
		require.NoError(t, lw.WriteRecord(0, timestamps, waveform))
	}
	require.NoError(t, lw.Close())

	return buf.Bytes()
}

func TestReaderChannel(t *testing.T) {
	lr, err := halolog.Open(bytes.NewReader(writeSineLog(t, 2)))
	require.NoError(t, err)

	cr, err := lr.Channel(5)
	require.NoError(t, err)

	// Read across the record boundary in odd sized chunks.
	var codes []uint16
	chunk := make([]uint16, 100)
	for {
		n, err := cr.Read(chunk)
		codes = append(codes, chunk[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	require.Len(t, codes, 256)
	for i, code := range codes {
		assert.Equal(t, halolog.SineCode(5, i%128, 128), code)
	}

	// Reader should now return EOF
	n, err := cr.Read(chunk)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestReaderChannelOutOfRange(t *testing.T) {
	lr, err := halolog.Open(bytes.NewReader(writeSineLog(t, 1)))
	require.NoError(t, err)

	_, err = lr.Channel(32)
	require.Error(t, err)

	_, err = lr.Record(1)
	require.Error(t, err)
}

func TestReaderBadMagic(t *testing.T) {
	b := writeSineLog(t, 1)
	b[0] = 'X'

	_, err := halolog.Open(bytes.NewReader(b))
	require.ErrorIs(t, err, halolog.ErrBadMagic)
}

func TestReaderUnsupportedVersion(t *testing.T) {
	b := writeSineLog(t, 1)
	b[8] = 2

	_, err := halolog.Open(bytes.NewReader(b))
	require.ErrorIs(t, err, halolog.ErrUnsupportedVersion)
}

func TestReaderTruncatedRecord(t *testing.T) {
	b := writeSineLog(t, 2)

	_, err := halolog.Open(bytes.NewReader(b[:len(b)-1]))
	require.ErrorIs(t, err, halolog.ErrTruncatedRecord)
}

func TestReaderHeaderOnly(t *testing.T) {
	lr, err := halolog.Open(bytes.NewReader(writeSineLog(t, 0)))
	require.NoError(t, err)
	assert.Equal(t, 0, lr.Records())

	cr, err := lr.Channel(0)
	require.NoError(t, err)

	_, err = cr.Read(make([]uint16, 1))
	assert.Equal(t, io.EOF, err)
}
