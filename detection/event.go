// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package detection encodes seizure detection events and extracts them from
// simulated per-channel seizure state.
//
// An event is one little-endian uint32 packed low-to-high as a 2-bit type,
// a 5-bit channel identifier and a 25-bit timestamp tick count:
//
//	bits 0-1  type (0b10 start, 0b01 end)
//	bits 2-6  channel
//	bits 7-31 timestamp ticks, modulo 2^25
package detection

import "fmt"

// Type is the 2-bit event type.
type Type uint8

const (
	// TypeNone means no event and is never logged.
	TypeNone  Type = 0b00
	TypeEnd   Type = 0b01
	TypeStart Type = 0b10
)

func (t Type) String() string {
	switch t {
	case TypeStart:
		return "start"
	case TypeEnd:
		return "end"
	case TypeNone:
		return "none"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

const (
	TypeBits      = 2
	ChannelBits   = 5
	TimestampBits = 25

	TypeMask      = 1<<TypeBits - 1
	ChannelMask   = 1<<ChannelBits - 1
	TimestampMask = 1<<TimestampBits - 1

	channelShift   = TypeBits
	timestampShift = TypeBits + ChannelBits
)

// Event is one decoded detection event.
type Event struct {
	Timestamp uint32 // Ticks (milliseconds) since the start of the file
	Channel   uint8  // Channel identifier
	Type      Type   // Start or end
}

// Encode packs an event into its 32-bit word. Out-of-range fields are
// masked to their bit width.
func Encode(timestamp uint32, channel uint8, typ Type) uint32 {
	return (timestamp&TimestampMask)<<timestampShift |
		(uint32(channel)&ChannelMask)<<channelShift |
		uint32(typ)&TypeMask
}

// Decode unpacks a 32-bit word.
func Decode(word uint32) Event {
	return Event{
		Timestamp: word >> timestampShift & TimestampMask,
		Channel:   uint8(word >> channelShift & ChannelMask),
		Type:      Type(word & TypeMask),
	}
}

// Word returns the encoded form of the event.
func (e Event) Word() uint32 {
	return Encode(e.Timestamp, e.Channel, e.Type)
}

// ChannelWraps reports whether a channel identifier does not survive the
// 5-bit channel field (for example channel 32, which encodes as 0).
func ChannelWraps(channel int) bool {
	return channel < 0 || channel > ChannelMask
}

func (e Event) String() string {
	return fmt.Sprintf("%s ch=%d t=%dms", e.Type, e.Channel, e.Timestamp)
}
