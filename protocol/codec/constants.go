// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package codec implements the encrypted command/status packet format
// exchanged between the sender (key fob / controller) and receiver
// (heater-side) nodes over the LoRa link.
package codec

// MagicVersion identifies the wire format in a single byte.
// Deserialize checks it after the CRC check and payload decryption,
// and rejects the packet if it does not match.
const MagicVersion byte = 0xA2

// MsgType identifies the payload carried by a Packet.
type MsgType uint8

const (
	MsgCommand MsgType = 1
	MsgStatus  MsgType = 2
	MsgAck     MsgType = 3
)

// CommandKind selects the action requested by a Command payload.
type CommandKind uint8

const (
	CmdStop        CommandKind = 1
	CmdStart       CommandKind = 2
	CmdRunMinutes  CommandKind = 3
	// CmdQueryStatus requests a Status reply without starting or
	// stopping the heater: exactly one operating-state + simple-status
	// poll, with no 0x21/0x10 W-BUS write. It is the override that lets
	// a fob check on an idle heater without waking it.
	CmdQueryStatus CommandKind = 4
)

// HeaterState mirrors the heater's coarse operating state as reported
// in a Status payload.
type HeaterState uint8

const (
	HeaterUnknown HeaterState = 0
	HeaterOff     HeaterState = 1
	HeaterRunning HeaterState = 2
	HeaterError   HeaterState = 3
)

// Packet size limits. HeaderSize and CRCSize are fixed; every MsgType
// has its own exact payload size, since the wire format has no length
// field of its own — a frame's length alone must identify its type.
const (
	HeaderSize = 1 + 1 + 1 + 1 + 2 // magic_version, type, src, dst, seq
	CRCSize    = 2

	commandPayloadSize = 2
	statusPayloadSize  = 11
	ackPayloadSize     = 0

	MaxPayloadSize = statusPayloadSize
	MaxPacketSize  = HeaderSize + MaxPayloadSize + CRCSize
)

// payloadSize returns the exact payload length a MsgType carries on
// the wire, and whether t is a known type at all.
func payloadSize(t MsgType) (int, bool) {
	switch t {
	case MsgCommand:
		return commandPayloadSize, true
	case MsgStatus:
		return statusPayloadSize, true
	case MsgAck:
		return ackPayloadSize, true
	default:
		return 0, false
	}
}

// CRC-16-CCITT configuration, matched bit-for-bit against the original
// firmware's crc16_ccitt (poly 0x1021, init 0xFFFF, no final XOR).
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)
