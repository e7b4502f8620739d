// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package parser decodes W-BUS status responses into typed fields.
// Field widths for several status IDs are not documented and vary by
// heater/firmware, so ParseStatusTLV uses the same look-ahead
// heuristic as the original firmware to decide whether an ambiguous
// ID is followed by one or two data bytes.
package parser

// Snapshot holds every status field this parser knows how to decode
// from a multi-status ("0x50 0x30 <ids...>") response. Zero value
// means "not present in the response that produced this snapshot".
type Snapshot struct {
	Valid bool

	TemperatureC       int16
	VoltageMV          uint16
	PowerDeciW         uint16 // raw heater power reading, in tenths of a watt
	GlowResistanceMOhm uint16
	CombustionFan      uint16

	Status01, Status03, Status05, Status06 uint8
	Status07, Status08, Status0A           uint8
	Status0F                               uint16
	Status10, Status1F                     uint8
	Status24, Status27                     uint8
	Status29                               uint16
	Status2A, Status2C, Status2D, Status32 uint8
	Status34                               uint16
	Status3D, Status52, Status57           uint16
	Status5F, Status78, Status89           uint16
}

// knownIDs lists every status ID ParseStatusTLV recognizes, used by
// the look-ahead heuristic to decide where an ambiguous-width field
// ends.
var knownIDs = map[uint8]bool{
	0x01: true, 0x03: true, 0x05: true, 0x06: true, 0x07: true,
	0x08: true, 0x0A: true, 0x0C: true, 0x0E: true, 0x0F: true,
	0x10: true, 0x11: true, 0x13: true, 0x1E: true, 0x1F: true,
	0x24: true, 0x27: true, 0x29: true, 0x2A: true, 0x2C: true,
	0x2D: true, 0x32: true, 0x34: true, 0x3D: true, 0x52: true,
	0x57: true, 0x5F: true, 0x78: true, 0x89: true,
}

func be16(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}
