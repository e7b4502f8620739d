// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package parser

// ParseStatusTLV decodes a "0x50 0x30 <id><value>..." multi-status
// response payload (command byte and sub-type byte included,
// checksum excluded) into a Snapshot. It returns false if the
// payload is too short, isn't a multi-status response, or contains
// an ID this parser does not recognize — an unknown ID's width can't
// be guessed, so stopping is safer than desynchronizing the rest of
// the walk.
func ParseStatusTLV(payload []byte) (Snapshot, bool) {
	var s Snapshot
	if len(payload) < 3 {
		return s, false
	}
	if payload[0]&0x7F != 0x50 {
		return s, false
	}
	if payload[1] != 0x30 {
		return s, false
	}

	pos := 2
	end := len(payload) // caller has already stripped the checksum byte

	need := func(n int) bool { return pos+n <= end }

	parseMaybeU16 := func() (uint16, bool) {
		if need(2) {
			after := pos + 2
			if after >= end || knownIDs[payload[after]] {
				v := be16(payload[pos], payload[pos+1])
				pos += 2
				return v, true
			}
		}
		if need(1) {
			after := pos + 1
			if after >= end || knownIDs[payload[after]] {
				v := uint16(payload[pos])
				pos++
				return v, true
			}
		}
		return 0, false
	}

	for pos < end {
		id := payload[pos]
		pos++

		switch id {
		case 0x01:
			if !need(1) {
				return s, false
			}
			s.Status01 = payload[pos]
			pos++
		case 0x03:
			if !need(1) {
				return s, false
			}
			s.Status03 = payload[pos]
			pos++
		case 0x05:
			if !need(1) {
				return s, false
			}
			s.Status05 = payload[pos]
			pos++
		case 0x06:
			if !need(1) {
				return s, false
			}
			s.Status06 = payload[pos]
			pos++
		case 0x07:
			if !need(1) {
				return s, false
			}
			s.Status07 = payload[pos]
			pos++
		case 0x08:
			if !need(1) {
				return s, false
			}
			s.Status08 = payload[pos]
			pos++
		case 0x0A:
			if !need(1) {
				return s, false
			}
			s.Status0A = payload[pos]
			pos++
		case 0x10:
			if !need(1) {
				return s, false
			}
			s.Status10 = payload[pos]
			pos++
		case 0x1F:
			if !need(1) {
				return s, false
			}
			s.Status1F = payload[pos]
			pos++
		case 0x24:
			if !need(1) {
				return s, false
			}
			s.Status24 = payload[pos]
			pos++
		case 0x27:
			if !need(1) {
				return s, false
			}
			s.Status27 = payload[pos]
			pos++
		case 0x2A:
			if !need(1) {
				return s, false
			}
			s.Status2A = payload[pos]
			pos++
		case 0x2C:
			if !need(1) {
				return s, false
			}
			s.Status2C = payload[pos]
			pos++
		case 0x2D:
			if !need(1) {
				return s, false
			}
			s.Status2D = payload[pos]
			pos++
		case 0x32:
			if !need(1) {
				return s, false
			}
			s.Status32 = payload[pos]
			pos++

		case 0x0C: // temperature, raw-50
			if !need(1) {
				return s, false
			}
			s.TemperatureC = int16(int(payload[pos]) - 50)
			pos++

		case 0x0E:
			if !need(2) {
				return s, false
			}
			s.VoltageMV = be16(payload[pos], payload[pos+1])
			pos += 2
		case 0x0F:
			if !need(2) {
				return s, false
			}
			s.Status0F = be16(payload[pos], payload[pos+1])
			pos += 2
		case 0x11:
			if !need(2) {
				return s, false
			}
			s.PowerDeciW = be16(payload[pos], payload[pos+1])
			pos += 2
		case 0x13:
			if !need(2) {
				return s, false
			}
			s.GlowResistanceMOhm = be16(payload[pos], payload[pos+1])
			pos += 2
		case 0x1E:
			if !need(2) {
				return s, false
			}
			s.CombustionFan = be16(payload[pos], payload[pos+1])
			pos += 2
		case 0x29:
			if !need(2) {
				return s, false
			}
			s.Status29 = be16(payload[pos], payload[pos+1])
			pos += 2
		case 0x34:
			if !need(2) {
				return s, false
			}
			s.Status34 = be16(payload[pos], payload[pos+1])
			pos += 2

		case 0x3D:
			if !need(2) {
				return s, false
			}
			s.Status3D = be16(payload[pos], payload[pos+1])
			pos += 2
		case 0x52:
			if !need(2) {
				return s, false
			}
			s.Status52 = be16(payload[pos], payload[pos+1])
			pos += 2

		case 0x57:
			v, ok := parseMaybeU16()
			if !ok {
				return s, false
			}
			s.Status57 = v
		case 0x5F:
			v, ok := parseMaybeU16()
			if !ok {
				return s, false
			}
			s.Status5F = v
		case 0x78:
			v, ok := parseMaybeU16()
			if !ok {
				return s, false
			}
			s.Status78 = v
		case 0x89:
			v, ok := parseMaybeU16()
			if !ok {
				return s, false
			}
			s.Status89 = v

		default:
			// Unknown ID: width can't be inferred, so stop rather than desync.
			return s, false
		}
	}

	s.Valid = true
	return s, true
}
