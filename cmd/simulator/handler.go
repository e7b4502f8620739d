// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"encoding/binary"
	"log"
	"time"

	"github.com/webasto-remote/wlr/wbus/transport"
)

// ackBit marks a response frame as the acknowledgment of the command
// byte it answers, matching the original firmware's cmd|0x80 framing.
const ackBit = 0x80

// session bundles the transport a response goes out on with the
// optional bench recorder watching it, so every call site doesn't
// need its own nil check before logging a frame.
type session struct {
	tr  *transport.Transport
	rec *recorder
}

func (s *session) send(cmdWithAckBit byte, data []byte) {
	if err := s.tr.SendResponse(cmdWithAckBit, data); err != nil {
		log.Printf("simulator: send response: %v", err)
		return
	}
	if s.rec == nil {
		return
	}
	frame := transport.Frame{Header: transport.RxHeader, Payload: append([]byte{cmdWithAckBit}, data...)}
	if err := s.rec.Record(frame, time.Now()); err != nil {
		log.Printf("simulator: record frame: %v", err)
	}
}

// handleFrame inspects one controller-to-heater frame and answers it
// on s, mutating m to reflect any start/stop request. It mirrors
// handlePacket from the original bench harness, command for command.
func handleFrame(m *model, s *session, frame transport.Frame, now time.Time) {
	if frame.Header != transport.TxHeader {
		return // not addressed to the heater
	}
	data := frame.Payload
	if len(data) < 2 {
		return
	}
	cmd := data[0]

	switch cmd {
	case 0x21: // start with minutes
		if len(data) < 3 {
			return
		}
		minutes := data[1]
		m.start(minutes, now)
		log.Printf("simulator: START for %d minutes", minutes)
		s.send(0x21|ackBit, []byte{minutes})

	case 0x22: // ventilation start with minutes
		if len(data) < 3 {
			return
		}
		minutes := data[1]
		m.setState(stateStarting, now)
		log.Printf("simulator: VENT for %d minutes", minutes)
		s.send(0x22|ackBit, []byte{minutes})

	case 0x10: // stop
		m.stop(now)
		log.Printf("simulator: STOP")
		s.send(0x10|ackBit, nil)

	case 0x44: // keep-alive
		s.send(0x44|ackBit, nil)

	case 0x50: // status requests
		if len(data) < 3 {
			return
		}
		handleStatusRequest(m, s, data[1:len(data)-1])

	default:
		s.send(cmd|ackBit, nil)
	}
}

func handleStatusRequest(m *model, s *session, idsOrSub []byte) {
	idx := idsOrSub[0]
	switch idx {
	case 0x30:
		respondMultiStatus(m, s, idsOrSub[1:])
	case 0x07:
		s.send(0x50|ackBit, []byte{0x07, m.state.opStateCode()})
	case 0x03:
		s.send(0x50|ackBit, []byte{0x03, stateFlagsByte(m)})
	case 0x04:
		s.send(0x50|ackBit, actuatorPage(m))
	case 0x06:
		s.send(0x50|ackBit, countersPage())
	default:
		s.send(0x50|ackBit, []byte{idx})
	}
}

func stateFlagsByte(m *model) byte {
	var flags byte
	switch m.state {
	case stateRunning:
		flags |= 0x01 | 0x10 | 0x40 // heat_request, combustion_fan, fuel_pump
	case stateStarting:
		flags |= 0x20 | 0x10 // glowplug, combustion_fan
	}
	return flags
}

func actuatorPage(m *model) []byte {
	page := make([]byte, 9)
	page[0] = 0x04
	if m.state == stateStarting {
		page[5] = 80 // glowplug%
	}
	if m.state == stateRunning {
		page[6] = 150 // fuel pump raw
	}
	switch m.state {
	case stateRunning:
		page[7] = 100
	case stateStarting:
		page[7] = 50
	case stateCooling:
		page[7] = 40
	}
	return page
}

func countersPage() []byte {
	page := make([]byte, 9)
	page[0] = 0x06
	binary.BigEndian.PutUint16(page[1:3], 123) // working hours
	page[3] = 45                               // working minutes
	binary.BigEndian.PutUint16(page[4:6], 456) // operating hours
	page[6] = 30                               // operating minutes
	binary.BigEndian.PutUint16(page[7:9], 789) // start counter
	return page
}

// respondMultiStatus answers a page-0x30 multi-status request: one
// TLV per requested ID, in the same one/two-byte layout ParseStatusTLV
// expects on the controller side.
func respondMultiStatus(m *model, s *session, ids []byte) {
	out := make([]byte, 0, 2*len(ids)+1)
	out = append(out, 0x30)

	for _, id := range ids {
		switch id {
		case 0x05:
			out = append(out, id, boolByte(m.flame))
		case 0x07:
			out = append(out, id, m.state.opStateCode())
		case 0x0C:
			out = append(out, id, tempRawByte(m.tempC))
		case 0x0E:
			out = append(out, id, 0, 0)
			binary.BigEndian.PutUint16(out[len(out)-2:], m.voltageMV)
		case 0x0F:
			out = append(out, id, 0, 0)
			if m.flame {
				out[len(out)-1] = 1
			}
		case 0x11:
			out = append(out, id, 0, 0)
			binary.BigEndian.PutUint16(out[len(out)-2:], m.powerX10)
		case 0x13:
			out = append(out, id, 0, 0)
			binary.BigEndian.PutUint16(out[len(out)-2:], m.glowMOhm)
		case 0x1E:
			out = append(out, id, 0, 0)
			binary.BigEndian.PutUint16(out[len(out)-2:], m.fanRPM)
		case 0x01, 0x03, 0x06, 0x08, 0x0A, 0x10, 0x1F, 0x24, 0x27, 0x2A, 0x2C, 0x2D, 0x32:
			out = append(out, id, 0)
		case 0x29, 0x34, 0x3D, 0x52, 0x57, 0x5F, 0x78, 0x89:
			out = append(out, id, 0, 0)
		// unknown ID: omit it entirely rather than guess a width
		}
	}
	s.send(0x50|ackBit, out)
}

func tempRawByte(tempC float64) byte {
	raw := int(tempC + 50.5)
	if raw < 0 {
		return 0
	}
	if raw > 255 {
		return 255
	}
	return byte(raw)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
