// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package codec

import "fmt"

// Payload is implemented by each message's typed body. Packet.Type
// determines which concrete Payload a decoded packet carries.
type Payload interface {
	Type() MsgType
	marshal() []byte
}

// CommandPayload requests the heater start, stop, or run for a fixed
// duration. Minutes is meaningful for CmdStart and CmdRunMinutes only.
type CommandPayload struct {
	Kind    CommandKind
	Minutes uint8
}

func (CommandPayload) Type() MsgType { return MsgCommand }

func (c CommandPayload) marshal() []byte {
	return []byte{byte(c.Kind), c.Minutes}
}

func unmarshalCommand(b []byte) (CommandPayload, error) {
	if len(b) != commandPayloadSize {
		return CommandPayload{}, fmt.Errorf("codec: command payload is %d bytes, want %d", len(b), commandPayloadSize)
	}
	return CommandPayload{Kind: CommandKind(b[0]), Minutes: b[1]}, nil
}

// StatusPayload reports the heater's coarse state and best-effort
// W-BUS telemetry back to the fob. LastCmdSeq echoes the sequence
// number of the command this status answers, or carries the most
// recently processed one for an unsolicited periodic status; it is
// the sole correlation mechanism between a Command and its
// acknowledgement — there is no separate Ack exchange. Quantized
// fields saturate rather than wrap when the underlying reading is out
// of range.
type StatusPayload struct {
	State            HeaterState
	MinutesRemaining uint8
	LastRSSIDbm      int8
	LastSNRDb        int8
	LastWBusOpState  uint8
	LastErrorCode    uint8
	LastCmdSeq       uint16
	TemperatureC     int16
	VoltageMV        uint16
	PowerW           uint16
}

func (StatusPayload) Type() MsgType { return MsgStatus }

func (s StatusPayload) marshal() []byte {
	return []byte{
		byte(s.State),
		s.MinutesRemaining,
		byte(s.LastRSSIDbm),
		byte(s.LastSNRDb),
		s.LastWBusOpState,
		s.LastErrorCode,
		byte(s.LastCmdSeq),
		byte(s.LastCmdSeq >> 8),
		PackTempC(s.TemperatureC),
		PackVoltageMV(s.VoltageMV),
		PackPowerW(s.PowerW),
	}
}

func unmarshalStatus(b []byte) (StatusPayload, error) {
	if len(b) != statusPayloadSize {
		return StatusPayload{}, fmt.Errorf("codec: status payload is %d bytes, want %d", len(b), statusPayloadSize)
	}
	return StatusPayload{
		State:            HeaterState(b[0]),
		MinutesRemaining: b[1],
		LastRSSIDbm:      int8(b[2]),
		LastSNRDb:        int8(b[3]),
		LastWBusOpState:  b[4],
		LastErrorCode:    b[5],
		LastCmdSeq:       uint16(b[6]) | uint16(b[7])<<8,
		TemperatureC:     UnpackTempC(b[8]),
		VoltageMV:        UnpackVoltageMV(b[9]),
		PowerW:           UnpackPowerW(b[10]),
	}, nil
}

// AckPayload is kept for wire compatibility with the Ack message type
// but is never transmitted: the protocol's one acknowledgement
// convention is a Status packet whose LastCmdSeq echoes the command
// it answers, not a dedicated Ack reply.
type AckPayload struct{}

func (AckPayload) Type() MsgType { return MsgAck }

func (AckPayload) marshal() []byte { return nil }

func unmarshalAck(b []byte) (AckPayload, error) {
	if len(b) != ackPayloadSize {
		return AckPayload{}, fmt.Errorf("codec: ack payload is %d bytes, want %d", len(b), ackPayloadSize)
	}
	return AckPayload{}, nil
}
