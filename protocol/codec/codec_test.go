// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package codec

import (
	"bytes"
	"testing"

	"github.com/webasto-remote/wlr/protocol/cipher"
)

var testKey = bytes.Repeat([]byte{0x33}, cipher.KeySize)

func TestCommandRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		pkt  Packet
	}{
		{"stop", Packet{Type: MsgCommand, Src: 1, Dst: 2, Seq: 1, Payload: CommandPayload{Kind: CmdStop}}},
		{"start", Packet{Type: MsgCommand, Src: 1, Dst: 2, Seq: 2, Payload: CommandPayload{Kind: CmdStart, Minutes: 30}}},
		{"run_minutes", Packet{Type: MsgCommand, Src: 1, Dst: 2, Seq: 65535, Payload: CommandPayload{Kind: CmdRunMinutes, Minutes: 5}}},
		{"query_status", Packet{Type: MsgCommand, Src: 1, Dst: 2, Seq: 3, Payload: CommandPayload{Kind: CmdQueryStatus}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := tc.pkt.Serialize(testKey)
			if err != nil {
				t.Fatalf("Serialize: %v", err)
			}
			if len(raw) != 10 {
				t.Fatalf("Command frame is %d bytes, want 10", len(raw))
			}
			got, err := Deserialize(raw, testKey)
			if err != nil {
				t.Fatalf("Deserialize: %v", err)
			}
			if got.Type != tc.pkt.Type || got.Src != tc.pkt.Src || got.Dst != tc.pkt.Dst || got.Seq != tc.pkt.Seq {
				t.Fatalf("header mismatch: got %+v, want %+v", got, tc.pkt)
			}
			if got.Payload != tc.pkt.Payload {
				t.Fatalf("payload mismatch: got %+v, want %+v", got.Payload, tc.pkt.Payload)
			}
		})
	}
}

func TestStatusRoundTripQuantization(t *testing.T) {
	status := StatusPayload{
		State:            HeaterRunning,
		MinutesRemaining: 12,
		LastRSSIDbm:      -90,
		LastSNRDb:        -5,
		LastWBusOpState:  0x07,
		LastErrorCode:    0,
		LastCmdSeq:       42,
		TemperatureC:     22,
		VoltageMV:        12480,
		PowerW:           800,
	}
	pkt := Packet{Type: MsgStatus, Src: 2, Dst: 1, Seq: 9, Payload: status}

	raw, err := pkt.Serialize(testKey)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if len(raw) != 19 {
		t.Fatalf("Status frame is %d bytes, want 19", len(raw))
	}
	got, err := Deserialize(raw, testKey)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	gotStatus, ok := got.Payload.(StatusPayload)
	if !ok {
		t.Fatalf("payload is %T, want StatusPayload", got.Payload)
	}
	if gotStatus.LastCmdSeq != status.LastCmdSeq {
		t.Errorf("lastCmdSeq: got %d, want %d", gotStatus.LastCmdSeq, status.LastCmdSeq)
	}
	if gotStatus.TemperatureC != status.TemperatureC {
		t.Errorf("temperature: got %d, want %d", gotStatus.TemperatureC, status.TemperatureC)
	}
	if gotStatus.VoltageMV != status.VoltageMV {
		t.Errorf("voltage: got %d, want %d", gotStatus.VoltageMV, status.VoltageMV)
	}
	if gotStatus.PowerW != status.PowerW {
		t.Errorf("power: got %d, want %d", gotStatus.PowerW, status.PowerW)
	}
}

func TestAckFrameIsEightBytes(t *testing.T) {
	pkt := Packet{Type: MsgAck, Src: 2, Dst: 1, Seq: 1, Payload: AckPayload{}}
	raw, err := pkt.Serialize(testKey)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if len(raw) != 8 {
		t.Fatalf("Ack frame is %d bytes, want 8", len(raw))
	}
	if _, err := Deserialize(raw, testKey); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
}

func TestQuantizationSaturates(t *testing.T) {
	if got := PackTempC(-200); got != 0 {
		t.Errorf("PackTempC(-200) = %d, want 0", got)
	}
	if got := PackVoltageMV(0); got != 0 {
		t.Errorf("PackVoltageMV(0) = %d, want 0", got)
	}
	if got := PackPowerW(1 << 15); got != 255 {
		t.Errorf("PackPowerW overflow = %d, want 255", got)
	}
}

func TestDeserializeRejectsBadCRC(t *testing.T) {
	pkt := Packet{Type: MsgAck, Src: 1, Dst: 2, Seq: 1, Payload: AckPayload{}}
	raw, err := pkt.Serialize(testKey)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF

	if _, err := Deserialize(raw, testKey); err == nil {
		t.Fatal("Deserialize accepted a packet with a corrupted CRC")
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	pkt := Packet{Type: MsgAck, Src: 1, Dst: 2, Seq: 1, Payload: AckPayload{}}
	raw, err := pkt.Serialize(testKey)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	raw[0] ^= 0xFF

	if _, err := Deserialize(raw, testKey); err == nil {
		t.Fatal("Deserialize accepted a packet with bad magic_version")
	}
}

func TestDeserializeRejectsShortFrame(t *testing.T) {
	if _, err := Deserialize([]byte{1, 2, 3}, testKey); err == nil {
		t.Fatal("Deserialize accepted a too-short frame")
	}
}

// TestDeserializeRejectsMalformedSizes checks sizes that fall between
// or beyond the three valid wire sizes (8, 10, 19): 9-, 11- and
// 23-byte frames must be rejected outright rather than read as a
// truncated or padded packet of another type.
func TestDeserializeRejectsMalformedSizes(t *testing.T) {
	for _, n := range []int{9, 11, 23} {
		if _, err := Deserialize(make([]byte, n), testKey); err == nil {
			t.Errorf("Deserialize accepted a malformed %d-byte frame", n)
		}
	}
}

func FuzzDeserialize(f *testing.F) {
	pkt := Packet{Type: MsgStatus, Src: 1, Dst: 2, Seq: 7, Payload: StatusPayload{State: HeaterRunning, TemperatureC: 40}}
	raw, err := pkt.Serialize(testKey)
	if err != nil {
		f.Fatalf("Serialize: %v", err)
	}
	f.Add(raw)
	f.Add([]byte{})
	f.Add(make([]byte, MaxPacketSize+10))

	f.Fuzz(func(t *testing.T, data []byte) {
		// Deserialize must never panic regardless of input.
		_, _ = Deserialize(data, testKey)
	})
}
