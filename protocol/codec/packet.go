// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package codec

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/webasto-remote/wlr/protocol/cipher"
)

// Packet is a fully decoded frame: header fields plus a typed
// Payload. Timestamp is set at decode time and is not part of the
// wire format.
type Packet struct {
	Type      MsgType
	Src       uint8
	Dst       uint8
	Seq       uint16
	Payload   Payload
	Timestamp time.Time
}

// Serialize encodes the packet into its wire representation: a
// cleartext header, the AES-128-CTR ciphertext of the payload, and a
// trailing little-endian CRC-16-CCITT over the header and ciphertext
// together. key is the 16-byte PSK shared with the peer; the nonce is
// derived from the header fields, never transmitted separately.
func (p *Packet) Serialize(key []byte) ([]byte, error) {
	if p.Payload == nil {
		return nil, fmt.Errorf("codec: packet has no payload")
	}
	if p.Payload.Type() != p.Type {
		return nil, fmt.Errorf("codec: packet type %d does not match payload type %d", p.Type, p.Payload.Type())
	}
	size, ok := payloadSize(p.Type)
	if !ok {
		return nil, fmt.Errorf("codec: unknown message type 0x%02X", byte(p.Type))
	}
	plain := p.Payload.marshal()
	if len(plain) != size {
		return nil, fmt.Errorf("codec: payload is %d bytes, want %d for type 0x%02X", len(plain), size, byte(p.Type))
	}

	nonce := cipher.BuildNonce(uint32(p.Seq), p.Src, p.Dst)
	ciphertext, err := cipher.Encrypt(key, nonce, plain)
	if err != nil {
		return nil, fmt.Errorf("codec: encrypt: %w", err)
	}

	buf := make([]byte, 0, HeaderSize+size+CRCSize)
	buf = append(buf, MagicVersion, byte(p.Type), p.Src, p.Dst)
	var seqBytes [2]byte
	binary.LittleEndian.PutUint16(seqBytes[:], p.Seq)
	buf = append(buf, seqBytes[:]...)
	buf = append(buf, ciphertext...)

	crc := CRC16CCITT(buf)
	buf = append(buf, byte(crc), byte(crc>>8))
	return buf, nil
}

// Deserialize validates a frame and decodes its payload, following
// the wire contract's own check order: the frame size (inferred from
// the cleartext type byte) is validated first, then the CRC is
// checked against the ciphertext, then the payload is decrypted, and
// only then is magic_version verified. It returns an error without
// panicking on any malformed or truncated input; callers on a noisy
// radio link must treat decode failures as routine.
func Deserialize(raw []byte, key []byte) (*Packet, error) {
	if len(raw) < HeaderSize+CRCSize {
		return nil, fmt.Errorf("codec: frame too short: %d bytes", len(raw))
	}

	msgType := MsgType(raw[1])
	size, ok := payloadSize(msgType)
	if !ok {
		return nil, fmt.Errorf("codec: unknown message type 0x%02X", byte(msgType))
	}
	want := HeaderSize + size + CRCSize
	if len(raw) != want {
		return nil, fmt.Errorf("codec: wrong frame size for type 0x%02X: got %d, want %d", byte(msgType), len(raw), want)
	}

	body, crcBytes := raw[:len(raw)-CRCSize], raw[len(raw)-CRCSize:]
	wantCRC := uint16(crcBytes[0]) | uint16(crcBytes[1])<<8
	gotCRC := CRC16CCITT(body)
	if wantCRC != gotCRC {
		return nil, fmt.Errorf("codec: CRC mismatch: got 0x%04X, want 0x%04X", gotCRC, wantCRC)
	}

	src := raw[2]
	dst := raw[3]
	seq := binary.LittleEndian.Uint16(raw[4:6])
	ciphertext := raw[HeaderSize : HeaderSize+size]

	nonce := cipher.BuildNonce(uint32(seq), src, dst)
	plaintext, err := cipher.Decrypt(key, nonce, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("codec: decrypt: %w", err)
	}

	if raw[0] != MagicVersion {
		return nil, fmt.Errorf("codec: bad magic_version 0x%02X", raw[0])
	}

	payload, err := unmarshalPayload(msgType, plaintext)
	if err != nil {
		return nil, err
	}

	return &Packet{
		Type:      msgType,
		Src:       src,
		Dst:       dst,
		Seq:       seq,
		Payload:   payload,
		Timestamp: time.Now(),
	}, nil
}

func unmarshalPayload(t MsgType, b []byte) (Payload, error) {
	switch t {
	case MsgCommand:
		return unmarshalCommand(b)
	case MsgStatus:
		return unmarshalStatus(b)
	case MsgAck:
		return unmarshalAck(b)
	default:
		return nil, fmt.Errorf("codec: unknown message type 0x%02X", byte(t))
	}
}
