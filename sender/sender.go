// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package sender implements the fob/controller side of the LoRa
// link: encode a command, encrypt it, and retry on a fixed cadence
// until the receiver's Status echoes the command's sequence number
// or the overall ack deadline runs out.
package sender

import (
	"fmt"
	"sync"
	"time"

	"github.com/webasto-remote/wlr/internal/config"
	"github.com/webasto-remote/wlr/protocol/codec"
	"github.com/webasto-remote/wlr/radio"
)

// Result classifies how Submit concluded.
type Result int

const (
	// Ok means the receiver's Status echoed the command's sequence.
	Ok Result = iota
	// TimedOut means every retry was sent but no matching Status
	// arrived within the ack deadline.
	TimedOut
	// RejectedPreFlight means the command was never sent because a
	// local precondition failed (e.g. RunMinutes with Minutes==0).
	RejectedPreFlight
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case TimedOut:
		return "timed_out"
	case RejectedPreFlight:
		return "rejected_preflight"
	default:
		return "unknown"
	}
}

// Sender owns the outgoing sequence counter and PSK for one fob.
type Sender struct {
	link radio.Link
	key  []byte

	mu  sync.Mutex
	seq uint32
}

// New wraps an already-open radio.Link. key must be a 16-byte AES-128
// PSK shared with the receiver out of band.
func New(link radio.Link, key []byte) *Sender {
	return &Sender{link: link, key: key}
}

// Submit sends a command, resending every config.RetryInterval, until
// a Status packet from the receiver echoes the command's sequence
// number in LastCmdSeq or config.AckWaitTimeout elapses overall.
func (s *Sender) Submit(kind codec.CommandKind, minutes uint8) (Result, error) {
	if kind == codec.CmdRunMinutes && minutes == 0 {
		return RejectedPreFlight, fmt.Errorf("sender: RunMinutes requires minutes > 0")
	}

	seq := s.nextSeq()
	pkt := &codec.Packet{
		Type: codec.MsgCommand,
		Src:  config.NodeSender,
		Dst:  config.NodeReceiver,
		Seq:  uint16(seq),
		Payload: codec.CommandPayload{
			Kind:    kind,
			Minutes: minutes,
		},
	}

	frame, err := pkt.Serialize(s.key)
	if err != nil {
		return TimedOut, fmt.Errorf("sender: serialize: %w", err)
	}

	deadline := time.Now().Add(config.AckWaitTimeout)
	wantSeq := uint16(seq)
	for {
		if err := s.link.Send(frame); err != nil {
			return TimedOut, fmt.Errorf("sender: send: %w", err)
		}

		if s.waitForStatus(wantSeq, minDuration(config.RetryInterval, time.Until(deadline))) {
			return Ok, nil
		}
		if time.Now().After(deadline) {
			return TimedOut, fmt.Errorf("sender: no status echoing seq %d within %s", wantSeq, config.AckWaitTimeout)
		}
	}
}

// waitForStatus listens until timeout for a Status packet from the
// receiver whose LastCmdSeq matches wantSeq.
func (s *Sender) waitForStatus(wantSeq uint16, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		frame, err := s.link.Receive(remaining)
		if err != nil {
			return false
		}
		pkt, err := codec.Deserialize(frame.Data, s.key)
		if err != nil {
			continue
		}
		if pkt.Src != config.NodeReceiver || pkt.Type != codec.MsgStatus {
			continue
		}
		status, ok := pkt.Payload.(codec.StatusPayload)
		if !ok {
			continue
		}
		if status.LastCmdSeq == wantSeq {
			return true
		}
	}
}

func (s *Sender) nextSeq() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
