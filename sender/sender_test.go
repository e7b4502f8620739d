// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sender

import (
	"bytes"
	"testing"
	"time"

	"github.com/webasto-remote/wlr/internal/config"
	"github.com/webasto-remote/wlr/protocol/cipher"
	"github.com/webasto-remote/wlr/protocol/codec"
	"github.com/webasto-remote/wlr/radio/memlink"
)

var testKey = bytes.Repeat([]byte{0x11}, cipher.KeySize)

func TestSubmitRejectsZeroMinutesRunMinutes(t *testing.T) {
	link, _ := memlink.Pair()
	s := New(link, testKey)

	result, err := s.Submit(codec.CmdRunMinutes, 0)
	if result != RejectedPreFlight || err == nil {
		t.Fatalf("got (%v, %v), want (RejectedPreFlight, error)", result, err)
	}
}

func TestSubmitOkOnMatchingStatus(t *testing.T) {
	link, peer := memlink.Pair()
	s := New(link, testKey)

	go func() {
		frame, err := peer.Receive(time.Second)
		if err != nil {
			t.Errorf("peer receive: %v", err)
			return
		}
		pkt, err := codec.Deserialize(frame.Data, testKey)
		if err != nil {
			t.Errorf("deserialize: %v", err)
			return
		}

		statusPkt := &codec.Packet{
			Type: codec.MsgStatus, Src: config.NodeReceiver, Dst: config.NodeSender, Seq: pkt.Seq,
			Payload: codec.StatusPayload{State: codec.HeaterRunning, LastCmdSeq: pkt.Seq},
		}
		statusFrame, err := statusPkt.Serialize(testKey)
		if err != nil {
			t.Errorf("serialize status: %v", err)
			return
		}
		if err := peer.Send(statusFrame); err != nil {
			t.Errorf("send status: %v", err)
		}
	}()

	result, err := s.Submit(codec.CmdStart, 30)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result != Ok {
		t.Fatalf("result = %v, want Ok", result)
	}
}

func TestSubmitTimesOutWithNoMatchingStatus(t *testing.T) {
	link, _ := memlink.Pair()
	s := New(link, testKey)

	result, err := s.Submit(codec.CmdStop, 0)
	if err == nil {
		t.Fatal("Submit succeeded with no peer answering")
	}
	if result != TimedOut {
		t.Fatalf("result = %v, want TimedOut", result)
	}
}
