// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package memlink implements radio.Link entirely in-process with a
// bounded ring buffer per direction, modeled on the nrfcomm pack's
// stub radio driver. It backs the sender and receiver unit tests,
// where two memlink ends are cross-wired so sends on one appear as
// receives on the other, and the CLIs' fallback link when no radio
// port is given.
package memlink

import (
	"errors"
	"sync"
	"time"

	"github.com/webasto-remote/wlr/radio"
)

const ringCapacity = 64

var errClosed = errors.New("memlink: link closed")

// Link is an in-memory radio.Link. Pair constructs two cross-wired
// Links for sender/receiver tests; New constructs a single Link whose
// peer side is driven directly via Deliver, useful when only one end
// needs to be a real radio.Link.
type Link struct {
	mu     sync.Mutex
	cond   *sync.Cond
	rx     ringBuffer
	peer   *Link
	closed bool
	asleep bool
}

// New returns a Link with no peer wired; use Deliver to inject
// frames it should receive. Frames sent on an unpaired Link are
// discarded.
func New() *Link {
	l := &Link{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Pair returns two Links wired so a.Send delivers to b.Receive and
// vice versa, simulating the LoRa air interface between the sender
// and receiver nodes in tests.
func Pair() (a, b *Link) {
	a, b = New(), New()
	a.peer, b.peer = b, a
	return a, b
}

func (l *Link) Send(frame []byte) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return errClosed
	}
	peer := l.peer
	l.mu.Unlock()

	cp := append([]byte(nil), frame...)
	if peer != nil {
		peer.deliver(radio.Frame{Data: cp})
	}
	return nil
}

// Deliver injects a frame as if received over the air, for use by
// callers (or the simulator bridge) standing in for a peer. There is
// no real radio underneath memlink to measure signal quality, so the
// delivered frame reports RSSI/SNR of zero; DeliverWithSignal lets a
// test inject specific values.
func (l *Link) Deliver(frame []byte) {
	l.deliver(radio.Frame{Data: append([]byte(nil), frame...)})
}

// DeliverWithSignal is Deliver plus explicit RSSI/SNR, for tests that
// exercise the receiver's signal-quality reporting.
func (l *Link) DeliverWithSignal(frame []byte, rssiDbm, snrDb int8) {
	l.deliver(radio.Frame{Data: append([]byte(nil), frame...), RSSIDbm: rssiDbm, SNRDb: snrDb})
}

func (l *Link) deliver(frame radio.Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rx.push(frame)
	l.cond.Broadcast()
}

func (l *Link) Receive(timeout time.Duration) (radio.Frame, error) {
	deadline := time.Now().Add(timeout)
	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		if frame, ok := l.rx.pop(); ok {
			return frame, nil
		}
		if l.closed {
			return radio.Frame{}, errClosed
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return radio.Frame{}, radio.ErrTimeout
		}
		timer := time.AfterFunc(remaining, l.cond.Broadcast)
		l.cond.Wait()
		timer.Stop()
	}
}

func (l *Link) TryReceive() (radio.Frame, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if frame, ok := l.rx.pop(); ok {
		return frame, nil
	}
	return radio.Frame{}, radio.ErrTimeout
}

func (l *Link) Sleep() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.asleep = true
	return nil
}

func (l *Link) Idle() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.asleep = false
	return nil
}

// Asleep reports whether Sleep has been called without a matching
// Idle, for use in tests of receiver power-state logic.
func (l *Link) Asleep() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.asleep
}

func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.cond.Broadcast()
	return nil
}

type ringBuffer struct {
	data       [ringCapacity]radio.Frame
	head, tail int
	count      int
}

func (rb *ringBuffer) push(frame radio.Frame) {
	if rb.count == ringCapacity {
		rb.data[rb.tail] = radio.Frame{}
		rb.head = (rb.head + 1) % ringCapacity
		rb.count--
	}
	rb.data[rb.tail] = frame
	rb.tail = (rb.tail + 1) % ringCapacity
	rb.count++
}

func (rb *ringBuffer) pop() (radio.Frame, bool) {
	if rb.count == 0 {
		return radio.Frame{}, false
	}
	frame := rb.data[rb.head]
	rb.data[rb.head] = radio.Frame{}
	rb.head = (rb.head + 1) % ringCapacity
	rb.count--
	return frame, true
}
