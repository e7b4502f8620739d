// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/webasto-remote/wlr/protocol/codec"
	"github.com/webasto-remote/wlr/wbus/transport"
)

// fakePort is an in-memory transport.Port, the same shape as the
// transport package's own test double: writes land in tx, and bytes
// pushed onto rx via feed() become what the transport's reader sees.
type fakePort struct {
	mu    sync.Mutex
	rx    chan byte
	broke int
}

func newFakePort() *fakePort {
	return &fakePort{rx: make(chan byte, 4096)}
}

func (p *fakePort) Read(b []byte) (int, error) {
	v, ok := <-p.rx
	if !ok {
		return 0, io.EOF
	}
	b[0] = v
	return 1, nil
}

func (p *fakePort) Write(b []byte) (int, error) { return len(b), nil }
func (p *fakePort) Close() error                { close(p.rx); return nil }
func (p *fakePort) Break(time.Duration) error {
	p.mu.Lock()
	p.broke++
	p.mu.Unlock()
	return nil
}

func (p *fakePort) feed(b ...byte) {
	for _, v := range b {
		p.rx <- v
	}
}

func checksum(header, length byte, payload []byte) byte {
	x := header ^ length
	for _, b := range payload {
		x ^= b
	}
	return x
}

// buildFrame assembles one W-BUS frame: header, length, cmd+data,
// checksum, mirroring the wire layout wbus/transport decodes.
func buildFrame(header, cmd byte, data []byte) []byte {
	length := byte(len(data) + 2)
	payload := append([]byte{cmd}, data...)
	csum := checksum(header, length, payload)
	return append([]byte{header, length}, append(payload, csum)...)
}

func TestOpStateToHeaterState(t *testing.T) {
	cases := []struct {
		opState uint8
		want    codec.HeaterState
	}{
		{0x00, codec.HeaterOff},
		{0x04, codec.HeaterOff},
		{0x01, codec.HeaterRunning},
		{0x03, codec.HeaterRunning},
		{0x08, codec.HeaterRunning},
		{0xFF, codec.HeaterRunning},
	}
	for _, c := range cases {
		if got := opStateToHeaterState(c.opState); got != c.want {
			t.Errorf("opStateToHeaterState(0x%02X) = %v, want %v", c.opState, got, c.want)
		}
	}
}

func TestSendWithAckSucceedsOnAck(t *testing.T) {
	port := newFakePort()
	tr := transport.New(port)
	defer tr.Close()
	ctrl := newWBusController(tr)

	port.feed(buildFrame(transport.RxHeader, 0x21|0x80, []byte{10})...)

	if err := ctrl.Start(10); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if ctrl.commandFailed() {
		t.Fatal("commandFailed() = true after an acked command")
	}
}

func TestSendWithAckExhaustsRetriesAndReportsHeaterError(t *testing.T) {
	port := newFakePort()
	tr := transport.New(port)
	defer tr.Close()
	ctrl := newWBusController(tr)

	// No ack is ever fed, so every one of wbusCommandRetries attempts
	// times out.
	if err := ctrl.Stop(); err == nil {
		t.Fatal("Stop succeeded with no ack ever sent")
	}
	if !ctrl.commandFailed() {
		t.Fatal("commandFailed() = false after exhausting every retry")
	}

	port.feed(buildFrame(transport.RxHeader, 0x50, []byte{0x07, 0x00})...)
	status, err := ctrl.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.State != codec.HeaterError {
		t.Fatalf("State = %v, want HeaterError after a failed command", status.State)
	}
}

type fakeTLVCache struct {
	supported, known bool
	recorded         map[uint8]bool
}

func (f *fakeTLVCache) SupportsTLV(id uint8) (supported, known bool) {
	return f.supported, f.known
}

func (f *fakeTLVCache) RecordTLVSupport(id uint8, supported bool) error {
	if f.recorded == nil {
		f.recorded = make(map[uint8]bool)
	}
	f.recorded[id] = supported
	return nil
}

func TestStatusFallsBackToSimplePagesWhenCachedUnsupported(t *testing.T) {
	port := newFakePort()
	tr := transport.New(port)
	defer tr.Close()
	ctrl := newWBusController(tr)
	ctrl.setCache(&fakeTLVCache{supported: false, known: true})

	port.feed(buildFrame(transport.RxHeader, 0x50, []byte{0x07, 0x00})...)
	// Measurements page 0x05: tempC = data[0]-50, voltage = be16(data[1],data[2]),
	// flame = data[3], heaterPower_x10 = be16(data[4],data[5]).
	port.feed(buildFrame(transport.RxHeader, 0x50, []byte{0x05, 70, 0x2E, 0xE0, 1, 0x00, 0x64})...)

	status, err := ctrl.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.TemperatureC != 20 {
		t.Fatalf("TemperatureC = %d, want 20", status.TemperatureC)
	}
	if status.VoltageMV != 12000 {
		t.Fatalf("VoltageMV = %d, want 12000", status.VoltageMV)
	}
	if status.PowerW != 10 {
		t.Fatalf("PowerW = %d, want 10", status.PowerW)
	}
}
