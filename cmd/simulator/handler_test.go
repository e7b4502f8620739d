// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"testing"
	"time"

	"github.com/webasto-remote/wlr/wbus/parser"
	"github.com/webasto-remote/wlr/wbus/transport"
)

func newTestRig(t *testing.T) (*model, *transport.Transport, *transport.Transport) {
	t.Helper()
	heaterSide, controllerSide := newLoopbackPair()
	heaterTr := transport.New(heaterSide)
	controllerTr := transport.New(controllerSide)
	t.Cleanup(func() {
		heaterTr.Close()
		controllerTr.Close()
	})
	return newModel(), heaterTr, controllerTr
}

func TestHandleFrameAcksStart(t *testing.T) {
	m, heaterTr, controllerTr := newTestRig(t)

	done := make(chan struct{})
	go func() {
		frame, err := heaterTr.ReadFrame(time.Second)
		if err != nil {
			t.Errorf("heater ReadFrame: %v", err)
			close(done)
			return
		}
		handleFrame(m, &session{tr: heaterTr}, frame, time.Now())
		close(done)
	}()

	if err := controllerTr.SendCommand(0x21, []byte{30}); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	<-done

	ack, err := controllerTr.ReadFrame(time.Second)
	if err != nil {
		t.Fatalf("controller ReadFrame: %v", err)
	}
	if ack.Command() != 0x21|ackBit {
		t.Fatalf("ack command = 0x%02X, want 0x%02X", ack.Command(), 0x21|ackBit)
	}
	if m.state != stateStarting {
		t.Fatalf("model state = %v, want starting", m.state)
	}
}

func TestHandleFrameAnswersOperatingStateQuery(t *testing.T) {
	m, heaterTr, controllerTr := newTestRig(t)
	m.setState(stateRunning, time.Now())

	go func() {
		frame, err := heaterTr.ReadFrame(time.Second)
		if err != nil {
			return
		}
		handleFrame(m, &session{tr: heaterTr}, frame, time.Now())
	}()

	opState, err := parser.ReadOperatingState(controllerTr)
	if err != nil {
		t.Fatalf("ReadOperatingState: %v", err)
	}
	if opState != m.state.opStateCode() {
		t.Fatalf("opState = 0x%02X, want 0x%02X", opState, m.state.opStateCode())
	}
}

func TestHandleFrameAnswersMultiStatus(t *testing.T) {
	m, heaterTr, controllerTr := newTestRig(t)
	m.setState(stateRunning, time.Now())
	m.tempC = 25
	m.voltageMV = 12100
	m.powerX10 = 720

	go func() {
		frame, err := heaterTr.ReadFrame(time.Second)
		if err != nil {
			return
		}
		handleFrame(m, &session{tr: heaterTr}, frame, time.Now())
	}()

	if err := parser.RequestStatusMulti(controllerTr, []byte{0x0C, 0x0E, 0x11}); err != nil {
		t.Fatalf("RequestStatusMulti: %v", err)
	}
	frame, err := controllerTr.ReadFrame(time.Second)
	if err != nil {
		t.Fatalf("controller ReadFrame: %v", err)
	}
	snap, ok := parser.ParseStatusTLV(frame.Payload[:len(frame.Payload)-1])
	if !ok {
		t.Fatalf("ParseStatusTLV failed on %v", frame.Payload)
	}
	if snap.TemperatureC != 25 {
		t.Fatalf("TemperatureC = %d, want 25", snap.TemperatureC)
	}
	if snap.VoltageMV != 12100 {
		t.Fatalf("VoltageMV = %d, want 12100", snap.VoltageMV)
	}
	if snap.PowerDeciW != 720 {
		t.Fatalf("PowerDeciW = %d, want 720", snap.PowerDeciW)
	}
}
