// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/webasto-remote/wlr/wbus/transport"
)

type fakeRequester struct {
	sentCmd  byte
	sentData []byte
	frames   []transport.Frame
}

func (f *fakeRequester) SendCommand(cmd byte, data []byte) error {
	f.sentCmd = cmd
	f.sentData = data
	return nil
}

func (f *fakeRequester) ReadFrame(time.Duration) (transport.Frame, error) {
	if len(f.frames) == 0 {
		return transport.Frame{}, errors.New("no more frames")
	}
	fr := f.frames[0]
	f.frames = f.frames[1:]
	return fr, nil
}

func TestReadOperatingState(t *testing.T) {
	r := &fakeRequester{
		frames: []transport.Frame{
			{Header: transport.RxHeader, Payload: []byte{0x50, 0x07, 0x02, 0x00}},
		},
	}
	state, err := ReadOperatingState(r)
	if err != nil {
		t.Fatalf("ReadOperatingState: %v", err)
	}
	if state != 0x02 {
		t.Fatalf("state = 0x%02X, want 0x02", state)
	}
	if r.sentCmd != 0x50 {
		t.Fatalf("sent command 0x%02X, want 0x50", r.sentCmd)
	}
}

func TestReadStateFlags(t *testing.T) {
	r := &fakeRequester{
		frames: []transport.Frame{
			{Header: transport.RxHeader, Payload: []byte{0x50 | 0x80, 0x03, 0xA1, 0x00}},
		},
	}
	flags, err := ReadStateFlags(r)
	if err != nil {
		t.Fatalf("ReadStateFlags: %v", err)
	}
	if !flags.HeatRequest || !flags.GlowPlug || !flags.NozzleHeating {
		t.Fatalf("unexpected flags: %+v", flags)
	}
	if flags.VentRequest || flags.CombustionFan || flags.FuelPump {
		t.Fatalf("unexpected flags: %+v", flags)
	}
	if r.sentCmd != 0x50 {
		t.Fatalf("sent command 0x%02X, want 0x50", r.sentCmd)
	}
}

func TestReadStateFlagsRejectsEmptyPage(t *testing.T) {
	r := &fakeRequester{
		frames: []transport.Frame{
			{Header: transport.RxHeader, Payload: []byte{0x50 | 0x80, 0x03, 0x00}},
		},
	}
	if _, err := ReadStateFlags(r); err == nil {
		t.Fatal("ReadStateFlags accepted a page with only the index byte")
	}
}

func TestReadMeasurements(t *testing.T) {
	r := &fakeRequester{
		frames: []transport.Frame{
			{Header: transport.RxHeader, Payload: []byte{0x50 | 0x80, 0x05, 70, 0x2E, 0xE0, 1, 0x00, 0x64, 0x00}},
		},
	}
	m, err := ReadMeasurements(r)
	if err != nil {
		t.Fatalf("ReadMeasurements: %v", err)
	}
	if m.TemperatureC != 20 {
		t.Fatalf("TemperatureC = %d, want 20", m.TemperatureC)
	}
	if m.VoltageMV != 12000 {
		t.Fatalf("VoltageMV = %d, want 12000", m.VoltageMV)
	}
	if m.Flame != 1 {
		t.Fatalf("Flame = %d, want 1", m.Flame)
	}
	if m.HeaterPowerX10 != 100 {
		t.Fatalf("HeaterPowerX10 = %d, want 100", m.HeaterPowerX10)
	}
}

func TestReadActuators(t *testing.T) {
	r := &fakeRequester{
		frames: []transport.Frame{
			{Header: transport.RxHeader, Payload: []byte{0x50 | 0x80, 0x04, 0, 0, 0, 0, 255, 128, 64, 0, 0x00}},
		},
	}
	act, err := ReadActuators(r)
	if err != nil {
		t.Fatalf("ReadActuators: %v", err)
	}
	if act.GlowPlugPct != 100 {
		t.Fatalf("GlowPlugPct = %.1f, want 100", act.GlowPlugPct)
	}
	if act.CombustionFanPct <= 0 {
		t.Fatalf("CombustionFanPct = %.1f, want > 0", act.CombustionFanPct)
	}
}

func TestReadCounters(t *testing.T) {
	r := &fakeRequester{
		frames: []transport.Frame{
			{Header: transport.RxHeader, Payload: []byte{0x50 | 0x80, 0x06, 0x00, 123, 45, 0x01, 200, 30, 0x03, 21, 0x00}},
		},
	}
	ctr, err := ReadCounters(r)
	if err != nil {
		t.Fatalf("ReadCounters: %v", err)
	}
	if ctr.WorkingHours < 122 || ctr.WorkingHours > 124 {
		t.Fatalf("WorkingHours = %.2f, want ~123.75", ctr.WorkingHours)
	}
	if ctr.StartCounter != 0x0315 {
		t.Fatalf("StartCounter = 0x%04X, want 0x0315", ctr.StartCounter)
	}
}

func TestRequestStatusMultiRejectsEmpty(t *testing.T) {
	r := &fakeRequester{}
	if err := RequestStatusMulti(r, nil); err == nil {
		t.Fatal("RequestStatusMulti accepted an empty id list")
	}
}
