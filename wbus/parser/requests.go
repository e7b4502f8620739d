// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package parser

import (
	"fmt"
	"time"

	"github.com/webasto-remote/wlr/wbus/transport"
)

// Requester is the subset of *transport.Transport these helpers need,
// kept as an interface so they can be driven by a fake in tests.
type Requester interface {
	SendCommand(cmd byte, data []byte) error
	ReadFrame(timeout time.Duration) (transport.Frame, error)
}

// responseTimeout bounds how long a single request/response exchange
// waits for the heater to answer.
const responseTimeout = 250 * time.Millisecond

// ReadOperatingState issues command 0x50 index 0x07 and returns the
// heater's coarse operating state byte.
func ReadOperatingState(r Requester) (uint8, error) {
	if err := r.SendCommand(0x50, []byte{0x07}); err != nil {
		return 0, fmt.Errorf("parser: send opstate request: %w", err)
	}

	deadline := time.Now().Add(responseTimeout)
	for time.Now().Before(deadline) {
		frame, err := r.ReadFrame(responseTimeout)
		if err != nil {
			return 0, err
		}
		if frame.Header != transport.RxHeader {
			continue
		}
		data := frame.Data()
		if len(data) < 1 {
			continue
		}
		cmdAck := frame.Command()
		idxAck := data[0]
		if cmdAck&0x7F != 0x50 || idxAck != 0x07 {
			continue
		}
		if len(data) < 2 {
			continue
		}
		return data[1], nil
	}
	return 0, fmt.Errorf("parser: opstate request timed out")
}

// RequestStatusMulti sends a "0x50 0x30 <ids...>" multi-status
// request. The caller reads and decodes the response with
// ParseStatusTLV once it arrives.
func RequestStatusMulti(r Requester, ids []byte) error {
	if len(ids) == 0 {
		return fmt.Errorf("parser: no status ids requested")
	}
	if len(ids) > 64 {
		return fmt.Errorf("parser: too many status ids: %d", len(ids))
	}
	data := append([]byte{0x30}, ids...)
	return r.SendCommand(0x50, data)
}

// StateFlags decodes status page 0x03: device state bitfield.
type StateFlags struct {
	HeatRequest   bool
	VentRequest   bool
	CombustionFan bool
	GlowPlug      bool
	FuelPump      bool
	NozzleHeating bool
}

// ReadStateFlags issues status page 0x03 (command 0x50, index 0x03)
// and decodes the response bitfield. Bits 2 and 3 are unknown/reserved in every known heater
// firmware and are not exposed.
func ReadStateFlags(r Requester) (StateFlags, error) {
	data, err := readSimplePage(r, 0x03)
	if err != nil {
		return StateFlags{}, err
	}
	if len(data) < 1 {
		return StateFlags{}, fmt.Errorf("parser: state flags page too short: %d bytes", len(data))
	}
	b := data[0]
	return StateFlags{
		HeatRequest:   b&0x01 != 0,
		VentRequest:   b&0x02 != 0,
		CombustionFan: b&0x10 != 0,
		GlowPlug:      b&0x20 != 0,
		FuelPump:      b&0x40 != 0,
		NozzleHeating: b&0x80 != 0,
	}, nil
}

// Actuators decodes status page 0x04: actuator percentages/rates.
type Actuators struct {
	GlowPlugPct      float64 // 0-100%
	FuelPumpHz       float64 // 0-5Hz
	CombustionFanPct float64 // 0-200%
}

// ReadActuators issues status page 0x04 and decodes the three
// actuator readings, each a raw byte scaled against its known
// hardware range. The page carries 4 unknown/reserved bytes before
// the three readings and one trailing unknown byte after.
func ReadActuators(r Requester) (Actuators, error) {
	data, err := readSimplePage(r, 0x04)
	if err != nil {
		return Actuators{}, err
	}
	if len(data) < 7 {
		return Actuators{}, fmt.Errorf("parser: actuator page too short: %d bytes", len(data))
	}
	return Actuators{
		GlowPlugPct:      float64(data[4]) * 100 / 255,
		FuelPumpHz:       float64(data[5]) * 5 / 255,
		CombustionFanPct: float64(data[6]) * 200 / 255,
	}, nil
}

// Measurements decodes status page 0x05: temperature, supply voltage,
// flame detection, and heater power draw.
type Measurements struct {
	TemperatureC   int16
	VoltageMV      uint16
	Flame          uint8
	HeaterPowerX10 uint16 // heater power, in tenths of a watt
}

// ReadMeasurements issues status page 0x05 and decodes it. It is the
// fallback source for temperature and voltage when the multi-status
// TLV request isn't supported by this heater's firmware.
func ReadMeasurements(r Requester) (Measurements, error) {
	data, err := readSimplePage(r, 0x05)
	if err != nil {
		return Measurements{}, err
	}
	if len(data) < 6 {
		return Measurements{}, fmt.Errorf("parser: measurements page too short: %d bytes", len(data))
	}
	return Measurements{
		TemperatureC:   int16(data[0]) - 50,
		VoltageMV:      be16(data[1], data[2]),
		Flame:          data[3],
		HeaterPowerX10: be16(data[4], data[5]),
	}, nil
}

// Counters decodes status page 0x06: lifetime counters.
type Counters struct {
	WorkingHours   float64
	OperatingHours float64
	StartCounter   uint16
}

// ReadCounters issues status page 0x06 and decodes the heater's
// lifetime counters: working hours+minutes and operating
// hours+minutes, each a 16-bit hour field followed by a one-byte
// minute remainder, then a 16-bit lifetime start counter.
func ReadCounters(r Requester) (Counters, error) {
	data, err := readSimplePage(r, 0x06)
	if err != nil {
		return Counters{}, err
	}
	if len(data) < 8 {
		return Counters{}, fmt.Errorf("parser: counters page too short: %d bytes", len(data))
	}
	return Counters{
		WorkingHours:   float64(be16(data[0], data[1])) + float64(data[2])/60,
		OperatingHours: float64(be16(data[3], data[4])) + float64(data[5])/60,
		StartCounter:   be16(data[6], data[7]),
	}, nil
}

// readSimplePage issues a "0x50 <pageID>" status page request — the
// same command 0x50 the operating-state query uses, just with a
// different index byte — and returns the response payload with the
// index byte stripped, following sendCommand(0x50, &index, 1) in the
// original firmware.
func readSimplePage(r Requester, pageID byte) ([]byte, error) {
	if err := r.SendCommand(0x50, []byte{pageID}); err != nil {
		return nil, fmt.Errorf("parser: send page 0x%02X request: %w", pageID, err)
	}

	deadline := time.Now().Add(responseTimeout)
	for time.Now().Before(deadline) {
		frame, err := r.ReadFrame(responseTimeout)
		if err != nil {
			return nil, err
		}
		if frame.Header != transport.RxHeader {
			continue
		}
		data := frame.Data()
		if frame.Command()&0x7F != 0x50 || len(data) < 1 || data[0] != pageID {
			continue
		}
		return data[1:], nil
	}
	return nil, fmt.Errorf("parser: page 0x%02X request timed out", pageID)
}
