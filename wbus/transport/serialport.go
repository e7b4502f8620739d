// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialPort adapts a go.bug.st/serial.Port to this package's Port
// interface. The serial library has no notion of a UART break
// condition, so Break fakes one the way a software bit-banged break
// is conventionally done on a port that can't assert it directly:
// drop to a baud rate low enough that a single zero byte's start bit
// and eight zero data bits hold the line low for a long stretch (about
// 180ms at 50 baud), wait the requested duration, then restore the
// working mode.
type SerialPort struct {
	serial.Port
	mode *serial.Mode
}

// WrapSerial returns a Port that can satisfy Break on top of sp,
// which was opened with mode.
func WrapSerial(sp serial.Port, mode *serial.Mode) *SerialPort {
	return &SerialPort{Port: sp, mode: mode}
}

func (s *SerialPort) Break(d time.Duration) error {
	breakBaud := &serial.Mode{BaudRate: 50, DataBits: s.mode.DataBits, Parity: serial.NoParity, StopBits: serial.OneStopBit}
	if err := s.Port.SetMode(breakBaud); err != nil {
		return fmt.Errorf("transport: enter break baud: %w", err)
	}
	if _, err := s.Port.Write([]byte{0x00}); err != nil {
		return fmt.Errorf("transport: write break byte: %w", err)
	}
	if d > 0 {
		time.Sleep(d)
	}
	if err := s.Port.SetMode(s.mode); err != nil {
		return fmt.Errorf("transport: restore mode after break: %w", err)
	}
	return nil
}
