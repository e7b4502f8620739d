// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"net"
	"time"
)

// loopbackPort adapts a net.Conn (from net.Pipe) into wbus/transport's
// Port interface for bench runs with no real UART hardware attached:
// Break is a no-op since there is no physical line to pull low.
type loopbackPort struct {
	net.Conn
}

func (loopbackPort) Break(time.Duration) error { return nil }

// newLoopbackPair returns two cross-wired ports: one for the simulator
// to act as the heater on, one for an in-process test controller to
// act as the bus master on.
func newLoopbackPair() (heaterSide, controllerSide loopbackPort) {
	a, b := net.Pipe()
	return loopbackPort{a}, loopbackPort{b}
}
