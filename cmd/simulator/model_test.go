// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"testing"
	"time"
)

func TestModelStartTransitionsToStarting(t *testing.T) {
	m := newModel()
	now := time.Now()
	m.start(30, now)

	if m.state != stateStarting {
		t.Fatalf("state = %v, want starting", m.state)
	}
	if m.requestedMins != 30 {
		t.Fatalf("requestedMins = %d, want 30", m.requestedMins)
	}
}

func TestModelStopBeginsCooling(t *testing.T) {
	m := newModel()
	now := time.Now()
	m.start(10, now)
	m.setState(stateRunning, now)

	m.stop(now)
	if m.state != stateCooling {
		t.Fatalf("state = %v, want cooling", m.state)
	}
}

func TestModelTickWarmsTowardTargetWhileRunning(t *testing.T) {
	m := newModel()
	now := time.Now()
	m.setState(stateRunning, now)
	m.tempC = 20

	for i := 0; i < 50; i++ {
		now = now.Add(200 * time.Millisecond)
		m.tick(now)
	}
	if m.tempC <= 20 {
		t.Fatalf("tempC = %.1f, want it to rise toward targetC while running", m.tempC)
	}
}

func TestModelTempStaysWithinClampedBounds(t *testing.T) {
	m := newModel()
	now := time.Now()
	m.setState(stateRunning, now)

	for i := 0; i < 2000; i++ {
		now = now.Add(200 * time.Millisecond)
		m.tick(now)
		if m.tempC < m.ambientC-5-0.001 || m.tempC > 120.001 {
			t.Fatalf("tempC = %.2f out of bounds", m.tempC)
		}
	}
}
