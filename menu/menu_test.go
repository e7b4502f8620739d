// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package menu

import (
	"testing"
	"time"
)

func TestShortPressCyclesSelection(t *testing.T) {
	m := New()
	now := time.Now()

	m.ButtonDown(now)
	if m.State() != Visible {
		t.Fatal("menu did not show on first press")
	}
	now = now.Add(100 * time.Millisecond)
	m.ButtonUp(now)
	if m.Selected() != ItemStop {
		t.Fatalf("selected = %v, want ItemStop", m.Selected())
	}

	now = now.Add(50 * time.Millisecond)
	m.ButtonDown(now)
	now = now.Add(100 * time.Millisecond)
	m.ButtonUp(now)
	if m.Selected() != ItemRun10min {
		t.Fatalf("selected = %v, want ItemRun10min", m.Selected())
	}
}

func TestLongPressActivatesAndHides(t *testing.T) {
	m := New()
	now := time.Now()

	m.ButtonDown(now)
	now = now.Add(900 * time.Millisecond)
	m.ButtonUp(now)

	if m.State() != Hidden {
		t.Fatal("menu did not hide after a long press")
	}
	item, ok := m.IsItemActivated()
	if !ok {
		t.Fatal("IsItemActivated returned false after a long press")
	}
	if item != ItemStart {
		t.Fatalf("activated item = %v, want ItemStart", item)
	}

	if _, ok := m.IsItemActivated(); ok {
		t.Fatal("IsItemActivated returned true a second time")
	}
}

func TestVisibleTimeoutHidesMenu(t *testing.T) {
	m := New()
	now := time.Now()
	m.ButtonDown(now)
	now = now.Add(50 * time.Millisecond)
	m.ButtonUp(now) // short press, still visible

	now = now.Add(VisibleTimeout + time.Second)
	m.Tick(now)

	if m.State() != Hidden {
		t.Fatal("menu did not auto-hide after its timeout")
	}
}

func TestDebounceIgnoresRapidEdges(t *testing.T) {
	m := New()
	now := time.Now()
	m.ButtonDown(now)
	now = now.Add(5 * time.Millisecond) // inside the debounce window
	m.ButtonUp(now)

	if m.State() != Visible {
		t.Fatal("menu should still be visible; the release was debounced")
	}
	if m.Selected() != ItemStart {
		t.Fatal("debounced release should not have advanced the selection")
	}
}
