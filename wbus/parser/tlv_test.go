// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package parser

import "testing"

func TestParseStatusTLVBasicFields(t *testing.T) {
	// cmd 0x50, sub 0x30, then id 0x0C (temp raw=72 -> 22C), id 0x0E (voltage 12480mV)
	payload := []byte{0x50, 0x30, 0x0C, 72, 0x0E, 0x30, 0xC0}
	snap, ok := ParseStatusTLV(payload)
	if !ok {
		t.Fatal("ParseStatusTLV returned false on well-formed payload")
	}
	if !snap.Valid {
		t.Fatal("snapshot not marked valid")
	}
	if snap.TemperatureC != 22 {
		t.Errorf("TemperatureC = %d, want 22", snap.TemperatureC)
	}
	if snap.VoltageMV != 0x30C0 {
		t.Errorf("VoltageMV = %d, want %d", snap.VoltageMV, 0x30C0)
	}
}

func TestParseStatusTLVRejectsWrongCommand(t *testing.T) {
	payload := []byte{0x10, 0x30, 0x0C, 72}
	if _, ok := ParseStatusTLV(payload); ok {
		t.Fatal("accepted a non-multi-status command byte")
	}
}

func TestParseStatusTLVRejectsUnknownID(t *testing.T) {
	payload := []byte{0x50, 0x30, 0xFE, 1, 2}
	if _, ok := ParseStatusTLV(payload); ok {
		t.Fatal("accepted an unknown status ID instead of stopping")
	}
}

func TestParseStatusTLVAmbiguousWidthLooksAhead(t *testing.T) {
	// 0x57 followed by a known ID byte two positions later selects the
	// 2-byte interpretation of 0x57's value.
	payload := []byte{0x50, 0x30, 0x57, 0x00, 0x01, 0x03, 9}
	snap, ok := ParseStatusTLV(payload)
	if !ok {
		t.Fatal("ParseStatusTLV returned false")
	}
	if snap.Status57 != 0x0001 {
		t.Errorf("Status57 = 0x%04X, want 0x0001", snap.Status57)
	}
	if snap.Status03 != 9 {
		t.Errorf("Status03 = %d, want 9", snap.Status03)
	}
}

func TestParseStatusTLVTooShort(t *testing.T) {
	if _, ok := ParseStatusTLV([]byte{0x50}); ok {
		t.Fatal("accepted a too-short payload")
	}
}
