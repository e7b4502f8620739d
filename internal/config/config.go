// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config centralizes the timing and addressing constants
// shared by the sender and receiver, and defines a Config struct that
// groups a binary's runtime settings.
package config

import "time"

// Node addresses used as Src/Dst in every codec.Packet.
const (
	NodeSender   = 0x01
	NodeReceiver = 0x02
)

// Link timing. RetryInterval mirrors the W-BUS firmware's own command
// retry cadence; AckWaitTimeout is the sender's total acknowledgement
// budget across every retry, not a per-attempt wait.
const (
	RetryInterval  = 1 * time.Second
	AckWaitTimeout = 10 * time.Second

	// IdleListenWindow is how long the receiver opens its radio to
	// listen for a Command before going back to sleep while Idle.
	IdleListenWindow = 400 * time.Millisecond
	// IdleSleepPeriod is how long the receiver sleeps its radio
	// between listen windows while Idle.
	IdleSleepPeriod = 4 * time.Second
	// RunningPollPeriod is the W-BUS poll and Status emission cadence
	// while the heater is Running or in ExtendedWake.
	RunningPollPeriod = 2 * time.Second
	// ExtendedWakeDuration bounds how long the receiver stays awake
	// and polling after the heater reports Off before returning to
	// Idle, in case a new command arrives right behind the last one.
	ExtendedWakeDuration = 60 * time.Second

	StatusPeriod    = 15 * time.Second
	KeepAlivePeriod = 10 * time.Second
	RenewalWindow   = 30 * time.Second
)

// CommandFreshnessWindow bounds how old a command may be (by wall
// clock, carried out of band by the MQTT bridge) before the receiver
// refuses to act on it even if the LoRa sequence number checks out.
const CommandFreshnessWindow = time.Hour

// Config holds everything a sender or receiver binary needs to start.
// cmd/sender and cmd/receiver keep these settings in their own flag
// variables and do not build a Config.
type Config struct {
	PSK []byte // 16-byte AES-128 key, shared out of band

	SerialPort string // LoRa module device path; empty selects memlink
	RadioAddr  uint16 // module-level address, distinct from codec Src/Dst

	WBusPort string // heater UART device path, receiver only

	MQTTBroker   string // e.g. tcp://localhost:1883, empty disables the bridge
	MQTTUsername string
	MQTTPassword string
	MQTTClientID string

	StatePath string // receiver persistence file path
}
