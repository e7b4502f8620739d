// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Command receiver runs the heater-side node: it listens for
// encrypted commands over LoRa, drives the heater over W-BUS, and
// optionally bridges status to MQTT.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

const responseTimeout = 250 * time.Millisecond

var (
	radioPort    string
	radioAddr    uint16
	wbusPort     string
	statePath    string
	mqttBroker   string
	mqttUsername string
	mqttPassword string
	mqttPrefix   string
)

var rootCmd = &cobra.Command{
	Use:   "wlr-receiver",
	Short: "Webasto LoRa remote heater control — receiver node",
	Long: `Receiver runs on the heater side: it decrypts commands arriving over
LoRa, drives the heater over its W-BUS diagnostic line, and acknowledges
each command back to the fob. It can optionally bridge status to MQTT for
HomeAssistant.

The pre-shared key is read from the WLR_PSK environment variable (32 hex
characters) or prompted for interactively if unset.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&radioPort, "radio-port", "", "LoRa module serial device (empty uses an in-memory link for testing)")
	rootCmd.PersistentFlags().Uint16Var(&radioAddr, "radio-addr", 2, "LoRa module address")
	rootCmd.PersistentFlags().StringVar(&wbusPort, "wbus-port", "", "W-BUS UART device")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "receiver-state.cbor", "path to persisted receiver state")
	rootCmd.PersistentFlags().StringVar(&mqttBroker, "mqtt-broker", "", "MQTT broker URL, e.g. tcp://localhost:1883 (empty disables the bridge)")
	rootCmd.PersistentFlags().StringVar(&mqttUsername, "mqtt-username", "", "MQTT username")
	rootCmd.PersistentFlags().StringVar(&mqttPassword, "mqtt-password", "", "MQTT password")
	rootCmd.PersistentFlags().StringVar(&mqttPrefix, "mqtt-prefix", "wlr/heater1", "MQTT topic prefix")

	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
