// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Command sender runs the fob/controller-side node: it submits
// Start/Stop/RunMinutes commands over LoRa and waits for the
// receiver's acknowledgment.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	radioPort string
	radioAddr uint16
)

var rootCmd = &cobra.Command{
	Use:   "wlr-sender",
	Short: "Webasto LoRa remote heater control — sender node",
	Long: `Sender runs on the fob/controller side: it encrypts and submits
Start/Stop/RunMinutes commands over LoRa, retrying until the receiver
acknowledges or the retry budget runs out.

The pre-shared key is read from the WLR_PSK environment variable (32 hex
characters) or prompted for interactively if unset.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&radioPort, "radio-port", "", "LoRa module serial device (empty uses an in-memory link for testing)")
	rootCmd.PersistentFlags().Uint16Var(&radioAddr, "radio-addr", 1, "LoRa module address")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(runMinutesCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
