// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Command simulator is a bench aid: it plays the heater side of the
// W-BUS protocol against a small internal physical model, so
// cmd/receiver can be exercised without real heater hardware. It is
// not part of the core sender/receiver link being specified.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	wbusPort   string
	wsAddr     string
	recordPath string
)

var rootCmd = &cobra.Command{
	Use:   "wlr-simulator",
	Short: "Bench stand-in for a W-BUS parking heater",
	Long: `Simulator answers W-BUS requests (start/stop/status) the way a real
parking heater would, driven by a small internal model with configurable
temperature/voltage/power drift and a handful of fault scenarios. It exists
to exercise cmd/receiver's W-BUS controller without physical heater
hardware attached.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&wbusPort, "wbus-port", "", "W-BUS UART device to act as the heater on (empty starts an in-process loopback pair)")
	rootCmd.PersistentFlags().StringVar(&wsAddr, "ws-addr", "", "address to serve a WebSocket status feed on, e.g. :8090 (empty disables it)")
	rootCmd.PersistentFlags().StringVar(&recordPath, "record", "", "record every answered W-BUS frame to this CBOR bench file (empty disables recording)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
