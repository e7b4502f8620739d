// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/webasto-remote/wlr/wbus/transport"
)

var replayCmd = &cobra.Command{
	Use:   "replay <bench-file>",
	Short: "Replay a recorded bench file as the heater, without the physical model",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

// runReplay feeds a previously --record'd bench file back out over the
// heater port at its original cadence, so cmd/receiver can be exercised
// against a fixed, reproducible sequence of responses instead of the
// live model's drift and scenarios.
func runReplay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := replayBenchFile(args[0])
	if err != nil {
		return err
	}
	log.Printf("simulator: replaying %d recorded frames from %s", len(records), args[0])

	port, info, err := openHeaterPort()
	if err != nil {
		return fmt.Errorf("opening W-BUS port: %w", err)
	}
	defer port.Close()
	log.Printf("simulator: W-BUS port: %s", info)

	tr := transport.New(port)
	defer tr.Close()

	start := time.Now()
	for i, rec := range records {
		if len(rec.Payload) < 1 {
			continue
		}
		due := start.Add(time.Duration(rec.OffsetMS) * time.Millisecond)
		if d := time.Until(due); d > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(d):
			}
		}
		if err := tr.SendResponse(rec.Payload[0], rec.Payload[1:]); err != nil {
			return fmt.Errorf("replaying frame %d: %w", i, err)
		}
	}

	log.Printf("simulator: replay complete")
	return nil
}
