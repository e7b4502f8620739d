// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/webasto-remote/wlr/wbus/transport"
)

const tickInterval = 200 * time.Millisecond

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the heater stand-in",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port, info, err := openHeaterPort()
	if err != nil {
		return fmt.Errorf("opening W-BUS port: %w", err)
	}
	defer port.Close()
	log.Printf("simulator: W-BUS port: %s", info)

	tr := transport.New(port)
	defer tr.Close()

	var rec *recorder
	if recordPath != "" {
		rec, err = newRecorder(recordPath, time.Now())
		if err != nil {
			return err
		}
		defer rec.Close()
		log.Printf("simulator: recording answered frames to %s", recordPath)
	}

	sess := &session{tr: tr, rec: rec}

	var broadcaster *statusBroadcaster
	if wsAddr != "" {
		broadcaster = newStatusBroadcaster()
		mux := http.NewServeMux()
		mux.HandleFunc("/status", broadcaster.handleWS)
		server := &http.Server{Addr: wsAddr, Handler: mux}
		go func() {
			log.Printf("simulator: status feed on ws://%s/status", wsAddr)
			if err := server.ListenAndServe(); err != nil && ctx.Err() == nil {
				log.Printf("simulator: websocket server: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			server.Close()
		}()
	}

	m := newModel()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("simulator: shutting down")
			return nil

		case <-ticker.C:
			now := time.Now()
			m.tick(now)
			if broadcaster != nil {
				broadcaster.publish(m.snapshot(now))
			}

		default:
			frame, err := tr.ReadFrame(50 * time.Millisecond)
			if err != nil {
				continue
			}
			handleFrame(m, sess, frame, time.Now())
		}
	}
}

// openHeaterPort opens a real W-BUS UART if --wbus-port is set, or
// falls back to an in-process loopback pair: the simulator keeps the
// heater-facing end and discards the controller-facing end, so no
// controller can reach the heater in that mode. This binary's tests
// build their own pair with newLoopbackPair instead.
func openHeaterPort() (transport.Port, string, error) {
	if wbusPort == "" {
		heaterSide, _ := newLoopbackPair()
		return heaterSide, "in-process loopback (no --wbus-port given)", nil
	}
	mode := &serial.Mode{BaudRate: 2400, DataBits: 8, Parity: serial.EvenParity, StopBits: serial.OneStopBit}
	p, err := serial.Open(wbusPort, mode)
	if err != nil {
		return nil, "", err
	}
	return transport.WrapSerial(p, mode), fmt.Sprintf("serial: %s", wbusPort), nil
}
