// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/webasto-remote/wlr/internal/cliconn"
	"github.com/webasto-remote/wlr/internal/config"
	"github.com/webasto-remote/wlr/menu"
	"github.com/webasto-remote/wlr/mqttbridge"
	"github.com/webasto-remote/wlr/protocol/codec"
	"github.com/webasto-remote/wlr/receiver"
	"github.com/webasto-remote/wlr/wbus/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the receiver's main loop",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	key, err := cliconn.ResolvePSK()
	if err != nil {
		return err
	}

	link, linkInfo, err := cliconn.OpenLink(radioPort, radioAddr)
	if err != nil {
		return fmt.Errorf("opening radio link: %w", err)
	}
	defer link.Close()
	log.Printf("receiver: radio link: %s", linkInfo)

	wbusPort, err := openWBusPort()
	if err != nil {
		return fmt.Errorf("opening W-BUS port: %w", err)
	}
	defer wbusPort.Close()
	tr := transport.New(wbusPort)
	defer tr.Close()

	controller := newWBusController(tr)

	store := receiver.NewStore(statePath)
	rcv, err := receiver.New(link, key, controller, store)
	if err != nil {
		return fmt.Errorf("initializing receiver: %w", err)
	}
	controller.setCache(rcv)

	// handle is the shared command dispatch funnel: radio commands go
	// straight to rcv.HandleFrame/execute, but MQTT and the local panel
	// both bypass the LoRa hop and call the controller directly, since
	// the receiver already has the hardware on this end of the link.
	handle := func(kind codec.CommandKind, minutes uint8) error {
		switch kind {
		case codec.CmdStop:
			return controller.Stop()
		case codec.CmdStart, codec.CmdRunMinutes:
			return controller.Start(minutes)
		case codec.CmdQueryStatus:
			_, err := controller.Status()
			return err
		default:
			return fmt.Errorf("unsupported command kind %d", kind)
		}
	}

	var bridge *mqttbridge.Bridge
	if mqttBroker != "" {
		bridge, err = mqttbridge.New(mqttbridge.Options{
			Broker: mqttBroker, ClientID: "wlr-receiver", Username: mqttUsername,
			Password: mqttPassword, TopicPrefix: mqttPrefix,
			OnConnectLost: func(err error) { log.Printf("receiver: mqtt connection lost: %v", err) },
		}, handle)
		if err != nil {
			log.Printf("receiver: mqtt bridge disabled: %v", err)
			bridge = nil
		} else {
			bridge.PublishDiscovery()
			bridge.PublishDiagnosticDiscovery()
			defer bridge.Close()
		}
	}

	go statusLoop(ctx, rcv, controller, bridge)

	panelEvents := make(chan panelEvent, 8)
	go runPanelInput(ctx, panelEvents)
	go panelLoop(ctx, panelEvents, handle)

	log.Printf("receiver: serving (state=%s)", statePath)
	err = rcv.Run(ctx, config.IdleListenWindow, config.IdleSleepPeriod)
	if err != nil && ctx.Err() != nil {
		log.Printf("receiver: shutting down: %v", rcv.Stats())
		return nil
	}
	return err
}

func statusLoop(ctx context.Context, rcv *receiver.Receiver, controller *wbusController, bridge *mqttbridge.Bridge) {
	ticker := time.NewTicker(config.StatusPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rcv.PublishStatus(); err != nil {
				log.Printf("receiver: publish status over LoRa: %v", err)
			}
			if bridge != nil {
				if status, err := controller.Status(); err != nil {
					log.Printf("receiver: read status for mqtt: %v", err)
				} else {
					bridge.PublishStatus(status)
				}
			}
		}
	}
}

// panelLoop drives the menu FSM from panel button edges and feeds any
// activation through the same command dispatch funnel MQTT uses.
// Tick also runs on every edge, so the visible-timeout auto-hide is
// re-checked without a separate idle poll.
func panelLoop(ctx context.Context, events <-chan panelEvent, handle func(codec.CommandKind, uint8) error) {
	mnu := menu.New()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.down {
				mnu.ButtonDown(ev.at)
			} else {
				mnu.ButtonUp(ev.at)
			}
			mnu.Tick(ev.at)
			if item, activated := mnu.IsItemActivated(); activated {
				kind, minutes := itemCommand(item)
				log.Printf("receiver: panel activated %s", item)
				if err := handle(kind, minutes); err != nil {
					log.Printf("receiver: panel command failed: %v", err)
				}
			}
		}
	}
}

func openWBusPort() (transport.Port, error) {
	mode := &serial.Mode{BaudRate: 2400, DataBits: 8, Parity: serial.EvenParity, StopBits: serial.OneStopBit}
	sp, err := serial.Open(wbusPort, mode)
	if err != nil {
		return nil, err
	}
	return transport.WrapSerial(sp, mode), nil
}
