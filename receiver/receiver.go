// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package receiver implements the heater-side node: decrypt commands
// arriving over LoRa, drive the heater over W-BUS, acknowledge the
// sender with a Status packet, and persist just enough state (last
// processed sequence number, which status IDs the heater actually
// supports) to survive a power cycle without replaying a stale
// command or re-learning the heater's TLV quirks from scratch.
package receiver

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/webasto-remote/wlr/internal/config"
	"github.com/webasto-remote/wlr/protocol/codec"
	"github.com/webasto-remote/wlr/radio"
)

// HeaterController is the subset of W-BUS behavior the receiver
// drives in response to a command. A wbus-backed implementation
// lives in cmd/receiver; tests use a fake.
type HeaterController interface {
	Start(minutes uint8) error
	Stop() error
	Status() (codec.StatusPayload, error)
}

// phase is the receiver's position in the Idle/Running/ExtendedWake
// control loop described by the wire protocol's lifecycle: deep sleep
// between short listen windows while Idle, continuous W-BUS polling
// while Running, and a bounded grace period after the heater reports
// Off in case another command follows immediately.
type phase int

const (
	phaseIdle phase = iota
	phaseRunning
	phaseExtendedWake
)

// Receiver owns the persisted state, PSK, and heater controller for
// one node. It is not safe for concurrent use by more than one
// goroutine calling Run/HandleFrame at a time.
type Receiver struct {
	link       radio.Link
	key        []byte
	controller HeaterController
	store      *Store

	state PersistedState
	seq   uint16
	stats *Statistics

	// lastRSSIDbm/lastSNRDb are the signal quality of the most recently
	// received frame addressed to this node, stamped into every Status
	// this receiver transmits afterward.
	lastRSSIDbm int8
	lastSNRDb   int8
}

// New loads persisted state from store and returns a ready Receiver.
func New(link radio.Link, key []byte, controller HeaterController, store *Store) (*Receiver, error) {
	st, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Receiver{link: link, key: key, controller: controller, store: store, state: st, stats: newStatistics()}, nil
}

// Stats returns the receiver's running frame statistics.
func (r *Receiver) Stats() *Statistics { return r.stats }

// Run blocks, driving the Idle/Running/ExtendedWake state machine
// until ctx is canceled. While Idle it opens the radio for a short
// listenWindow and, if nothing arrives, puts it to sleep for
// idleSleep before listening again — deep sleep is the normal resting
// state for a battery-backed receiver, modeled here as this blocking
// call rather than an MCU power-down, since this is a host-side
// stand-in for the firmware the spec describes. Once a command starts
// the heater it switches to Running, polling W-BUS and emitting
// Status every config.RunningPollPeriod with no sleep in between. When
// the heater reports Off it holds ExtendedWake for
// config.ExtendedWakeDuration before falling back to Idle.
func (r *Receiver) Run(ctx context.Context, listenWindow, idleSleep time.Duration) error {
	ph := phaseIdle
	var extendedWakeUntil time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch ph {
		case phaseIdle:
			frame, err := r.link.Receive(listenWindow)
			if err != nil {
				if err := r.link.Sleep(); err != nil {
					log.Printf("receiver: sleep: %v", err)
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(idleSleep):
				}
				if err := r.link.Idle(); err != nil {
					log.Printf("receiver: idle: %v", err)
				}
				continue
			}
			started, err := r.HandleFrame(frame)
			if err != nil {
				log.Printf("receiver: dropped frame: %v", err)
			}
			if started {
				ph = phaseRunning
			}

		case phaseRunning, phaseExtendedWake:
			frame, err := r.link.Receive(config.RunningPollPeriod)
			if err == nil {
				started, herr := r.HandleFrame(frame)
				if herr != nil {
					log.Printf("receiver: dropped frame: %v", herr)
				}
				if started {
					ph = phaseRunning
					extendedWakeUntil = time.Time{}
				}
			}

			status, serr := r.pollAndPublish()
			if serr != nil {
				log.Printf("receiver: poll/publish: %v", serr)
				continue
			}

			if status.State == codec.HeaterOff {
				if ph == phaseRunning {
					ph = phaseExtendedWake
					extendedWakeUntil = time.Now().Add(config.ExtendedWakeDuration)
				} else if time.Now().After(extendedWakeUntil) {
					ph = phaseIdle
				}
			} else {
				ph = phaseRunning
				extendedWakeUntil = time.Time{}
			}
		}
	}
}

// HandleFrame decrypts one air frame and, if it is a command
// addressed to this node, executes it (or, if it is a replay of the
// last processed sequence, re-emits the Status the sender already
// missed instead of acting on it again) and replies with a Status
// packet whose LastCmdSeq echoes the command. It reports whether the
// command was a newly executed Start or RunMinutes, so Run can switch
// into its Running phase; this is reported even when the controller
// returned an error for it.
func (r *Receiver) HandleFrame(f radio.Frame) (started bool, err error) {
	r.stats.FramesSeen++

	pkt, err := codec.Deserialize(f.Data, r.key)
	if err != nil {
		r.stats.DecodeErrors++
		return false, fmt.Errorf("receiver: decode: %w", err)
	}
	if pkt.Dst != config.NodeReceiver {
		return false, nil // not for us; a shared frequency may carry other traffic
	}
	r.lastRSSIDbm = f.RSSIDbm
	r.lastSNRDb = f.SNRDb
	if pkt.Type != codec.MsgCommand {
		return false, nil
	}

	cmd, ok := pkt.Payload.(codec.CommandPayload)
	if !ok {
		return false, fmt.Errorf("receiver: command packet carries %T payload", pkt.Payload)
	}

	if r.isReplay(pkt.Seq) {
		r.stats.ReplaysDropped++
		if err := r.sendStatus(pkt.Seq); err != nil {
			return false, fmt.Errorf("receiver: re-ack replay: %w", err)
		}
		return false, nil
	}

	execErr := r.execute(cmd)
	if execErr == nil {
		r.stats.CommandsRun++
	} else {
		log.Printf("receiver: execute: %v", execErr)
	}
	r.state.LastProcessedCmdSeq = pkt.Seq
	if err := r.store.Save(r.state); err != nil {
		log.Printf("receiver: persist state: %v", err)
	}

	r.stats.AcksSent++
	if err := r.sendStatus(pkt.Seq); err != nil {
		return false, err
	}
	return cmd.Kind == codec.CmdStart || cmd.Kind == codec.CmdRunMinutes, nil
}

// isReplay reports whether seq has already been processed. Sequence
// numbers increase monotonically per sender and wrap at 65536; a wrap
// is treated as fresh traffic rather than a replay, since a genuine
// replay attack would reuse a seq the receiver has already advanced
// past, not jump backward across a wraparound boundary.
func (r *Receiver) isReplay(seq uint16) bool {
	if r.state.LastProcessedCmdSeq == 0 {
		return false
	}
	delta := seq - r.state.LastProcessedCmdSeq
	return delta == 0 || delta > 1<<15
}

func (r *Receiver) execute(cmd codec.CommandPayload) error {
	switch cmd.Kind {
	case codec.CmdStop:
		return r.controller.Stop()
	case codec.CmdStart:
		return r.controller.Start(cmd.Minutes)
	case codec.CmdRunMinutes:
		return r.controller.Start(cmd.Minutes)
	case codec.CmdQueryStatus:
		// No W-BUS write: sendStatus (called by HandleFrame right after
		// execute) already performs the single poll this command exists
		// to trigger.
		return nil
	default:
		return fmt.Errorf("receiver: unknown command kind %d", cmd.Kind)
	}
}

// sendStatus reads the heater controller's current status, stamps it
// with lastCmdSeq, and transmits it. This is the protocol's only
// acknowledgement mechanism: there is no separate Ack reply.
func (r *Receiver) sendStatus(lastCmdSeq uint16) error {
	status, err := r.controller.Status()
	if err != nil {
		return fmt.Errorf("receiver: read status: %w", err)
	}
	status.LastCmdSeq = lastCmdSeq
	status.LastRSSIDbm = r.lastRSSIDbm
	status.LastSNRDb = r.lastSNRDb
	return r.transmitStatus(status)
}

func (r *Receiver) transmitStatus(status codec.StatusPayload) error {
	r.seq++
	pkt := &codec.Packet{
		Type:    codec.MsgStatus,
		Src:     config.NodeReceiver,
		Dst:     config.NodeSender,
		Seq:     r.seq,
		Payload: status,
	}
	frame, err := pkt.Serialize(r.key)
	if err != nil {
		return fmt.Errorf("receiver: serialize status: %w", err)
	}
	return r.link.Send(frame)
}

// pollAndPublish polls the heater controller and publishes a Status
// carrying the last processed command's sequence, for the Running and
// ExtendedWake phases of Run.
func (r *Receiver) pollAndPublish() (codec.StatusPayload, error) {
	status, err := r.controller.Status()
	if err != nil {
		return codec.StatusPayload{}, fmt.Errorf("receiver: read status: %w", err)
	}
	status.LastCmdSeq = r.state.LastProcessedCmdSeq
	status.LastRSSIDbm = r.lastRSSIDbm
	status.LastSNRDb = r.lastSNRDb
	if err := r.transmitStatus(status); err != nil {
		return codec.StatusPayload{}, err
	}
	return status, nil
}

// PublishStatus queries the heater controller and sends a Status
// packet, for callers that poll on their own schedule (cmd/receiver's
// status loop, driven by config.StatusPeriod) independent of Run's own
// state machine.
func (r *Receiver) PublishStatus() error {
	_, err := r.pollAndPublish()
	return err
}

// RecordTLVSupport remembers whether the heater answered a given
// W-BUS status ID the last time it was asked, so future multi-status
// requests don't waste a poll cycle on IDs this heater's firmware
// doesn't implement.
func (r *Receiver) RecordTLVSupport(id uint8, supported bool) error {
	r.state.TLVSupportCache[id] = supported
	return r.store.Save(r.state)
}

// SupportsTLV reports the cached support bit for id, and whether
// anything has been recorded for it at all.
func (r *Receiver) SupportsTLV(id uint8) (supported, known bool) {
	supported, known = r.state.TLVSupportCache[id]
	return
}
