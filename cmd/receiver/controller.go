// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/webasto-remote/wlr/protocol/codec"
	"github.com/webasto-remote/wlr/wbus/parser"
	"github.com/webasto-remote/wlr/wbus/transport"
)

// statusIDs is the fixed set of multi-status fields this controller
// asks the heater for whenever Status() issues the multi-status
// request. The list itself does not change per heater; the TLV cache
// only records whether the request is answered at all (see
// multiStatusProbeID).
var statusIDs = []byte{0x0C, 0x0E, 0x11}

// multiStatusProbeID is the status ID whose cached support bit decides
// whether Status() attempts the multi-status TLV request at all, or
// goes straight to the simple-page fallback. All of statusIDs rides on
// the same "0x50 0x30 ..." request, so one representative ID (kept in
// sync with statusIDs[0]) is enough to know whether this heater
// answers it at all.
const multiStatusProbeID = 0x0C

// wbusCommandRetries and wbusAckTimeout bound how hard Start/Stop push
// a command before giving up and reporting HeaterError, per the ack
// verification the original firmware's command dispatch performs.
const (
	wbusCommandRetries = 3
	wbusAckTimeout     = 250 * time.Millisecond
)

// tlvCache is the subset of receiver.Receiver's persisted TLV-support
// bookkeeping Status() needs. receiver.Receiver satisfies it already;
// wbusController is wired to it after construction (see setCache) to
// break the otherwise circular dependency between the two.
type tlvCache interface {
	SupportsTLV(id uint8) (supported, known bool)
	RecordTLVSupport(id uint8, supported bool) error
}

// wbusController adapts a wbus/transport.Transport into
// receiver.HeaterController, issuing the W-BUS commands that back
// Start/Stop/Status.
type wbusController struct {
	tr    *transport.Transport
	cache tlvCache

	mu            sync.Mutex
	lastCmdFailed bool
}

func newWBusController(tr *transport.Transport) *wbusController {
	return &wbusController{tr: tr}
}

// setCache wires the TLV-support cache in once the receiver that owns
// it has been constructed.
func (c *wbusController) setCache(cache tlvCache) {
	c.cache = cache
}

func (c *wbusController) Start(minutes uint8) error {
	if minutes == 0 {
		minutes = 30
	}
	return c.sendWithAck(0x21, []byte{minutes})
}

func (c *wbusController) Stop() error {
	return c.sendWithAck(0x10, nil)
}

// sendWithAck issues cmd up to wbusCommandRetries times, waiting for
// the heater to echo it back with the ack bit (0x80) set after each
// attempt. Exhausting every retry without an ack marks the last
// command as failed, which Status() then reports as HeaterError.
func (c *wbusController) sendWithAck(cmd byte, data []byte) error {
	var lastErr error
	for attempt := 1; attempt <= wbusCommandRetries; attempt++ {
		if err := c.tr.SendCommand(cmd, data); err != nil {
			lastErr = fmt.Errorf("send: %w", err)
			continue
		}
		if c.awaitAck(cmd) {
			c.setCommandFailed(false)
			return nil
		}
		lastErr = fmt.Errorf("no ack for command 0x%02X (attempt %d/%d)", cmd, attempt, wbusCommandRetries)
	}
	c.setCommandFailed(true)
	return fmt.Errorf("wbus: command 0x%02X failed: %w", cmd, lastErr)
}

func (c *wbusController) awaitAck(cmd byte) bool {
	deadline := time.Now().Add(wbusAckTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		frame, err := c.tr.ReadFrame(remaining)
		if err != nil {
			return false
		}
		if frame.Header == transport.RxHeader && frame.Command() == cmd|0x80 {
			return true
		}
	}
}

func (c *wbusController) setCommandFailed(failed bool) {
	c.mu.Lock()
	c.lastCmdFailed = failed
	c.mu.Unlock()
}

func (c *wbusController) commandFailed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCmdFailed
}

func (c *wbusController) Status() (codec.StatusPayload, error) {
	opState, err := parser.ReadOperatingState(c.tr)
	if err != nil {
		return codec.StatusPayload{}, fmt.Errorf("status: opstate: %w", err)
	}

	status := codec.StatusPayload{
		State:           opStateToHeaterState(opState),
		LastWBusOpState: opState,
	}

	if snap, ok := c.readMultiStatus(); ok {
		status.TemperatureC = snap.TemperatureC
		status.VoltageMV = snap.VoltageMV
		status.PowerW = snap.PowerDeciW / 10
	} else {
		c.simpleStatusFallback(&status)
	}

	if c.commandFailed() {
		status.State = codec.HeaterError
	}
	return status, nil
}

// readMultiStatus issues the multi-status TLV request unless the
// cache already knows this heater doesn't answer it, and records the
// outcome the first time it's tried so later calls skip straight to
// the simple-page fallback per spec's TLV-unsupported fallback.
func (c *wbusController) readMultiStatus() (parser.Snapshot, bool) {
	var known bool
	if c.cache != nil {
		var supported bool
		supported, known = c.cache.SupportsTLV(multiStatusProbeID)
		if known && !supported {
			return parser.Snapshot{}, false
		}
	}

	snap, ok := c.requestMultiStatus()
	if !known && c.cache != nil {
		if err := c.cache.RecordTLVSupport(multiStatusProbeID, ok); err != nil {
			log.Printf("status: record tlv support: %v", err)
		}
	}
	return snap, ok
}

func (c *wbusController) requestMultiStatus() (parser.Snapshot, bool) {
	if err := parser.RequestStatusMulti(c.tr, statusIDs); err != nil {
		return parser.Snapshot{}, false
	}
	frame, err := c.tr.ReadFrame(responseTimeout)
	if err != nil {
		return parser.Snapshot{}, false
	}
	if len(frame.Payload) == 0 {
		return parser.Snapshot{}, false
	}
	return parser.ParseStatusTLV(frame.Payload[:len(frame.Payload)-1])
}

// simpleStatusFallback reconstructs what it can of Status from the
// individual simple status pages, for heaters whose firmware doesn't
// answer the multi-status TLV request at all.
func (c *wbusController) simpleStatusFallback(status *codec.StatusPayload) {
	if m, err := parser.ReadMeasurements(c.tr); err == nil {
		status.TemperatureC = m.TemperatureC
		status.VoltageMV = m.VoltageMV
		status.PowerW = m.HeaterPowerX10 / 10
	} else {
		log.Printf("status: fallback measurements: %v", err)
	}
	if _, err := parser.ReadStateFlags(c.tr); err != nil {
		log.Printf("status: fallback state flags: %v", err)
	}
	if _, err := parser.ReadActuators(c.tr); err != nil {
		log.Printf("status: fallback actuators: %v", err)
	}
	if _, err := parser.ReadCounters(c.tr); err != nil {
		log.Printf("status: fallback counters: %v", err)
	}
}

// opStateToHeaterState maps the heater's raw 0x50/0x07 operating-state
// byte to the coarse state reported in a Status payload: 0x00 and 0x04
// both mean the burner is off (0x04 is the documented "off, post-purge
// complete" state), and everything else means running.
func opStateToHeaterState(opState uint8) codec.HeaterState {
	if opState == 0x00 || opState == 0x04 {
		return codec.HeaterOff
	}
	return codec.HeaterRunning
}
