// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/webasto-remote/wlr/menu"
	"github.com/webasto-remote/wlr/protocol/codec"
)

// panelEvent is one button edge, timestamped by the goroutine that
// observed it so the menu FSM's debounce/long-press timing is driven
// by wall clock rather than channel delivery order.
type panelEvent struct {
	down bool
	at   time.Time
}

// runPanelInput stands in for the heater unit's physical button: it
// reads "short" or "long" lines from stdin and turns each into a
// synthetic button-down/button-up pair, since there is no GPIO line
// to poll on a host. Any other process wanting to drive the panel
// (a test, a future real GPIO adapter) can send to events directly
// instead.
func runPanelInput(ctx context.Context, events chan<- panelEvent) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		var holdFor time.Duration
		switch line {
		case "short":
			holdFor = menu.DebounceDuration
		case "long":
			holdFor = menu.LongPressThreshold + 50*time.Millisecond
		default:
			continue
		}
		now := time.Now()
		events <- panelEvent{down: true, at: now}
		events <- panelEvent{down: false, at: now.Add(holdFor)}
	}
}

// itemCommand maps a menu selection to the (kind, minutes) pair the
// shared command dispatch funnel expects, the same mapping the
// original firmware's menu activation handler used.
func itemCommand(item menu.Item) (kind codec.CommandKind, minutes uint8) {
	switch item {
	case menu.ItemStart:
		return codec.CmdStart, 0
	case menu.ItemStop:
		return codec.CmdStop, 0
	case menu.ItemRun10min:
		return codec.CmdRunMinutes, 10
	case menu.ItemRun20min:
		return codec.CmdRunMinutes, 20
	case menu.ItemRun30min:
		return codec.CmdRunMinutes, 30
	case menu.ItemRun90min:
		return codec.CmdRunMinutes, 90
	default:
		log.Printf("receiver: panel activated unknown item %v", item)
		return codec.CmdStop, 0
	}
}
