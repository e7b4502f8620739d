// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"testing"

	"github.com/webasto-remote/wlr/menu"
	"github.com/webasto-remote/wlr/protocol/codec"
)

func TestItemCommandMapsEveryMenuItem(t *testing.T) {
	cases := []struct {
		item        menu.Item
		wantKind    codec.CommandKind
		wantMinutes uint8
	}{
		{menu.ItemStart, codec.CmdStart, 0},
		{menu.ItemStop, codec.CmdStop, 0},
		{menu.ItemRun10min, codec.CmdRunMinutes, 10},
		{menu.ItemRun20min, codec.CmdRunMinutes, 20},
		{menu.ItemRun30min, codec.CmdRunMinutes, 30},
		{menu.ItemRun90min, codec.CmdRunMinutes, 90},
	}
	for _, c := range cases {
		kind, minutes := itemCommand(c.item)
		if kind != c.wantKind || minutes != c.wantMinutes {
			t.Errorf("itemCommand(%v) = (%v, %d), want (%v, %d)", c.item, kind, minutes, c.wantKind, c.wantMinutes)
		}
	}
}
