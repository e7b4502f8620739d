// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/webasto-remote/wlr/internal/cliconn"
	"github.com/webasto-remote/wlr/protocol/codec"
	"github.com/webasto-remote/wlr/sender"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the heater using its default runtime",
	RunE: func(cmd *cobra.Command, args []string) error {
		return submit(codec.CmdStart, 0)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the heater",
	RunE: func(cmd *cobra.Command, args []string) error {
		return submit(codec.CmdStop, 0)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query the heater's status without starting or stopping it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return submit(codec.CmdQueryStatus, 0)
	},
}

var runMinutesCmd = &cobra.Command{
	Use:   "run <minutes>",
	Short: "Start the heater for a specific number of minutes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil {
			return fmt.Errorf("minutes must be an integer 1-255: %w", err)
		}
		return submit(codec.CmdRunMinutes, uint8(minutes))
	},
}

func submit(kind codec.CommandKind, minutes uint8) error {
	key, err := cliconn.ResolvePSK()
	if err != nil {
		return err
	}

	link, linkInfo, err := cliconn.OpenLink(radioPort, radioAddr)
	if err != nil {
		return fmt.Errorf("opening radio link: %w", err)
	}
	defer link.Close()
	log.Printf("sender: radio link: %s", linkInfo)

	s := sender.New(link, key)
	result, err := s.Submit(kind, minutes)
	fmt.Printf("result: %s\n", result)
	return err
}
