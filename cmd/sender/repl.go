// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webasto-remote/wlr/internal/cliconn"
	"github.com/webasto-remote/wlr/protocol/codec"
	"github.com/webasto-remote/wlr/sender"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Read start/stop/run <minutes> lines from stdin and submit each as a command",
	RunE:  runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
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

	fmt.Println("wlr-sender repl: start | stop | run <minutes> | status | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "start":
			replSubmit(s, codec.CmdStart, 0)
		case "stop":
			replSubmit(s, codec.CmdStop, 0)
		case "run":
			if len(fields) < 2 {
				fmt.Println("usage: run <minutes>")
				continue
			}
			minutes, err := strconv.ParseUint(fields[1], 10, 8)
			if err != nil || minutes == 0 {
				fmt.Println("minutes must be an integer 1-255")
				continue
			}
			replSubmit(s, codec.CmdRunMinutes, uint8(minutes))
		case "status":
			replSubmit(s, codec.CmdQueryStatus, 0)
		default:
			fmt.Printf("unrecognized command %q\n", fields[0])
		}
	}
	return scanner.Err()
}

func replSubmit(s *sender.Sender, kind codec.CommandKind, minutes uint8) {
	result, err := s.Submit(kind, minutes)
	if err != nil {
		fmt.Printf("%s: %v\n", result, err)
		return
	}
	fmt.Println(result)
}
