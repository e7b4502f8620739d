// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package cliconn assembles the radio.Link and pre-shared key a
// cmd/ binary needs from its flags and environment, following the
// connection-setup pattern the original analyzer tool used for its
// serial/WebSocket connection flags.
package cliconn

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/webasto-remote/wlr/radio"
	"github.com/webasto-remote/wlr/radio/memlink"
	"github.com/webasto-remote/wlr/radio/serialdriver"
)

// OpenLink opens a serialdriver.Driver against portName/address, or
// falls back to an unpaired memlink.Link when portName is empty — the
// latter is only useful wired to a peer by the caller.
func OpenLink(portName string, address uint16) (radio.Link, string, error) {
	if portName == "" {
		return memlink.New(), "memlink (no --radio-port given)", nil
	}
	d, err := serialdriver.Open(portName, address)
	if err != nil {
		return nil, "", err
	}
	return d, fmt.Sprintf("serial: %s (addr %d)", portName, address), nil
}

// PSKEnvVar is checked before prompting interactively, mirroring how
// the original tool preferred FUSAIN_PASSWORD over a password prompt
// to avoid putting secrets in shell history either way.
const PSKEnvVar = "WLR_PSK"

// ResolvePSK returns the 16-byte pre-shared key from the WLR_PSK
// environment variable (as 32 hex characters), or prompts for it on
// stderr with echo disabled if the variable is unset.
func ResolvePSK() ([]byte, error) {
	if hexKey := os.Getenv(PSKEnvVar); hexKey != "" {
		return decodeKey(hexKey)
	}

	fmt.Fprint(os.Stderr, "PSK (hex): ")
	keyBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		reader := bufio.NewReader(os.Stdin)
		line, rerr := reader.ReadString('\n')
		if rerr != nil {
			return nil, fmt.Errorf("cliconn: read PSK: %w", rerr)
		}
		fmt.Fprintln(os.Stderr)
		return decodeKey(strings.TrimSpace(line))
	}
	fmt.Fprintln(os.Stderr)
	return decodeKey(string(keyBytes))
}

func decodeKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("cliconn: PSK must be hex: %w", err)
	}
	if len(key) != 16 {
		return nil, fmt.Errorf("cliconn: PSK must decode to 16 bytes, got %d", len(key))
	}
	return key, nil
}
